package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/services"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
)

var workModeAliases = map[string]models.WorkMode{
	"regular":  models.WorkModeRegular,
	"arbeit":   models.WorkModeRegular,
	"work":     models.WorkModeRegular,
	"deep":     models.WorkModeDeepWork,
	"deepwork": models.WorkModeDeepWork,
	"meeting":  models.WorkModeMeeting,
	"support":  models.WorkModeSupport,
	"admin":    models.WorkModeAdministration,
}

// parseWorkMode accepts a mode index or a name.
func parseWorkMode(s string) (models.WorkMode, error) {
	if n, err := strconv.Atoi(s); err == nil {
		m := models.WorkMode(n)
		if !m.Valid() {
			return 0, fmt.Errorf("work mode %d: %w", n, common.ErrInvalidRecord)
		}
		return m, nil
	}
	key := strings.ToLower(strings.ReplaceAll(s, "-", ""))
	if m, ok := workModeAliases[key]; ok {
		return m, nil
	}
	for m := models.WorkModeRegular; m <= models.WorkModeAdministration; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("work mode %q: %w", s, common.ErrInvalidRecord)
}

func (a *App) Start(ctx context.Context, args []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}

	mode := models.WorkModeRegular
	if len(args) > 0 {
		m, err := parseWorkMode(strings.Join(args, " "))
		if err != nil {
			return err
		}
		mode = m
	}

	if err := a.tracking.Start(ctx, mode); err != nil {
		return err
	}
	cur := a.tracking.Current()
	success("Tracking started at %s (%s)", formatClock(cur.Start.Time), mode)
	return nil
}

func (a *App) Pause(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	if err := a.tracking.Pause(ctx); err != nil {
		return err
	}
	success("Paused at %s", formatDuration(a.tracking.CurrentDuration()))
	return nil
}

func (a *App) Resume(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	if err := a.tracking.Resume(ctx); err != nil {
		return err
	}
	success("Resumed")
	return nil
}

func (a *App) Toggle(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	if err := a.tracking.TogglePause(ctx); err != nil {
		return err
	}
	if a.tracking.State() == services.TrackingPaused {
		success("Paused at %s", formatDuration(a.tracking.CurrentDuration()))
	} else {
		success("Resumed")
	}
	return nil
}

func (a *App) SetMode(ctx context.Context, args []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: mode <0-4|regular|deep|meeting|support|admin>")
	}
	mode, err := parseWorkMode(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := a.tracking.ChangeWorkMode(ctx, mode); err != nil {
		return err
	}
	success("Mode set to %s", mode)
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	e, err := a.tracking.Stop(ctx)
	if err != nil {
		return err
	}
	success("Stopped at %s, worked %s", formatClock(e.Stop.Time), formatDuration(e.Duration(e.Stop.Time)))
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if !a.isUnlocked() {
		say("Locked")
		return nil
	}

	cur := a.tracking.Current()
	if cur == nil {
		say("Not tracking")
		return nil
	}

	say("%s since %s, %s, worked %s, %d pause(s)",
		a.tracking.State(),
		formatClock(cur.Start.Time),
		cur.WorkModeIndex,
		formatDuration(a.tracking.CurrentDuration()),
		len(cur.Pauses),
	)
	return nil
}
