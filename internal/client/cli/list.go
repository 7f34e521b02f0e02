package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
)

const maxListed = 20

func (a *App) List(ctx context.Context, args []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}

	what := "work"
	if len(args) > 0 {
		what = args[0]
	}

	switch what {
	case "work", "entries":
		return a.listWork(ctx)
	case "vacation", "vacations":
		return a.listVacations(ctx)
	}
	return fmt.Errorf("usage: list [work|vacation]")
}

func (a *App) listWork(ctx context.Context) error {
	var entries []*models.WorkEntry
	err := a.withSpinner(ctx, "Loading entries...", func() error {
		var err error
		entries, err = a.entryService.LoadWorkEntries(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		say("No work entries")
		return nil
	}

	now := time.Now()
	var total time.Duration
	for i, e := range entries {
		total += e.Duration(now)
		if i >= maxListed {
			continue
		}
		say("%s", formatWorkEntry(e, now))
	}
	if len(entries) > maxListed {
		say("... %d more", len(entries)-maxListed)
	}
	say("%d entries, %s total", len(entries), formatDuration(total))
	return nil
}

func formatWorkEntry(e *models.WorkEntry, now time.Time) string {
	stop := "running"
	if e.Stop != nil {
		stop = formatClock(e.Stop.Time)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-14s  %s  %s-%-7s  %8s  %s",
		e.LocalID, formatDay(e.Start.Time), formatClock(e.Start.Time), stop,
		formatDuration(e.Duration(now)), e.WorkModeIndex)
	if e.Notes != nil && *e.Notes != "" {
		b.WriteString("  " + *e.Notes)
	}
	return b.String()
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	id := args[0]

	if cur := a.tracking.Current(); cur != nil && cur.LocalID == id {
		return fmt.Errorf("entry %s is being tracked, stop it first", id)
	}

	if err := a.entryService.Delete(ctx, models.RecordTypeWorkEntry, id); err != nil {
		return err
	}
	success("Deleted %s", id)
	return nil
}
