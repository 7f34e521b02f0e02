package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
)

var absenceAliases = map[string]models.AbsenceType{
	"vacation":  models.AbsenceVacation,
	"urlaub":    models.AbsenceVacation,
	"sick":      models.AbsenceSick,
	"childsick": models.AbsenceChildSick,
	"special":   models.AbsenceSpecialLeave,
	"unpaid":    models.AbsenceUnpaid,
}

var errVacationUsage = errors.New("usage: vacation add <YYYY-MM-DD> [type] [description] | vacation list | vacation delete <YYYY-MM-DD>")

// parseAbsenceType accepts a type index or a name.
func parseAbsenceType(s string) (models.AbsenceType, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		t := models.AbsenceType(n)
		return t, t.Valid()
	}
	t, ok := absenceAliases[strings.ToLower(strings.ReplaceAll(s, "-", ""))]
	return t, ok
}

// parseDay reads a calendar day in the local zone.
func parseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("day %q: %w", s, common.ErrInvalidRecord)
	}
	return d, nil
}

func (a *App) Vacation(ctx context.Context, args []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errVacationUsage
	}

	switch args[0] {
	case "add":
		return a.addVacation(ctx, args[1:])
	case "list":
		return a.listVacations(ctx)
	case "delete":
		return a.deleteVacation(ctx, args[1:])
	}
	return errVacationUsage
}

func (a *App) addVacation(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errVacationUsage
	}
	day, err := parseDay(args[0])
	if err != nil {
		return err
	}

	kind := models.AbsenceVacation
	rest := args[1:]
	if len(rest) > 0 {
		if k, ok := parseAbsenceType(rest[0]); ok {
			kind = k
			rest = rest[1:]
		}
	}

	var desc *string
	if len(rest) > 0 {
		d := strings.Join(rest, " ")
		desc = &d
	}

	v, err := a.vacationService.Record(ctx, day, kind, desc)
	if err != nil {
		return err
	}
	success("%s recorded for %s", v.TypeIndex, formatDay(v.Day.Time))
	return nil
}

func (a *App) listVacations(ctx context.Context) error {
	var list []*models.VacationAbsence
	err := a.withSpinner(ctx, "Loading absences...", func() error {
		var err error
		list, err = a.vacationService.List(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if len(list) == 0 {
		say("No absences")
		return nil
	}
	for _, v := range list {
		line := fmt.Sprintf("%s  %s", formatDay(v.Day.Time), v.TypeIndex)
		if v.Description != nil && *v.Description != "" {
			line += "  " + *v.Description
		}
		say("%s", line)
	}
	return nil
}

// deleteVacation removes the absence recorded for a day.
func (a *App) deleteVacation(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errVacationUsage
	}
	day, err := parseDay(args[0])
	if err != nil {
		return err
	}

	list, err := a.vacationService.List(ctx)
	if err != nil {
		return err
	}
	key := models.DayKey(day)
	for _, v := range list {
		if v.DayKey() != key {
			continue
		}
		if err := a.vacationService.Delete(ctx, v.LocalID); err != nil {
			return err
		}
		success("Absence on %s deleted", formatDay(v.Day.Time))
		return nil
	}
	return fmt.Errorf("no absence on %s: %w", args[0], common.ErrNotFound)
}
