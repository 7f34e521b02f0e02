package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/session"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/logging"
)

type TrackingState int

const (
	TrackingIdle TrackingState = iota
	TrackingActive
	TrackingPaused
)

func (s TrackingState) String() string {
	switch s {
	case TrackingIdle:
		return "idle"
	case TrackingActive:
		return "active"
	case TrackingPaused:
		return "paused"
	}
	return "unknown"
}

// TrackingService owns the single live work entry of the account.
//
// Every transition works on a clone of the current entry, persists the clone
// through the EntryService and commits it only after the store accepted it.
// A failed save therefore leaves the tracker exactly as it was. Transitions
// are serialised by mu. Clearing the session resets the tracker to idle.
//
// Nothing is started before a live-entry scan of the store has succeeded.
// Init runs that scan; Start and the transitions rerun it while it has not
// completed yet, so a failed Init cannot lead to a second live entry.
type TrackingService struct {
	entries EntryService
	logger  logging.Logger
	now     func() time.Time

	mu        sync.Mutex
	current   *models.WorkEntry
	recovered bool
}

func NewTrackingService(entries EntryService, s *session.Session, logger logging.Logger) *TrackingService {
	t := &TrackingService{entries: entries, logger: logger, now: time.Now}
	s.OnClear(t.reset)
	return t
}

func (t *TrackingService) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = nil
	t.recovered = false
}

// Init recovers a live entry after a restart: the newest stored work entry
// without a stop time is adopted, paused iff its last pause is open.
func (t *TrackingService) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recoverLocked(ctx)
}

func (t *TrackingService) recoverLocked(ctx context.Context) error {
	entries, err := t.entries.LoadWorkEntries(ctx)
	if err != nil {
		t.recovered = false
		return fmt.Errorf("%w: %w", common.ErrNotRecovered, err)
	}

	t.current = nil
	live := 0
	for _, e := range entries {
		if !e.IsLive() {
			continue
		}
		live++
		if t.current == nil {
			t.current = e.Clone()
		}
	}
	t.recovered = true

	if live > 1 {
		t.logger.Warn(ctx, "more than one live work entry, adopting the newest", "count", live)
	}
	if t.current != nil {
		t.logger.Info(ctx, "recovered live work entry", "local_id", t.current.LocalID, "paused", t.current.IsPaused())
	}
	return nil
}

// ensureRecoveredLocked reruns the live-entry scan until one has succeeded.
func (t *TrackingService) ensureRecoveredLocked(ctx context.Context) error {
	if t.recovered {
		return nil
	}
	return t.recoverLocked(ctx)
}

// State reports idle, active or paused.
func (t *TrackingService) State() TrackingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *TrackingService) stateLocked() TrackingState {
	switch {
	case t.current == nil:
		return TrackingIdle
	case t.current.IsPaused():
		return TrackingPaused
	default:
		return TrackingActive
	}
}

// Current returns a copy of the live entry, or nil when idle.
func (t *TrackingService) Current() *models.WorkEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	return t.current.Clone()
}

// CurrentDuration is the worked time of the live entry up to now, zero when
// idle. It is computed, never stored.
func (t *TrackingService) CurrentDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return 0
	}
	return t.current.Duration(t.now())
}

// Start opens a new live entry. The local id is the start time in Unix
// milliseconds and doubles as the legacy integer key, as the mobile clients
// expect.
func (t *TrackingService) Start(ctx context.Context, mode models.WorkMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureRecoveredLocked(ctx); err != nil {
		return err
	}
	if t.current != nil {
		t.logger.Warn(ctx, "start ignored, already tracking", "local_id", t.current.LocalID)
		return common.ErrAlreadyTracking
	}
	if !mode.Valid() {
		return invalidMode(mode)
	}

	now := models.NewTimestamp(t.now())
	ms := now.UnixMilli()
	e := &models.WorkEntry{
		Meta:          models.Meta{LocalID: strconv.FormatInt(ms, 10)},
		Key:           &ms,
		Start:         now,
		Pauses:        []models.Pause{},
		Tags:          []string{},
		WorkModeIndex: mode,
	}

	if _, err := t.entries.Save(ctx, e); err != nil {
		return err
	}
	t.current = e
	t.logger.Info(ctx, "tracking started", "local_id", e.LocalID, "mode", mode.String())
	return nil
}

// Pause opens a pause on an active entry.
func (t *TrackingService) Pause(ctx context.Context) error {
	return t.transition(ctx, func(e *models.WorkEntry, now models.Timestamp) error {
		if e.IsPaused() {
			return common.ErrInvalidTransition
		}
		e.Pauses = append(e.Pauses, models.Pause{Start: now})
		return nil
	})
}

// Resume closes the open pause of a paused entry.
func (t *TrackingService) Resume(ctx context.Context) error {
	return t.transition(ctx, func(e *models.WorkEntry, now models.Timestamp) error {
		if !e.IsPaused() {
			return common.ErrInvalidTransition
		}
		e.Pauses[len(e.Pauses)-1].End = &now
		return nil
	})
}

// TogglePause pauses an active entry or resumes a paused one.
func (t *TrackingService) TogglePause(ctx context.Context) error {
	return t.transition(ctx, func(e *models.WorkEntry, now models.Timestamp) error {
		if e.IsPaused() {
			e.Pauses[len(e.Pauses)-1].End = &now
		} else {
			e.Pauses = append(e.Pauses, models.Pause{Start: now})
		}
		return nil
	})
}

// ChangeWorkMode sets the work mode of the live entry.
func (t *TrackingService) ChangeWorkMode(ctx context.Context, mode models.WorkMode) error {
	if !mode.Valid() {
		return invalidMode(mode)
	}
	return t.transition(ctx, func(e *models.WorkEntry, _ models.Timestamp) error {
		e.WorkModeIndex = mode
		return nil
	})
}

// Stop closes an open pause, sets the stop time, persists the entry and
// returns the tracker to idle. It returns the stopped entry.
func (t *TrackingService) Stop(ctx context.Context) (*models.WorkEntry, error) {
	var stopped *models.WorkEntry
	err := t.transition(ctx, func(e *models.WorkEntry, now models.Timestamp) error {
		if e.IsPaused() {
			e.Pauses[len(e.Pauses)-1].End = &now
		}
		e.Stop = &now
		stopped = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stopped.Clone(), nil
}

// transition applies mutate to a clone of the live entry and commits the
// clone once it has been saved. Stopped entries are not kept.
func (t *TrackingService) transition(ctx context.Context, mutate func(e *models.WorkEntry, now models.Timestamp) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureRecoveredLocked(ctx); err != nil {
		return err
	}
	if t.current == nil {
		return common.ErrNotTracking
	}

	next := t.current.Clone()
	if err := mutate(next, t.stamp(next)); err != nil {
		t.logger.Debug(ctx, "tracking transition rejected", "state", t.stateLocked().String(), "error", err)
		return err
	}

	if _, err := t.entries.Save(ctx, next); err != nil {
		t.logger.Error(ctx, "failed to persist tracking state", "local_id", next.LocalID, "error", err)
		return err
	}

	if next.IsLive() {
		t.current = next
	} else {
		t.current = nil
		t.logger.Info(ctx, "tracking stopped", "local_id", next.LocalID)
	}
	return nil
}

// stamp returns the current time, never earlier than the last recorded
// boundary of e, so a clock step backwards cannot produce an invalid entry.
func (t *TrackingService) stamp(e *models.WorkEntry) models.Timestamp {
	now := models.NewTimestamp(t.now())
	floor := e.Start
	if n := len(e.Pauses); n > 0 {
		last := e.Pauses[n-1]
		floor = last.Start
		if last.End != nil {
			floor = *last.End
		}
	}
	if now.Before(floor.Time) {
		return floor
	}
	return now
}

func invalidMode(mode models.WorkMode) error {
	return fmt.Errorf("%w: work mode index %d out of range", common.ErrInvalidRecord, mode)
}
