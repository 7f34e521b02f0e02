package models

import (
	"encoding/json"
	"slices"
	"time"
)

// WorkMode is the category of a work entry. The numeric value is persisted as
// workModeIndex and shared with the other clients.
type WorkMode int

const (
	WorkModeRegular WorkMode = iota
	WorkModeDeepWork
	WorkModeMeeting
	WorkModeSupport
	WorkModeAdministration
)

var workModeLabels = [...]string{"Arbeit", "Deep Work", "Meeting", "Support", "Administration"}

// Valid reports whether m is one of the five known modes.
func (m WorkMode) Valid() bool {
	return m >= WorkModeRegular && m <= WorkModeAdministration
}

func (m WorkMode) String() string {
	if !m.Valid() {
		return workModeLabels[0]
	}
	return workModeLabels[m]
}

// Pause is an interruption inside a work entry. End is nil while it runs.
type Pause struct {
	Start Timestamp  `json:"start"`
	End   *Timestamp `json:"end"`
}

// Duration returns the pause length; an open pause runs until now.
func (p Pause) Duration(now time.Time) time.Duration {
	end := now
	if p.End != nil {
		end = p.End.Time
	}
	if end.Before(p.Start.Time) {
		return 0
	}
	return end.Sub(p.Start.Time)
}

// WorkEntry is one tracked work interval.
type WorkEntry struct {
	Meta `json:"-"`

	// Key is the integer id older clients embed in the payload.
	Key           *int64     `json:"key,omitempty"`
	Start         Timestamp  `json:"start"`
	Stop          *Timestamp `json:"stop"`
	Pauses        []Pause    `json:"pauses"`
	Notes         *string    `json:"notes"`
	Tags          []string   `json:"tags"`
	ProjectID     *string    `json:"projectId"`
	WorkModeIndex WorkMode   `json:"workModeIndex"`
}

func (e *WorkEntry) RecordType() RecordType { return RecordTypeWorkEntry }

func (e *WorkEntry) SortTime() time.Time { return e.Start.Time }

// IsLive reports whether the entry has not been stopped yet.
func (e *WorkEntry) IsLive() bool { return e.Stop == nil }

// IsPaused reports whether the last pause is still open.
func (e *WorkEntry) IsPaused() bool {
	if len(e.Pauses) == 0 {
		return false
	}
	return e.Pauses[len(e.Pauses)-1].End == nil
}

// Duration is the worked time: (stop or now) - start minus all pauses,
// never negative.
func (e *WorkEntry) Duration(now time.Time) time.Duration {
	end := now
	if e.Stop != nil {
		end = e.Stop.Time
	}
	total := end.Sub(e.Start.Time)
	for _, p := range e.Pauses {
		pauseEnd := end
		if p.End != nil {
			pauseEnd = p.End.Time
		}
		if pauseEnd.After(p.Start.Time) {
			total -= pauseEnd.Sub(p.Start.Time)
		}
	}
	if total < 0 {
		return 0
	}
	return total
}

// Clone returns a deep copy, so a tracker can mutate a candidate state
// without touching the committed one.
func (e *WorkEntry) Clone() *WorkEntry {
	c := *e
	if e.Key != nil {
		k := *e.Key
		c.Key = &k
	}
	if e.Stop != nil {
		s := *e.Stop
		c.Stop = &s
	}
	if e.Notes != nil {
		n := *e.Notes
		c.Notes = &n
	}
	if e.ProjectID != nil {
		p := *e.ProjectID
		c.ProjectID = &p
	}
	c.Tags = slices.Clone(e.Tags)
	c.Pauses = make([]Pause, len(e.Pauses))
	for i, p := range e.Pauses {
		c.Pauses[i] = Pause{Start: p.Start}
		if p.End != nil {
			end := *p.End
			c.Pauses[i].End = &end
		}
	}
	return &c
}

// Validate checks the entry invariants: a start time, stop not before start,
// a known work mode, and ordered non-overlapping pauses of which at most the
// last is open (and only while the entry is live).
func (e *WorkEntry) Validate() error {
	if e.Start.IsZero() {
		return invalid("work entry without start")
	}
	if e.Stop != nil && e.Stop.Before(e.Start.Time) {
		return invalid("work entry stops before it starts")
	}
	if !e.WorkModeIndex.Valid() {
		return invalid("work mode index %d out of range", e.WorkModeIndex)
	}

	prevEnd := e.Start.Time
	for i, p := range e.Pauses {
		if p.Start.Before(prevEnd) {
			return invalid("pause %d overlaps or precedes the previous interval", i)
		}
		if p.End == nil {
			if i != len(e.Pauses)-1 {
				return invalid("pause %d is open but not last", i)
			}
			if e.Stop != nil {
				return invalid("stopped entry has an open pause")
			}
			continue
		}
		if p.End.Before(p.Start.Time) {
			return invalid("pause %d ends before it starts", i)
		}
		if e.Stop != nil && p.End.After(e.Stop.Time) {
			return invalid("pause %d ends after the entry stops", i)
		}
		prevEnd = p.End.Time
	}
	return nil
}

// MarshalJSON writes empty lists instead of null so other clients can
// iterate pauses and tags without checks.
func (e WorkEntry) MarshalJSON() ([]byte, error) {
	type plain WorkEntry
	p := plain(e)
	if p.Pauses == nil {
		p.Pauses = []Pause{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return json.Marshal(p)
}
