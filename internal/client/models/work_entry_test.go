package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func at(d time.Duration) *Timestamp { return TimestampPtr(t0.Add(d)) }

func TestWorkEntry_Duration(t *testing.T) {
	tests := []struct {
		name  string
		entry WorkEntry
		now   time.Time
		want  time.Duration
	}{
		{
			name:  "live without pauses",
			entry: WorkEntry{Start: NewTimestamp(t0)},
			now:   t0.Add(90 * time.Minute),
			want:  90 * time.Minute,
		},
		{
			name: "closed pause subtracted",
			entry: WorkEntry{Start: NewTimestamp(t0), Pauses: []Pause{
				{Start: *at(30 * time.Minute), End: at(45 * time.Minute)},
			}},
			now:  t0.Add(2 * time.Hour),
			want: 105 * time.Minute,
		},
		{
			name: "open pause runs until now",
			entry: WorkEntry{Start: NewTimestamp(t0), Pauses: []Pause{
				{Start: *at(time.Hour)},
			}},
			now:  t0.Add(3 * time.Hour),
			want: time.Hour,
		},
		{
			name: "stopped entry ignores now",
			entry: WorkEntry{Start: NewTimestamp(t0), Stop: at(8 * time.Hour), Pauses: []Pause{
				{Start: *at(4 * time.Hour), End: at(4*time.Hour + 30*time.Minute)},
			}},
			now:  t0.Add(24 * time.Hour),
			want: 7*time.Hour + 30*time.Minute,
		},
		{
			name:  "clock behind start clamps to zero",
			entry: WorkEntry{Start: NewTimestamp(t0)},
			now:   t0.Add(-time.Minute),
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Duration(tt.now))
		})
	}
}

func TestWorkEntry_LiveAndPaused(t *testing.T) {
	e := &WorkEntry{Start: NewTimestamp(t0)}
	assert.True(t, e.IsLive())
	assert.False(t, e.IsPaused())

	e.Pauses = append(e.Pauses, Pause{Start: *at(time.Minute)})
	assert.True(t, e.IsPaused())

	e.Pauses[0].End = at(2 * time.Minute)
	e.Stop = at(time.Hour)
	assert.False(t, e.IsPaused())
	assert.False(t, e.IsLive())
}

func TestWorkEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   WorkEntry
		wantErr bool
	}{
		{"minimal live", WorkEntry{Start: NewTimestamp(t0)}, false},
		{"missing start", WorkEntry{}, true},
		{"stop before start", WorkEntry{Start: NewTimestamp(t0), Stop: at(-time.Minute)}, true},
		{"bad mode", WorkEntry{Start: NewTimestamp(t0), WorkModeIndex: 5}, true},
		{"negative mode", WorkEntry{Start: NewTimestamp(t0), WorkModeIndex: -1}, true},
		{"open pause last", WorkEntry{Start: NewTimestamp(t0), Pauses: []Pause{
			{Start: *at(time.Minute), End: at(2 * time.Minute)},
			{Start: *at(3 * time.Minute)},
		}}, false},
		{"open pause not last", WorkEntry{Start: NewTimestamp(t0), Pauses: []Pause{
			{Start: *at(time.Minute)},
			{Start: *at(3 * time.Minute), End: at(4 * time.Minute)},
		}}, true},
		{"overlapping pauses", WorkEntry{Start: NewTimestamp(t0), Pauses: []Pause{
			{Start: *at(time.Minute), End: at(5 * time.Minute)},
			{Start: *at(3 * time.Minute), End: at(6 * time.Minute)},
		}}, true},
		{"pause before start", WorkEntry{Start: NewTimestamp(t0), Pauses: []Pause{
			{Start: *at(-time.Minute), End: at(time.Minute)},
		}}, true},
		{"stopped with open pause", WorkEntry{Start: NewTimestamp(t0), Stop: at(time.Hour), Pauses: []Pause{
			{Start: *at(time.Minute)},
		}}, true},
		{"pause after stop", WorkEntry{Start: NewTimestamp(t0), Stop: at(time.Hour), Pauses: []Pause{
			{Start: *at(time.Minute), End: at(2 * time.Hour)},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidRecord)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWorkEntry_CloneIsDeep(t *testing.T) {
	notes := "standup"
	e := &WorkEntry{
		Meta:   Meta{LocalID: "l1", Version: 3},
		Start:  NewTimestamp(t0),
		Notes:  &notes,
		Tags:   []string{"a"},
		Pauses: []Pause{{Start: *at(time.Minute)}},
	}

	c := e.Clone()
	c.Pauses[0].End = at(2 * time.Minute)
	c.Tags[0] = "b"
	*c.Notes = "changed"
	c.LocalID = "l2"

	assert.Nil(t, e.Pauses[0].End)
	assert.Equal(t, "a", e.Tags[0])
	assert.Equal(t, "standup", *e.Notes)
	assert.Equal(t, "l1", e.LocalID)
	assert.Equal(t, int64(3), c.Version)
}

func TestWorkEntry_MarshalMatchesSharedSchema(t *testing.T) {
	e := WorkEntry{
		Meta:          Meta{LocalID: "must-not-leak"},
		Start:         NewTimestamp(t0),
		WorkModeIndex: WorkModeMeeting,
	}

	b, err := json.Marshal(&e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"start": "2024-05-01T08:00:00.000Z",
		"stop": null,
		"pauses": [],
		"notes": null,
		"tags": [],
		"projectId": null,
		"workModeIndex": 2
	}`, string(b))
}

func TestWorkMode_String(t *testing.T) {
	assert.Equal(t, "Arbeit", WorkModeRegular.String())
	assert.Equal(t, "Administration", WorkModeAdministration.String())
	assert.Equal(t, "Arbeit", WorkMode(9).String())
	assert.False(t, WorkMode(9).Valid())
}
