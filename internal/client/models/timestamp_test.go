package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"browser iso", "2024-05-01T08:15:30.123Z", time.Date(2024, 5, 1, 8, 15, 30, 123e6, time.UTC)},
		{"offset", "2024-05-01T10:15:30+02:00", time.Date(2024, 5, 1, 8, 15, 30, 0, time.UTC)},
		{"microseconds", "2024-05-01T08:15:30.123456Z", time.Date(2024, 5, 1, 8, 15, 30, 123456e3, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Time), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_ZonelessUsesLocal(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	orig := time.Local
	time.Local = berlin
	t.Cleanup(func() { time.Local = orig })

	got, err := ParseTimestamp("2024-05-01T10:00:00.000")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T08:00:00.000Z", got.String())

	day, err := ParseTimestamp("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-30T22:00:00.000Z", day.String())
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	require.Error(t, err)
}

func TestTimestamp_JSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 5, 1, 8, 0, 0, 987654321, time.UTC))

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01T08:00:00.987Z"`, string(b))

	var back Timestamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, ts.Equal(back.Time))

	var fromNumber Timestamp
	require.Error(t, json.Unmarshal([]byte(`12345`), &fromNumber))
}

func TestTimestamp_KeepsSubMillisecondInstants(t *testing.T) {
	parsed, err := ParseTimestamp("2026-01-08T08:00:00.123456")
	require.NoError(t, err)

	b, err := json.Marshal(parsed)
	require.NoError(t, err)

	var back Timestamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, parsed.Equal(back.Time), "%s became %s", parsed, back)
	assert.Equal(t, 123456000, back.Nanosecond())
}

func TestTimestamp_NullLeavesZero(t *testing.T) {
	var p struct {
		End *Timestamp `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"end":null}`), &p))
	assert.Nil(t, p.End)
}
