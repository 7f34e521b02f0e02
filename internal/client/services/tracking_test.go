package services

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/session"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTracker(t *testing.T) (*TrackingService, EntryService, *fakeStore, *session.Session, *clock) {
	t.Helper()
	es, store, sess := newEntries(t)
	clk := &clock{t: time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)}
	ts := NewTrackingService(es, sess, nopLogger())
	ts.now = clk.now
	return ts, es, store, sess, clk
}

func TestTracking_StartPersistsLiveEntry(t *testing.T) {
	ts, es, _, _, clk := newTracker(t)
	ctx := context.Background()

	require.Equal(t, TrackingIdle, ts.State())
	require.NoError(t, ts.Start(ctx, models.WorkModeMeeting))
	assert.Equal(t, TrackingActive, ts.State())

	cur := ts.Current()
	require.NotNil(t, cur)
	ms := clk.t.UnixMilli()
	assert.Equal(t, strconv.FormatInt(ms, 10), cur.LocalID)
	require.NotNil(t, cur.Key)
	assert.Equal(t, ms, *cur.Key)

	stored, err := es.LoadWorkEntries(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].IsLive())
	assert.Equal(t, models.WorkModeMeeting, stored[0].WorkModeIndex)
}

func TestTracking_StartTwiceIsRejected(t *testing.T) {
	ts, _, store, _, _ := newTracker(t)
	ctx := context.Background()

	require.NoError(t, ts.Start(ctx, models.WorkModeRegular))
	before := ts.Current()

	err := ts.Start(ctx, models.WorkModeDeepWork)
	require.ErrorIs(t, err, common.ErrAlreadyTracking)
	assert.Equal(t, before, ts.Current())
	assert.Equal(t, 1, store.puts)
}

func TestTracking_StartWhilePausedIsRejected(t *testing.T) {
	ts, _, store, _, _ := newTracker(t)
	ctx := context.Background()

	require.NoError(t, ts.Start(ctx, models.WorkModeDeepWork))
	require.NoError(t, ts.Pause(ctx))

	require.ErrorIs(t, ts.Start(ctx, models.WorkModeRegular), common.ErrAlreadyTracking)
	assert.Equal(t, TrackingPaused, ts.State())
	assert.Equal(t, models.WorkModeDeepWork, ts.Current().WorkModeIndex)
	assert.Equal(t, 2, store.puts)
}

func TestTracking_CurrentDurationSubtractsPause(t *testing.T) {
	ts, _, _, _, clk := newTracker(t)
	ctx := context.Background()

	require.NoError(t, ts.Start(ctx, models.WorkModeRegular))
	clk.advance(10 * time.Minute)
	require.NoError(t, ts.Pause(ctx))
	clk.advance(5 * time.Minute)
	require.NoError(t, ts.Resume(ctx))
	clk.advance(5 * time.Minute)

	assert.Equal(t, 15*time.Minute, ts.CurrentDuration())
}

func TestTracking_StartAfterFailedInitFindsLiveEntry(t *testing.T) {
	ts, es, store, _, clk := newTracker(t)
	ctx := context.Background()

	live := &models.WorkEntry{Start: models.NewTimestamp(clk.t.Add(-time.Hour))}
	_, err := es.Save(ctx, live)
	require.NoError(t, err)

	store.fetchErr = fmt.Errorf("%w: dial tcp", common.ErrUnavailable)
	err = ts.Init(ctx)
	require.ErrorIs(t, err, common.ErrNotRecovered)
	require.ErrorIs(t, err, common.ErrUnavailable)

	err = ts.Start(ctx, models.WorkModeRegular)
	require.ErrorIs(t, err, common.ErrUnavailable)
	require.ErrorIs(t, ts.Pause(ctx), common.ErrNotRecovered)
	assert.Equal(t, TrackingIdle, ts.State())
	assert.Equal(t, 1, store.puts)

	store.fetchErr = nil
	require.ErrorIs(t, ts.Start(ctx, models.WorkModeRegular), common.ErrAlreadyTracking)
	assert.Equal(t, live.LocalID, ts.Current().LocalID)
	assert.Equal(t, 1, store.puts)

	entries, err := es.LoadWorkEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestTracking_SessionClearForgetsRecovery(t *testing.T) {
	ts, _, store, sess, _ := newTracker(t)
	ctx := context.Background()
	require.NoError(t, ts.Init(ctx))

	sess.Clear()
	sess.SetKey(randomKey(t), session.UnlockPassphrase)
	store.fetchErr = common.ErrUnavailable

	require.ErrorIs(t, ts.Start(ctx, models.WorkModeRegular), common.ErrNotRecovered)
}

func TestTracking_PauseResumeStopDuration(t *testing.T) {
	ts, es, _, _, clk := newTracker(t)
	ctx := context.Background()

	require.NoError(t, ts.Start(ctx, models.WorkModeRegular))
	clk.advance(time.Hour)
	require.NoError(t, ts.Pause(ctx))
	assert.Equal(t, TrackingPaused, ts.State())

	clk.advance(30 * time.Minute)
	assert.Equal(t, time.Hour, ts.CurrentDuration())

	require.NoError(t, ts.Resume(ctx))
	assert.Equal(t, TrackingActive, ts.State())
	clk.advance(time.Hour)
	assert.Equal(t, 2*time.Hour, ts.CurrentDuration())

	require.NoError(t, ts.TogglePause(ctx))
	assert.Equal(t, TrackingPaused, ts.State())
	clk.advance(15 * time.Minute)

	stopped, err := ts.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, TrackingIdle, ts.State())
	assert.Nil(t, ts.Current())
	assert.Zero(t, ts.CurrentDuration())

	require.NotNil(t, stopped.Stop)
	require.Len(t, stopped.Pauses, 2)
	require.NotNil(t, stopped.Pauses[1].End, "stop closes the open pause")
	assert.Equal(t, stopped.Stop.Time, stopped.Pauses[1].End.Time)
	assert.Equal(t, 2*time.Hour, stopped.Duration(clk.t.Add(time.Hour)))

	stored, err := es.LoadWorkEntries(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsLive())
	require.NoError(t, stored[0].Validate())
}

func TestTracking_InvalidTransitions(t *testing.T) {
	ts, _, _, _, _ := newTracker(t)
	ctx := context.Background()

	require.ErrorIs(t, ts.Pause(ctx), common.ErrNotTracking)
	require.ErrorIs(t, ts.Resume(ctx), common.ErrNotTracking)
	require.ErrorIs(t, ts.TogglePause(ctx), common.ErrNotTracking)
	require.ErrorIs(t, ts.ChangeWorkMode(ctx, models.WorkModeSupport), common.ErrNotTracking)
	_, err := ts.Stop(ctx)
	require.ErrorIs(t, err, common.ErrNotTracking)

	require.NoError(t, ts.Start(ctx, models.WorkModeRegular))
	require.ErrorIs(t, ts.Resume(ctx), common.ErrInvalidTransition)
	require.NoError(t, ts.Pause(ctx))
	require.ErrorIs(t, ts.Pause(ctx), common.ErrInvalidTransition)
}

func TestTracking_ChangeWorkMode(t *testing.T) {
	ts, es, _, _, _ := newTracker(t)
	ctx := context.Background()

	require.ErrorIs(t, ts.Start(ctx, models.WorkMode(5)), common.ErrInvalidRecord)
	require.Equal(t, TrackingIdle, ts.State())

	require.NoError(t, ts.Start(ctx, models.WorkModeRegular))
	require.NoError(t, ts.Pause(ctx))
	require.NoError(t, ts.ChangeWorkMode(ctx, models.WorkModeAdministration))
	assert.Equal(t, models.WorkModeAdministration, ts.Current().WorkModeIndex)
	assert.Equal(t, TrackingPaused, ts.State())

	require.ErrorIs(t, ts.ChangeWorkMode(ctx, models.WorkMode(-1)), common.ErrInvalidRecord)

	stored, err := es.LoadWorkEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.WorkModeAdministration, stored[0].WorkModeIndex)
}

func TestTracking_FailedPersistLeavesStateUnchanged(t *testing.T) {
	ts, _, store, _, clk := newTracker(t)
	ctx := context.Background()

	require.NoError(t, ts.Start(ctx, models.WorkModeRegular))
	before := ts.Current()

	store.putErr = &common.RemoteError{Status: 503, Message: "maintenance"}
	clk.advance(time.Minute)

	require.ErrorIs(t, ts.Pause(ctx), common.ErrRemoteRejected)
	assert.Equal(t, TrackingActive, ts.State())
	assert.Equal(t, before, ts.Current())

	_, err := ts.Stop(ctx)
	require.ErrorIs(t, err, common.ErrRemoteRejected)
	assert.Equal(t, TrackingActive, ts.State())

	store.putErr = nil
	require.NoError(t, ts.Pause(ctx))
	assert.Equal(t, TrackingPaused, ts.State())
}

func TestTracking_StartFailureStaysIdle(t *testing.T) {
	ts, _, store, _, _ := newTracker(t)
	store.putErr = &common.RemoteError{Status: 500}

	require.Error(t, ts.Start(context.Background(), models.WorkModeRegular))
	assert.Equal(t, TrackingIdle, ts.State())
}

func TestTracking_InitRecoversPausedEntry(t *testing.T) {
	ts, es, _, sess, clk := newTracker(t)
	ctx := context.Background()

	done := workEntry(clk.t.Add(-48*time.Hour), models.WorkModeRegular)
	_, err := es.Save(ctx, done)
	require.NoError(t, err)

	live := &models.WorkEntry{
		Start:  models.NewTimestamp(clk.t.Add(-2 * time.Hour)),
		Pauses: []models.Pause{{Start: models.NewTimestamp(clk.t.Add(-30 * time.Minute))}},
	}
	_, err = es.Save(ctx, live)
	require.NoError(t, err)

	// a fresh process bound to the same session
	restarted := NewTrackingService(es, sess, nopLogger())
	restarted.now = clk.now
	require.NoError(t, restarted.Init(ctx))

	assert.Equal(t, TrackingPaused, restarted.State())
	assert.Equal(t, live.LocalID, restarted.Current().LocalID)
	assert.Equal(t, 90*time.Minute, restarted.CurrentDuration())

	require.NoError(t, restarted.Resume(ctx))
	assert.Equal(t, TrackingActive, restarted.State())
	assert.Equal(t, TrackingIdle, ts.State())
}

func TestTracking_InitAdoptsLiveEntryBreakingInvariants(t *testing.T) {
	ts, _, store, sess, clk := newTracker(t)
	ctx := context.Background()

	live := &models.WorkEntry{
		Meta:  models.Meta{LocalID: "live-from-web"},
		Start: models.NewTimestamp(clk.t.Add(-time.Hour)),
		Pauses: []models.Pause{{
			Start: models.NewTimestamp(clk.t.Add(-30 * time.Minute)),
			End:   models.TimestampPtr(clk.t.Add(-40 * time.Minute)),
		}},
	}
	storeUnchecked(t, store, sess, live)

	require.NoError(t, ts.Init(ctx))
	require.NotNil(t, ts.Current())
	assert.Equal(t, "live-from-web", ts.Current().LocalID)
	require.ErrorIs(t, ts.Start(ctx, models.WorkModeRegular), common.ErrAlreadyTracking)
}

func TestTracking_InitWithoutLiveEntry(t *testing.T) {
	ts, es, _, _, clk := newTracker(t)
	ctx := context.Background()

	_, err := es.Save(ctx, workEntry(clk.t.Add(-24*time.Hour), models.WorkModeRegular))
	require.NoError(t, err)

	require.NoError(t, ts.Init(ctx))
	assert.Equal(t, TrackingIdle, ts.State())
}

func TestTracking_InitFailsWhenLocked(t *testing.T) {
	ts, _, _, sess, _ := newTracker(t)
	sess.Clear()
	require.ErrorIs(t, ts.Init(context.Background()), common.ErrKeyUnavailable)
}

func TestTracking_SessionClearResetsTracker(t *testing.T) {
	ts, _, _, sess, _ := newTracker(t)
	ctx := context.Background()

	require.NoError(t, ts.Start(ctx, models.WorkModeRegular))
	sess.Clear()

	assert.Equal(t, TrackingIdle, ts.State())
	assert.Nil(t, ts.Current())
}

func TestTracking_ClockStepBackStaysValid(t *testing.T) {
	ts, _, _, _, clk := newTracker(t)
	ctx := context.Background()

	require.NoError(t, ts.Start(ctx, models.WorkModeRegular))
	clk.advance(10 * time.Minute)
	require.NoError(t, ts.Pause(ctx))
	clk.advance(-20 * time.Minute)
	require.NoError(t, ts.Resume(ctx))

	cur := ts.Current()
	require.NoError(t, cur.Validate())
	assert.Equal(t, cur.Pauses[0].Start.Time, cur.Pauses[0].End.Time)
}

func TestTrackingState_String(t *testing.T) {
	assert.Equal(t, "idle", TrackingIdle.String())
	assert.Equal(t, "active", TrackingActive.String())
	assert.Equal(t, "paused", TrackingPaused.String())
	assert.Equal(t, "unknown", TrackingState(42).String())
}
