package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/client"
	"github.com/dmitrijs2005/vibedtracker/internal/client/config"
	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/services"
	"github.com/dmitrijs2005/vibedtracker/internal/client/session"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/cryptox"
	"github.com/dmitrijs2005/vibedtracker/internal/logging"
	"github.com/stretchr/testify/require"
)

// ------------ output capture ------------

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i] = strings.TrimSpace(fmtAny(v))
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func fmtAny(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return ""
}

func joined(lines *[]string) string {
	return strings.Join(*lines, "\n")
}

func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	i := 0
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if i >= len(pws) {
			return nil, io.EOF
		}
		pw := []byte(pws[i])
		i++
		return pw, nil
	}
	t.Cleanup(func() { getPassword = orig })
}

func unlock(t *testing.T, s *session.Session) {
	t.Helper()
	k, err := cryptox.NewSymmetricKey(common.GenerateRandByteArray(cryptox.KeySize))
	require.NoError(t, err)
	s.SetKey(k, session.UnlockPassphrase)
}

// ------------ fakes ------------

type fakeAuth struct {
	session    *session.Session
	passphrase string
	setUp      bool

	unlockCalls int
	setupWith   string
	pingErr     error

	codes      []string
	resetCode  string
	resetWith  string
	resetErr   error
	regenerate int
}

func (f *fakeAuth) Ping(context.Context) error { return f.pingErr }

func (f *fakeAuth) IsSetUp(context.Context) (bool, error) { return f.setUp, nil }

func (f *fakeAuth) SetupPassphrase(_ context.Context, p string) ([]string, error) {
	if f.setUp {
		return nil, common.ErrAlreadySetUp
	}
	f.setUp, f.passphrase, f.setupWith = true, p, p
	k, _ := cryptox.NewSymmetricKey(common.GenerateRandByteArray(cryptox.KeySize))
	f.session.SetKey(k, session.UnlockPassphrase)
	return f.codes, nil
}

func (f *fakeAuth) RecoveryStatus(context.Context) (int, error) { return len(f.codes), nil }

func (f *fakeAuth) RegenerateRecoveryCodes(context.Context) ([]string, error) {
	f.regenerate++
	return f.codes, nil
}

func (f *fakeAuth) ResetPassphrase(_ context.Context, code, p string) ([]string, error) {
	f.resetCode = code
	if f.resetErr != nil {
		return nil, f.resetErr
	}
	f.passphrase, f.resetWith = p, p
	k, _ := cryptox.NewSymmetricKey(common.GenerateRandByteArray(cryptox.KeySize))
	f.session.SetKey(k, session.UnlockPassphrase)
	return f.codes, nil
}

func (f *fakeAuth) UnlockWithPassphrase(_ context.Context, p string) error {
	f.unlockCalls++
	if p != f.passphrase {
		return common.ErrWrongSecret
	}
	k, _ := cryptox.NewSymmetricKey(common.GenerateRandByteArray(cryptox.KeySize))
	f.session.SetKey(k, session.UnlockPassphrase)
	return nil
}

func (f *fakeAuth) Lock() { f.session.Clear() }

type fakeTracker struct {
	now     time.Time
	current *models.WorkEntry
	inits   int
	saveErr error
}

func (f *fakeTracker) Init(context.Context) error { f.inits++; return nil }

func (f *fakeTracker) State() services.TrackingState {
	switch {
	case f.current == nil:
		return services.TrackingIdle
	case f.current.IsPaused():
		return services.TrackingPaused
	}
	return services.TrackingActive
}

func (f *fakeTracker) Current() *models.WorkEntry {
	if f.current == nil {
		return nil
	}
	return f.current.Clone()
}

func (f *fakeTracker) CurrentDuration() time.Duration {
	if f.current == nil {
		return 0
	}
	return f.current.Duration(f.now)
}

func (f *fakeTracker) Start(_ context.Context, mode models.WorkMode) error {
	if f.current != nil {
		return common.ErrAlreadyTracking
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	f.current = &models.WorkEntry{
		Meta:          models.Meta{LocalID: "1714550400000"},
		Start:         models.NewTimestamp(f.now),
		WorkModeIndex: mode,
	}
	return nil
}

func (f *fakeTracker) Pause(context.Context) error {
	if f.current == nil {
		return common.ErrNotTracking
	}
	if f.current.IsPaused() {
		return common.ErrInvalidTransition
	}
	f.current.Pauses = append(f.current.Pauses, models.Pause{Start: models.NewTimestamp(f.now)})
	return nil
}

func (f *fakeTracker) Resume(context.Context) error {
	if f.current == nil {
		return common.ErrNotTracking
	}
	if !f.current.IsPaused() {
		return common.ErrInvalidTransition
	}
	end := models.NewTimestamp(f.now)
	f.current.Pauses[len(f.current.Pauses)-1].End = &end
	return nil
}

func (f *fakeTracker) TogglePause(ctx context.Context) error {
	if f.current != nil && f.current.IsPaused() {
		return f.Resume(ctx)
	}
	return f.Pause(ctx)
}

func (f *fakeTracker) ChangeWorkMode(_ context.Context, mode models.WorkMode) error {
	if f.current == nil {
		return common.ErrNotTracking
	}
	f.current.WorkModeIndex = mode
	return nil
}

func (f *fakeTracker) Stop(context.Context) (*models.WorkEntry, error) {
	if f.current == nil {
		return nil, common.ErrNotTracking
	}
	stop := models.NewTimestamp(f.now)
	f.current.Stop = &stop
	e := f.current
	f.current = nil
	return e, nil
}

type fakeEntries struct {
	work    []*models.WorkEntry
	deleted []string
	err     error
}

func (f *fakeEntries) Load(context.Context, models.RecordType) ([]models.Record, error) {
	return nil, f.err
}

func (f *fakeEntries) Save(context.Context, models.Record) (*client.SaveAck, error) {
	return &client.SaveAck{}, f.err
}

func (f *fakeEntries) Delete(_ context.Context, _ models.RecordType, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEntries) LoadWorkEntries(context.Context) ([]*models.WorkEntry, error) {
	return f.work, f.err
}

type fakeVacations struct {
	list    []*models.VacationAbsence
	deleted []string

	recordedDay  time.Time
	recordedKind models.AbsenceType
	recordedDesc *string
}

func (f *fakeVacations) List(context.Context) ([]*models.VacationAbsence, error) {
	return f.list, nil
}

func (f *fakeVacations) Record(_ context.Context, day time.Time, kind models.AbsenceType, desc *string) (*models.VacationAbsence, error) {
	f.recordedDay, f.recordedKind, f.recordedDesc = day, kind, desc
	return &models.VacationAbsence{
		Meta:        models.Meta{LocalID: "v1"},
		Day:         models.NewTimestamp(day),
		TypeIndex:   kind,
		Description: desc,
	}, nil
}

func (f *fakeVacations) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePasskeys struct {
	session   *session.Session
	supported bool
	creds     []models.PasskeyCredential

	unlockOK  bool
	unlockErr error
	unlocks   int

	registered string
	regState   models.KeyBackupState
	backups    int

	remote  []services.PasskeyInfo
	listErr error
	removed []string
}

func (f *fakePasskeys) Supported() bool { return f.supported }

func (f *fakePasskeys) Register(_ context.Context, name string) (*models.PasskeyCredential, error) {
	if !f.supported {
		return nil, common.ErrCeremonyFailed
	}
	f.registered = name
	return &models.PasskeyCredential{ID: "cred-1", Name: name, BackupState: f.regState}, nil
}

func (f *fakePasskeys) EnableKeyBackup(context.Context) (*models.PasskeyCredential, error) {
	f.backups++
	return &models.PasskeyCredential{ID: "cred-1", Name: "Laptop", BackupState: models.KeyBackupEnabled}, nil
}

func (f *fakePasskeys) Unlock(context.Context) (bool, error) {
	f.unlocks++
	if f.unlockErr != nil || !f.unlockOK {
		return false, f.unlockErr
	}
	k, _ := cryptox.NewSymmetricKey(common.GenerateRandByteArray(cryptox.KeySize))
	f.session.SetKey(k, session.UnlockPasskey)
	return true, nil
}

func (f *fakePasskeys) BackupStates(context.Context) ([]models.PasskeyCredential, error) {
	return f.creds, nil
}

func (f *fakePasskeys) List(context.Context) ([]services.PasskeyInfo, error) {
	return f.remote, f.listErr
}

func (f *fakePasskeys) Delete(_ context.Context, id string) error {
	for _, p := range f.remote {
		if p.ID == id || p.CredentialID == id {
			f.removed = append(f.removed, p.ID)
			return nil
		}
	}
	return common.ErrNotFound
}

type testApp struct {
	*App
	auth      *fakeAuth
	tracker   *fakeTracker
	entries   *fakeEntries
	vacations *fakeVacations
	passkeys  *fakePasskeys
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	s := session.New()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	ta := &testApp{
		auth:      &fakeAuth{session: s, passphrase: "Correct-Horse-1", setUp: true},
		tracker:   &fakeTracker{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
		entries:   &fakeEntries{},
		vacations: &fakeVacations{},
		passkeys:  &fakePasskeys{session: s},
	}
	ta.App = &App{
		config:          cfg,
		logger:          logging.NewNop(),
		session:         s,
		authService:     ta.auth,
		entryService:    ta.entries,
		vacationService: ta.vacations,
		passkeyService:  ta.passkeys,
		tracking:        ta.tracker,
		reader:          bufio.NewReader(strings.NewReader("")),
	}
	return ta
}
