package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/backup"
	"github.com/dmitrijs2005/vibedtracker/internal/client/client"
	"github.com/dmitrijs2005/vibedtracker/internal/client/config"
	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/services"
	"github.com/dmitrijs2005/vibedtracker/internal/client/session"
	"github.com/dmitrijs2005/vibedtracker/internal/logging"
	"golang.org/x/term"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// tracker is the part of services.TrackingService the commands use.
type tracker interface {
	Init(ctx context.Context) error
	State() services.TrackingState
	Current() *models.WorkEntry
	CurrentDuration() time.Duration
	Start(ctx context.Context, mode models.WorkMode) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	TogglePause(ctx context.Context) error
	ChangeWorkMode(ctx context.Context, mode models.WorkMode) error
	Stop(ctx context.Context) (*models.WorkEntry, error)
}

type App struct {
	config *config.Config
	logger logging.Logger

	session         *session.Session
	apiClient       client.Client
	authService     services.AuthService
	entryService    services.EntryService
	vacationService services.VacationService
	passkeyService  services.PasskeyService
	tracking        tracker

	// sink is built from config on first export unless set.
	sink  backup.Sink
	close func() error

	reader      *bufio.Reader
	interactive bool

	modeMu sync.Mutex
	Mode   Mode
}

// NewApp wires the services for cfg. The CLI has no WebAuthn platform, so
// passkey commands report that passkeys are unsupported.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	repos, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api := client.NewHTTPClient(cfg.ServerURL, cfg.AuthToken, cfg.RequestTimeout)
	s := session.New()

	entries := services.NewEntryService(api, s, logger)

	return &App{
		config:          cfg,
		logger:          logger,
		session:         s,
		apiClient:       api,
		authService:     services.NewAuthService(api, s, repos.Metadata, logger),
		entryService:    entries,
		vacationService: services.NewVacationService(entries),
		passkeyService:  services.NewPasskeyService(api, nil, s, repos.Passkeys, logger),
		tracking:        services.NewTrackingService(entries, s, logger),
		close:           repos.Close,
		reader:          bufio.NewReader(os.Stdin),
		interactive:     term.IsTerminal(int(os.Stdout.Fd())),
	}, nil
}

// Run starts the connectivity watcher and the REPL and blocks until the user
// exits or ctx is done. The key is wiped on return.
func (a *App) Run(ctx context.Context) {
	defer func() {
		a.authService.Lock()
		if a.close != nil {
			if err := a.close(); err != nil {
				a.logger.Warn(ctx, "closing database", "error", err)
			}
		}
	}()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(watchCtx, 30*time.Second)

	a.Root(ctx)
}

func (a *App) isUnlocked() bool {
	return a.session != nil && a.session.Unlocked()
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.Mode
}

// checkOnline pings the server once and updates Mode.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
