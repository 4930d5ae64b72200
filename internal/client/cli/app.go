// Package cli is the terminal front end of the Luma client: the Go stand-in
// for the mobile navigation root. It reads only the coordinator's
// {authenticated, loading} pair to pick the active branch (splash, loading,
// auth menu, main menu) and renders everything else from the snapshot it
// already holds.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"
	"time"

	"github.com/olegsv/lumacli/internal/client/api"
	"github.com/olegsv/lumacli/internal/client/config"
	"github.com/olegsv/lumacli/internal/client/credstore"
	"github.com/olegsv/lumacli/internal/client/session"
	"github.com/olegsv/lumacli/internal/client/state"
	"github.com/olegsv/lumacli/internal/logging"

	_ "modernc.org/sqlite"
)

// Mode reflects the backend reachability as seen by the status watcher.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

type App struct {
	config      *config.Config
	db          *sql.DB
	client      api.Client
	manager     session.Manager
	coordinator *state.Coordinator
	logger      logging.Logger

	reader *bufio.Reader
	out    io.Writer
	Mode   Mode
}

// NewApp wires the full client stack: local credential database, API client,
// session manager and state coordinator.
func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := credstore.OpenDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	store := credstore.NewStore(db, logger)
	client := api.NewHTTPClient(cfg.ServerBaseURL, store, logger, api.WithTimeout(cfg.RequestTimeout))
	manager := session.NewManager(client, store, logger)
	coordinator := state.NewCoordinator(manager, logger)

	return &App{
		config:      cfg,
		db:          db,
		client:      client,
		manager:     manager,
		coordinator: coordinator,
		logger:      logger.With("component", "cli"),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		Mode:        ModeOffline,
	}, nil
}

// Close releases the database and network resources.
func (a *App) Close(ctx context.Context) error {
	if err := a.client.Close(); err != nil {
		a.logger.Warn(ctx, "client close failed", "error", err)
	}
	return a.db.Close()
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.logger.Info(ctx, "connectivity changed", "mode", mode)
	}
}

// Run drives the top-level branches: splash (server wait), loading (initial
// status check), then the auth or main menu depending solely on the
// coordinator's snapshot.
func (a *App) Run(ctx context.Context) {
	defer a.Close(ctx)

	a.splash(ctx)

	a.coordinator.Start(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.HealthCheckInterval)

	a.Root(ctx)
}

// splash waits briefly for the backend so the first screen can warn about an
// offline server before the user attempts an action that would fail
// opaquely.
func (a *App) splash(ctx context.Context) {
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.manager.WaitForServer(waitCtx); err != nil {
		a.logger.Warn(ctx, "server offline, continuing with cached state")
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher periodically probes server reachability and
// flips the mode indicator.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.manager.Health(ctx) {
				a.setMode(ctx, ModeOnline)
			} else {
				a.setMode(ctx, ModeOffline)
			}
		case <-ctx.Done():
			return
		}
	}
}
