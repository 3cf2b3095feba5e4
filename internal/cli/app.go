package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/common"
	"github.com/dmitrijs2005/cardkeep/internal/config"
	"github.com/dmitrijs2005/cardkeep/internal/dbx"
	"github.com/dmitrijs2005/cardkeep/internal/logging"
	"github.com/dmitrijs2005/cardkeep/internal/models"
	"github.com/dmitrijs2005/cardkeep/internal/repositories/metadata"
	"github.com/dmitrijs2005/cardkeep/internal/repositories/repomanager"
	"github.com/dmitrijs2005/cardkeep/internal/services"
	"github.com/google/uuid"
)

// AuthService is the part of services.AuthService the CLI drives.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string, touch bool) (*models.User, error)
	Rotate(ctx context.Context, token string) (string, error)
	SessionStatus(ctx context.Context, token string) (*models.SessionStatus, error)
}

type App struct {
	config      *config.Config
	authService AuthService
	tokens      metadata.Repository
	log         logging.Logger
	reader      *bufio.Reader
	out         io.Writer

	// cleanup is the optional expired-session sweeper.
	cleanup func(ctx context.Context, interval time.Duration)
	closeDB func() error

	mu    sync.Mutex
	token string
	user  *models.User
}

// NewApp opens the database behind c.DatabaseDSN, applies migrations and
// builds the auth service.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := dbx.OpenSQLite(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	rm := repomanager.NewSQLiteRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	as := services.NewAuthService(db, rm, c, services.WithLogger(log))

	a := newApp(c, as, rm.Metadata(db), log, os.Stdin, os.Stdout)
	a.cleanup = as.StartCleanup
	a.closeDB = db.Close
	return a, nil
}

func newApp(c *config.Config, as AuthService, tokens metadata.Repository, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config:      c,
		authService: as,
		tokens:      tokens,
		log:         log,
		reader:      bufio.NewReader(in),
		out:         out,
	}
}

// Run resumes a saved session, starts the background jobs and blocks in the
// REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.resume(ctx)

	go a.StartSessionWatcher(ctx, a.config.SessionCheckInterval)
	if a.cleanup != nil && a.config.CleanupInterval > 0 {
		a.cleanup(ctx, a.config.CleanupInterval)
	}

	a.Root(ctx)

	cancel()
	if a.closeDB != nil {
		return a.closeDB()
	}
	return nil
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != ""
}

func (a *App) session() (string, *models.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token, a.user
}

// setSession stores the token in memory and in the local metadata table.
func (a *App) setSession(ctx context.Context, token string, user *models.User) {
	a.mu.Lock()
	a.token, a.user = token, user
	a.mu.Unlock()

	if err := a.tokens.Set(ctx, common.SessionTokenKey, []byte(token)); err != nil {
		a.log.Warn(ctx, "could not save session token", "error", err)
	}
}

// clearSession forgets the session if it is still the one identified by
// token, so a watcher tick racing a rotation cannot drop the new token.
func (a *App) clearSession(ctx context.Context, token string) bool {
	a.mu.Lock()
	if a.token != token {
		a.mu.Unlock()
		return false
	}
	a.token, a.user = "", nil
	a.mu.Unlock()

	if err := a.tokens.Delete(ctx, common.SessionTokenKey); err != nil {
		a.log.Warn(ctx, "could not remove session token", "error", err)
	}
	return true
}

// resume loads the token saved by a previous run and keeps it if it still
// names a live session.
func (a *App) resume(ctx context.Context) {
	saved, err := a.tokens.Get(ctx, common.SessionTokenKey)
	if err != nil {
		a.log.Warn(ctx, "could not read saved session", "error", err)
		return
	}
	if len(saved) == 0 {
		return
	}
	token := string(saved)

	user, err := a.authService.CurrentUser(ctx, token, true)
	if err != nil {
		a.log.Error(ctx, "session check failed", "error", err)
		return
	}
	if user == nil {
		if err := a.tokens.Delete(ctx, common.SessionTokenKey); err != nil {
			a.log.Warn(ctx, "could not remove session token", "error", err)
		}
		return
	}

	a.mu.Lock()
	a.token, a.user = token, user
	a.mu.Unlock()
	fmt.Fprintf(a.out, "Resumed session as %s\n", user.Email)
}

// StartSessionWatcher polls the current session every interval, touching it
// like any other use, and announces when it has expired.
func (a *App) StartSessionWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkSession(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkSession(ctx context.Context) {
	token, _ := a.session()
	if token == "" {
		return
	}

	user, err := a.authService.CurrentUser(ctx, token, true)
	if err != nil {
		if ctx.Err() == nil {
			a.log.Error(ctx, "session check failed", "error", err)
		}
		return
	}
	if user == nil {
		if a.clearSession(ctx, token) {
			fmt.Fprintln(a.out, "\nYour session expired. Please log in again.")
		}
		return
	}

	a.mu.Lock()
	if a.token == token {
		a.user = user
	}
	a.mu.Unlock()
}

// requestLogger tags everything one command logs with a fresh request id.
func (a *App) requestLogger() logging.Logger {
	return a.log.With("request_id", uuid.NewString())
}
