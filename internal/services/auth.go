// Package services contains the application services of cardkeep. This file
// implements AuthService: signup, login, logout, session validation and
// rotation over the SQLite credential and session stores.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/common"
	"github.com/dmitrijs2005/cardkeep/internal/config"
	"github.com/dmitrijs2005/cardkeep/internal/cryptox"
	"github.com/dmitrijs2005/cardkeep/internal/dbx"
	"github.com/dmitrijs2005/cardkeep/internal/logging"
	"github.com/dmitrijs2005/cardkeep/internal/models"
	"github.com/dmitrijs2005/cardkeep/internal/repositories/repomanager"
)

// AuthService is safe for concurrent use. Absent or expired sessions are
// reported as nil results, not errors; errors are reserved for bad input,
// bad credentials and store failures (wrapped in common.ErrPersistence).
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.PasswordHasher
	signer      *cryptox.Signer
	log         logging.Logger
	now         func() time.Time

	idleTTL       time.Duration
	absoluteTTL   time.Duration
	touchFraction float64

	// dummyHash is verified against for unknown emails so that login costs
	// the same whether or not the account exists.
	dummyHash string
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithLogger sets the service logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(s *AuthService) { s.log = l }
}

// WithSigner overrides the signer built from cfg.SigningKey.
func WithSigner(signer *cryptox.Signer) Option {
	return func(s *AuthService) { s.signer = signer }
}

// NewAuthService builds the service from a validated config. When
// cfg.SigningKey is empty a random key is generated and every token issued
// becomes unverifiable after a restart.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, opts ...Option) *AuthService {
	s := &AuthService{
		db:            db,
		repomanager:   m,
		hasher:        cryptox.NewPasswordHasher(cfg.HashParams(), cfg.Pepper),
		log:           logging.Discard(),
		now:           time.Now,
		idleTTL:       cfg.IdleTTL,
		absoluteTTL:   cfg.AbsoluteTTL,
		touchFraction: cfg.TouchFraction,
	}
	// At a fraction of 1 or more the session is idle-expired before it is
	// ever touched.
	if s.touchFraction <= 0 || s.touchFraction >= 1 {
		s.touchFraction = config.DefaultTouchFraction
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.signer == nil {
		if cfg.SigningKey == "" {
			s.log.Warn(context.Background(), "no signing key configured, generated an ephemeral one; sessions will not survive a restart")
			s.signer = cryptox.NewRandomSigner()
		} else {
			// Non-empty key, NewSigner cannot fail.
			s.signer, _ = cryptox.NewSigner([]byte(cfg.SigningKey))
		}
	}

	s.dummyHash, _ = s.hasher.Hash(common.MakeRandURLString(32))
	return s
}

// Signup creates an account for the normalized email.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrInvalidInput
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, email, hash, s.clock())
	if err != nil {
		if errors.Is(err, common.ErrDuplicateAccount) {
			return nil, common.ErrDuplicateAccount
		}
		return nil, persistence(err)
	}

	s.log.Info(ctx, "account created", "user_id", user.ID)
	return user.Public(), nil
}

// Login checks the credentials and opens a new session. Unknown email and
// wrong password both give common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = models.NormalizeEmail(email)
	users := s.repomanager.Users(s.db)

	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Burn the same hashing work so timing does not reveal whether
			// the account exists.
			_, _ = s.hasher.Verify(s.dummyHash, password)
			return "", common.ErrInvalidCredentials
		}
		return "", persistence(err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		s.log.Warn(ctx, "stored password hash is unreadable", "user_id", user.ID)
		return "", common.ErrInvalidCredentials
	}
	if !ok {
		return "", common.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		upgraded, err := s.hasher.Hash(password)
		if err != nil {
			return "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
		if err := users.UpdatePasswordHash(ctx, user.ID, upgraded); err != nil {
			return "", persistence(err)
		}
		s.log.Info(ctx, "password hash upgraded", "user_id", user.ID)
	}

	now := s.clock()
	session := &models.Session{
		ID:             cryptox.NewSessionID(),
		UserID:         user.ID,
		IssuedAt:       now,
		LastSeen:       now,
		AbsoluteExpiry: now.Add(s.absoluteTTL),
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return "", persistence(err)
	}

	s.log.Info(ctx, "logged in", "user_id", user.ID)
	return s.signer.Sign(session.ID), nil
}

// Logout deletes the session behind token. Empty, malformed and forged
// tokens are ignored; only store failures are returned.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	id, ok := s.unsign(token)
	if !ok {
		return nil
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, id); err != nil {
		return persistence(err)
	}
	s.log.Debug(ctx, "logged out")
	return nil
}

// CurrentUser returns the owner of a live session, or (nil, nil) when the
// token is unusable or the session is gone or expired. Expired sessions are
// deleted on sight. With touch set, last_seen is refreshed once more than
// TouchFraction of the idle window has passed since the previous refresh.
func (s *AuthService) CurrentUser(ctx context.Context, token string, touch bool) (*models.User, error) {
	session, err := s.liveSession(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}

	now := s.clock()
	if touch && now.Sub(session.LastSeen) > s.touchThreshold() {
		if err := s.repomanager.Sessions(s.db).Touch(ctx, session.ID, now); err != nil {
			return nil, persistence(err)
		}
	}
	return session.User(), nil
}

// SessionStatus reports how much time a live session has left without
// touching it. (nil, nil) means absent.
func (s *AuthService) SessionStatus(ctx context.Context, token string) (*models.SessionStatus, error) {
	session, err := s.liveSession(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}

	now := s.clock()
	return &models.SessionStatus{
		User:              session.User(),
		IdleRemaining:     s.idleTTL - now.Sub(session.LastSeen),
		AbsoluteRemaining: session.AbsoluteExpiry.Sub(now),
		AbsoluteExpiry:    session.AbsoluteExpiry,
	}, nil
}

// Rotate replaces the session behind token with a fresh identifier. The new
// session keeps the original absolute expiry and starts a new idle window.
// Returns ("", nil) when the token does not name a live session. The old row
// is deleted and the new one inserted in one transaction, so a failure leaves
// either the old session or the new one, never both and never a resurrected
// copy.
func (s *AuthService) Rotate(ctx context.Context, token string) (string, error) {
	oldID, ok := s.unsign(token)
	if !ok {
		return "", nil
	}

	var next *models.Session
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sessions := s.repomanager.Sessions(tx)

		current, err := sessions.GetWithUser(ctx, oldID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}

		now := s.clock()
		if err := sessions.Delete(ctx, oldID); err != nil {
			return err
		}
		if !current.Valid(now, s.idleTTL) {
			return nil
		}

		next = &models.Session{
			ID:             cryptox.NewSessionID(),
			UserID:         current.UserID,
			IssuedAt:       now,
			LastSeen:       now,
			AbsoluteExpiry: current.AbsoluteExpiry,
		}
		return sessions.Create(ctx, next)
	})
	if err != nil {
		return "", persistence(err)
	}
	if next == nil {
		return "", nil
	}

	s.log.Info(ctx, "session rotated", "user_id", next.UserID)
	return s.signer.Sign(next.ID), nil
}

// CleanupExpired deletes every expired session and returns how many went.
func (s *AuthService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.clock(), s.idleTTL)
	if err != nil {
		return 0, persistence(err)
	}
	return n, nil
}

// StartCleanup runs CleanupExpired every interval until ctx is cancelled.
// Expiry is still enforced lazily; the sweeper only reclaims rows nobody asks
// about any more.
func (s *AuthService) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.CleanupExpired(ctx)
				if err != nil {
					if ctx.Err() == nil {
						s.log.Error(ctx, "session cleanup failed", "error", err)
					}
					continue
				}
				if n > 0 {
					s.log.Debug(ctx, "expired sessions removed", "count", n)
				}
			}
		}
	}()
}

// liveSession resolves token to a valid session, deleting it when expired.
func (s *AuthService) liveSession(ctx context.Context, token string) (*models.SessionWithUser, error) {
	id, ok := s.unsign(token)
	if !ok {
		return nil, nil
	}

	sessions := s.repomanager.Sessions(s.db)
	session, err := sessions.GetWithUser(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, persistence(err)
	}

	if !session.Valid(s.clock(), s.idleTTL) {
		if err := sessions.Delete(ctx, id); err != nil {
			return nil, persistence(err)
		}
		s.log.Debug(ctx, "expired session removed", "user_id", session.UserID)
		return nil, nil
	}
	return session, nil
}

func (s *AuthService) unsign(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	return s.signer.Unsign(token)
}

// clock returns the current time truncated to the second, the resolution the
// store keeps.
func (s *AuthService) clock() time.Time {
	return time.Unix(s.now().Unix(), 0)
}

func (s *AuthService) touchThreshold() time.Duration {
	return time.Duration(float64(s.idleTTL) * s.touchFraction)
}

func persistence(err error) error {
	return fmt.Errorf("%w: %w", common.ErrPersistence, err)
}
