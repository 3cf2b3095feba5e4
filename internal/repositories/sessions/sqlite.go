// Package sessions provides the SQLite-backed session store. Times are kept
// as unix seconds.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/common"
	"github.com/dmitrijs2005/cardkeep/internal/dbx"
	"github.com/dmitrijs2005/cardkeep/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new session row.
func (r *SQLiteRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (session_id, user_id, issued_at, last_seen, absolute_expiry)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.IssuedAt.Unix(), s.LastSeen.Unix(), s.AbsoluteExpiry.Unix())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns common.ErrorNotFound when no session has the id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT session_id, user_id, issued_at, last_seen, absolute_expiry
		FROM sessions
		WHERE session_id = ?
	`
	var issued, lastSeen, absolute int64
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.UserID, &issued, &lastSeen, &absolute)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	setTimes(s, issued, lastSeen, absolute)
	return s, nil
}

// GetWithUser returns the session together with its owner. Sessions whose
// user row is gone are reported as common.ErrorNotFound.
func (r *SQLiteRepository) GetWithUser(ctx context.Context, id string) (*models.SessionWithUser, error) {
	query := `
		SELECT s.session_id, s.user_id, s.issued_at, s.last_seen, s.absolute_expiry, u.email
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.session_id = ?
	`
	var issued, lastSeen, absolute int64
	s := &models.SessionWithUser{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.UserID, &issued, &lastSeen, &absolute, &s.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	setTimes(&s.Session, issued, lastSeen, absolute)
	return s, nil
}

// Touch moves last_seen forward to now. It never moves it backwards, so a
// late writer with an older clock reading is a no-op.
func (r *SQLiteRepository) Touch(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE sessions SET last_seen = ?
		WHERE session_id = ? AND last_seen < ?
	`
	ts := now.Unix()
	if _, err := r.db.ExecContext(ctx, query, ts, id, ts); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the session. Deleting an absent id is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM sessions
		WHERE session_id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that is past its absolute expiry or has
// been idle longer than idle, and reports how many rows went.
func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time, idle time.Duration) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE absolute_expiry < ? OR last_seen < ?
	`
	ts := now.Unix()
	res, err := r.db.ExecContext(ctx, query, ts, ts-int64(idle/time.Second))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func setTimes(s *models.Session, issued, lastSeen, absolute int64) {
	s.IssuedAt = time.Unix(issued, 0)
	s.LastSeen = time.Unix(lastSeen, 0)
	s.AbsoluteExpiry = time.Unix(absolute, 0)
}
