// Package users provides the SQLite-backed credential store.
package users

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

// SQLiteRepository reads and writes users over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a user. A second account with the same email yields
// common.ErrDuplicateAccount.
func (r *SQLiteRepository) Create(ctx context.Context, email, passwordHash string, createdAt time.Time) (*models.UserRecord, error) {
	query := `
		INSERT INTO users (email, password_hash, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`
	user := &models.UserRecord{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Unix(createdAt.Unix(), 0),
	}
	err := r.db.QueryRowContext(ctx, query, email, passwordHash, createdAt.Unix()).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// GetByEmail returns common.ErrorNotFound when no user has that email.
func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	query := `
		SELECT id, email, password_hash, created_at FROM users
		WHERE email = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByID returns common.ErrorNotFound when the id is unknown.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.UserRecord, error) {
	query := `
		SELECT id, email, password_hash, created_at FROM users
		WHERE id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// UpdatePasswordHash overwrites the stored hash. Writing the same value twice
// is harmless.
func (r *SQLiteRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE users SET password_hash = ?
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) scanOne(row *sql.Row) (*models.UserRecord, error) {
	user := &models.UserRecord{}
	var createdAt int64
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	return user, nil
}
