package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/models"
)

type Repository interface {
	Create(ctx context.Context, email, passwordHash string, createdAt time.Time) (*models.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*models.UserRecord, error)
	GetByID(ctx context.Context, id int64) (*models.UserRecord, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}
