package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	GetWithUser(ctx context.Context, id string) (*models.SessionWithUser, error)
	Touch(ctx context.Context, id string, now time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time, idle time.Duration) (int64, error)
}
