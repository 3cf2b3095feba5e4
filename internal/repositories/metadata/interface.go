package metadata

import (
	"context"
)

// Repository is a small key/value store for client-side state such as the
// current session token.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
