// Package tokens stores opaque session tokens.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.Token) (*models.Token, error)
	FindByToken(ctx context.Context, value string) (*models.Token, error)
	Revoke(ctx context.Context, value string) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
