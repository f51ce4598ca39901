package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// PostgresRepository implements token storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists a freshly issued token.
func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) (*models.Token, error) {
	query :=
		`INSERT INTO tokens (user_id, token, expires_at, revoked)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		token.UserID, token.Token, token.ExpiresAt, token.Revoked).Scan(&token.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

// FindByToken returns the token row for the given value or ErrorNotFound.
func (r *PostgresRepository) FindByToken(ctx context.Context, value string) (*models.Token, error) {
	query :=
		`SELECT id, user_id, token, expires_at, revoked FROM tokens
		 WHERE token = $1
		 `

	token := &models.Token{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&token.ID, &token.UserID, &token.Token, &token.ExpiresAt, &token.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

// Revoke marks the token as revoked. Revoking an unknown token affects no
// rows and is not an error; logout must stay idempotent.
func (r *PostgresRepository) Revoke(ctx context.Context, value string) error {
	query := `UPDATE tokens SET revoked = TRUE WHERE token = $1`

	if _, err := r.db.ExecContext(ctx, query, value); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpiredBefore removes token rows that expired before cutoff and
// returns how many were deleted.
func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM tokens WHERE expires_at < $1`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
