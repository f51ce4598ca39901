package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a file record. The UNIQUE (owner_id, filename) constraint
// is the authority on duplicates: a violation — including one caused by a
// concurrent upload that won the race — yields ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query :=
		`INSERT INTO files (owner_id, filename, storage_path, size)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.OwnerID, file.Filename, file.StoragePath, file.Size).Scan(&file.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// GetByOwnerAndFilename returns the record for (ownerID, filename) or
// ErrorNotFound.
func (r *PostgresRepository) GetByOwnerAndFilename(ctx context.Context, ownerID, filename string) (*models.File, error) {
	query :=
		`SELECT id, owner_id, filename, storage_path, size FROM files
		 WHERE owner_id = $1 AND filename = $2
		 `

	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, ownerID, filename).Scan(
		&file.ID, &file.OwnerID, &file.Filename, &file.StoragePath, &file.Size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// ListByOwner returns all file records for the owner, ordered by filename.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	query :=
		`SELECT id, owner_id, filename, storage_path, size FROM files
		 WHERE owner_id = $1
		 ORDER BY filename
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Filename, &item.StoragePath, &item.Size); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update persists the record's filename and storage path by id. Renaming
// onto an existing (owner, filename) pair violates the unique constraint
// and yields ErrorAlreadyExists; a vanished record yields ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, file *models.File) error {
	query :=
		`UPDATE files SET filename = $1, storage_path = $2
		 WHERE id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, file.Filename, file.StoragePath, file.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the record for (ownerID, filename). ErrorNotFound when no
// row matches.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, filename string) error {
	query := `DELETE FROM files WHERE owner_id = $1 AND filename = $2`

	res, err := r.db.ExecContext(ctx, query, ownerID, filename)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
