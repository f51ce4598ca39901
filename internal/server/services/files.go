package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/blob"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
)

// FileService coordinates the blob store and the metadata table. The two
// cannot be committed atomically, so every mutating operation is a two-step
// saga: do the filesystem step, then the metadata step, and run one
// compensating action if the second step fails. Ordering is chosen so that
// a crash between the steps leaves at worst an orphan blob, never a record
// pointing at missing bytes. A failed compensation is logged and the
// original error still returned; nothing is retried.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	logger      logging.Logger
}

// NewFileService constructs a FileService over the given repositories and
// blob store.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		logger:      logger.With("module", "file_service"),
	}
}

// Upload stores the bytes and then inserts the metadata record. If the
// insert fails — including losing a duplicate-name race to a concurrent
// upload, surfaced as ErrorAlreadyExists by the unique constraint — the
// written blob is removed again so the operation is all-or-nothing.
func (s *FileService) Upload(ctx context.Context, owner *models.User, filename string, data []byte) error {
	s.logger.Info(ctx, "uploading file", "filename", filename, "username", owner.UserName)

	path, err := s.blobs.Write(ctx, owner.UserName, filename, data)
	if err != nil {
		s.logger.Error(ctx, "writing blob", "filename", filename, "error", err.Error())
		return common.ErrorIO
	}

	record := &models.File{
		OwnerID:     owner.ID,
		Filename:    filename,
		StoragePath: path,
		Size:        int64(len(data)),
	}

	if _, err := s.repomanager.Files(s.db).Create(ctx, record); err != nil {
		if rbErr := s.blobs.Remove(ctx, path); rbErr != nil {
			s.logger.Warn(ctx, "rollback failed: written blob left behind",
				"filename", filename, "error", rbErr.Error())
		} else {
			s.logger.Warn(ctx, "rollback: removed written blob", "filename", filename)
		}
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "saving file record", "filename", filename, "error", err.Error())
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "file uploaded", "filename", filename, "size", record.Size)
	return nil
}

// Download returns the stored bytes for (owner, filename). A record whose
// blob has gone missing surfaces as ErrorIO, not as an empty result.
func (s *FileService) Download(ctx context.Context, owner *models.User, filename string) ([]byte, error) {
	record, err := s.repomanager.Files(s.db).GetByOwnerAndFilename(ctx, owner.ID, filename)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "download: file not found", "filename", filename, "username", owner.UserName)
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "looking up file record", "filename", filename, "error", err.Error())
		return nil, common.ErrorInternal
	}

	data, err := s.blobs.Read(ctx, record.StoragePath)
	if err != nil {
		s.logger.Error(ctx, "reading blob", "filename", filename, "error", err.Error())
		return nil, common.ErrorIO
	}
	return data, nil
}

// Delete removes the metadata record first and the blob second. A dangling
// blob without a record is a harmless orphan, while a record pointing at a
// missing blob would break Download — so the record is restored
// (best-effort) when the blob step fails.
func (s *FileService) Delete(ctx context.Context, owner *models.User, filename string) error {
	s.logger.Info(ctx, "deleting file", "filename", filename, "username", owner.UserName)

	repo := s.repomanager.Files(s.db)
	record, err := repo.GetByOwnerAndFilename(ctx, owner.ID, filename)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "delete: file not found", "filename", filename, "username", owner.UserName)
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "looking up file record", "filename", filename, "error", err.Error())
		return common.ErrorInternal
	}

	if err := repo.Delete(ctx, owner.ID, filename); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "deleting file record", "filename", filename, "error", err.Error())
		return common.ErrorInternal
	}

	if err := s.blobs.Remove(ctx, record.StoragePath); err != nil {
		s.logger.Error(ctx, "removing blob", "filename", filename, "error", err.Error())
		if _, rbErr := repo.Create(ctx, record); rbErr != nil {
			s.logger.Warn(ctx, "rollback failed: file record not restored",
				"filename", filename, "error", rbErr.Error())
		} else {
			s.logger.Warn(ctx, "rollback: restored file record", "filename", filename)
		}
		return common.ErrorIO
	}

	s.logger.Info(ctx, "file deleted", "filename", filename)
	return nil
}

// Rename moves the blob to its sibling path first, then updates the record
// inside a transaction that re-checks the target name; the unique
// constraint on (owner_id, filename) is the atomic backstop for concurrent
// renames. If the metadata step fails the blob is moved back (best-effort).
func (s *FileService) Rename(ctx context.Context, owner *models.User, oldFilename, newFilename string) error {
	s.logger.Info(ctx, "renaming file", "from", oldFilename, "to", newFilename, "username", owner.UserName)

	repo := s.repomanager.Files(s.db)
	record, err := repo.GetByOwnerAndFilename(ctx, owner.ID, oldFilename)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "rename: file not found", "filename", oldFilename, "username", owner.UserName)
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "looking up file record", "filename", oldFilename, "error", err.Error())
		return common.ErrorInternal
	}

	if _, err := repo.GetByOwnerAndFilename(ctx, owner.ID, newFilename); err == nil {
		s.logger.Warn(ctx, "rename: target name taken", "filename", newFilename, "username", owner.UserName)
		return common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "checking target name", "filename", newFilename, "error", err.Error())
		return common.ErrorInternal
	}

	oldPath := record.StoragePath
	newPath := s.blobs.SiblingPath(oldPath, newFilename)

	if err := s.blobs.Move(ctx, oldPath, newPath); err != nil {
		s.logger.Error(ctx, "moving blob", "from", oldFilename, "to", newFilename, "error", err.Error())
		return common.ErrorIO
	}

	record.Filename = newFilename
	record.StoragePath = newPath

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Files(tx)
		// Re-check under the transaction; a concurrent rename or upload may
		// have taken the name since the pre-check above.
		if _, err := repoTx.GetByOwnerAndFilename(ctx, owner.ID, newFilename); err == nil {
			return common.ErrorConflict
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return repoTx.Update(ctx, record)
	})
	if err != nil {
		if rbErr := s.blobs.Move(ctx, newPath, oldPath); rbErr != nil {
			s.logger.Warn(ctx, "rollback failed: blob left under new name",
				"filename", newFilename, "error", rbErr.Error())
		} else {
			s.logger.Warn(ctx, "rollback: moved blob back", "filename", oldFilename)
		}
		if errors.Is(err, common.ErrorConflict) || errors.Is(err, common.ErrorAlreadyExists) {
			return common.ErrorConflict
		}
		s.logger.Error(ctx, "updating file record", "filename", oldFilename, "error", err.Error())
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "file renamed", "from", oldFilename, "to", newFilename)
	return nil
}

// List returns the owner's file records ordered by filename. A negative
// limit means no limit; a limit smaller than the count truncates the
// result (zero included).
func (s *FileService) List(ctx context.Context, owner *models.User, limit int) ([]*models.File, error) {
	records, err := s.repomanager.Files(s.db).ListByOwner(ctx, owner.ID)
	if err != nil {
		s.logger.Error(ctx, "listing files", "username", owner.UserName, "error", err.Error())
		return nil, common.ErrorInternal
	}

	if limit >= 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}
