package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/blogapp/internal/domain"
)

// FilesRoute is the path prefix the stored files are served under.
const FilesRoute = "/files/"

// FileStore keeps uploaded files as SQLite BLOBs. It implements
// domain.FileUploader; the returned URL is served by this application.
type FileStore struct {
	db  *sql.DB
	now func() time.Time
}

// Upload stores file under folder/<unix-millis>-<random>.<ext>.
func (s *FileStore) Upload(ctx context.Context, _ domain.Credentials, folder string, file domain.File) (*domain.Uploaded, error) {
	key := path.Join(folder, strconv.FormatInt(s.now().UnixMilli(), 10)+"-"+uuid.NewString()[:8]+path.Ext(file.Name))

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO file_blobs (storage_key, content_type, data, created_at) VALUES (?, ?, ?, ?)",
		key, file.ContentType, file.Data, s.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("save file blob: %w", err)
	}

	slog.Info("stored file", "key", key, "size", file.Size())
	return &domain.Uploaded{URL: FilesRoute + key, Path: key}, nil
}

// Get returns the stored file for key.
func (s *FileStore) Get(ctx context.Context, key string) (*domain.File, error) {
	f := domain.File{Name: path.Base(key)}
	err := s.db.QueryRowContext(ctx,
		"SELECT content_type, data FROM file_blobs WHERE storage_key = ?", key,
	).Scan(&f.ContentType, &f.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get file blob: %w", err)
	}
	return &f, nil
}

// Delete removes the file stored under key. Missing keys are not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM file_blobs WHERE storage_key = ?", key,
	)
	if err != nil {
		return fmt.Errorf("delete file blob: %w", err)
	}
	return nil
}
