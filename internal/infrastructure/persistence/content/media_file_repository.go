// Package content provides content store repositories over database/sql.
package content

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/persistence/database"
)

var _ repositories.MediaFileRepository = (*MediaFileRepository)(nil)

type MediaFileRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewMediaFileRepository(db *sql.DB, logger *logging.ChanneledLogger) *MediaFileRepository {
	return &MediaFileRepository{
		db:     db,
		logger: logger,
	}
}

const mediaFileColumns = `id, filename, path, url, size, mime_type, alt_text, uploaded_at`

func (r *MediaFileRepository) FindAll(ctx context.Context) ([]*content.MediaFile, error) {
	start := time.Now()
	query := `SELECT ` + mediaFileColumns + ` FROM media_files ORDER BY uploaded_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query media files: %w", err)
	}
	defer rows.Close()

	var files []*content.MediaFile
	for rows.Next() {
		file, err := scanMediaFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return files, nil
}

func (r *MediaFileRepository) FindByID(ctx context.Context, id string) (*content.MediaFile, error) {
	query := `SELECT ` + mediaFileColumns + ` FROM media_files WHERE id = ?`

	file, err := scanMediaFile(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (r *MediaFileRepository) Store(ctx context.Context, file *content.MediaFile) error {
	query := `INSERT INTO media_files (` + mediaFileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, file.ID, file.Filename, file.Path, file.URL,
		file.Size, file.MimeType, file.AltText, file.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert media file: %w", err)
	}
	return nil
}

func (r *MediaFileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return requireAffected(result, "media file "+id)
}

// DeleteIfPath deletes the row only while it still points at expectedPath.
func (r *MediaFileRepository) DeleteIfPath(ctx context.Context, id, expectedPath string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_files WHERE id = ? AND path = ?`, id, expectedPath)
	if err != nil {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return requireAffected(result, "media file "+id)
}

// RewritePath points every row stored under oldPath at the relocated object.
func (r *MediaFileRepository) RewritePath(ctx context.Context, oldPath, newPath, newFilename, newURL string) (int64, error) {
	query := `UPDATE media_files SET path = ?, filename = ?, url = ? WHERE path = ?`

	result, err := r.db.ExecContext(ctx, query, newPath, newFilename, newURL, oldPath)
	if err != nil {
		return 0, fmt.Errorf("failed to rewrite media file path: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMediaFile(row rowScanner) (*content.MediaFile, error) {
	var file content.MediaFile
	var altText, mimeType sql.NullString

	err := row.Scan(&file.ID, &file.Filename, &file.Path, &file.URL, &file.Size,
		&mimeType, &altText, &file.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan media file: %w", err)
	}

	file.MimeType = mimeType.String
	file.AltText = altText.String
	return &file, nil
}

func requireAffected(result sql.Result, what string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", what, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
	}
	return nil
}
