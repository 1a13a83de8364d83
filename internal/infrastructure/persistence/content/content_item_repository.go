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
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/security"
)

var _ repositories.ContentItemRepository = (*ContentItemRepository)(nil)

// ContentItemRepository stores page content keyed by (page, section, content_key).
type ContentItemRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
	now    func() time.Time
}

func NewContentItemRepository(db *sql.DB, logger *logging.ChanneledLogger) *ContentItemRepository {
	return &ContentItemRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

const contentItemColumns = `id, page, section, content_key, content_value, updated_at`

func (r *ContentItemRepository) FindByPage(ctx context.Context, page string) ([]*content.ContentItem, error) {
	query := `SELECT ` + contentItemColumns + ` FROM content_items WHERE page = ? ORDER BY section, content_key`
	return r.query(ctx, query, page)
}

func (r *ContentItemRepository) FindAll(ctx context.Context) ([]*content.ContentItem, error) {
	query := `SELECT ` + contentItemColumns + ` FROM content_items ORDER BY page, section, content_key`
	return r.query(ctx, query)
}

func (r *ContentItemRepository) query(ctx context.Context, query string, args ...any) ([]*content.ContentItem, error) {
	start := time.Now()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content items: %w", err)
	}
	defer rows.Close()

	var items []*content.ContentItem
	for rows.Next() {
		var item content.ContentItem
		var updatedAt sql.NullString
		if err := rows.Scan(&item.ID, &item.Page, &item.Section, &item.ContentKey,
			&item.ContentValue, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		item.UpdatedAt = updatedAt.String
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return items, nil
}

// Upsert writes the single live value for the item's composite key. ID and UpdatedAt
// are filled in on item.
func (r *ContentItemRepository) Upsert(ctx context.Context, item *content.ContentItem) error {
	if item.ID == "" {
		item.ID = security.GenerateULID()
	}
	if item.UpdatedAt == "" {
		item.UpdatedAt = r.now().Format(time.RFC3339Nano)
	}

	query := `INSERT INTO content_items (` + contentItemColumns + `) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (page, section, content_key)
		DO UPDATE SET content_value = excluded.content_value, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, item.ID, item.Page, item.Section, item.ContentKey,
		item.ContentValue, item.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert content item: %w", err)
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM content_items WHERE page = ? AND section = ? AND content_key = ?`,
		item.Page, item.Section, item.ContentKey).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to read back content item id: %w", err)
	}
	return nil
}

func (r *ContentItemRepository) Delete(ctx context.Context, page, section, key string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM content_items WHERE page = ? AND section = ? AND content_key = ?`, page, section, key)
	if err != nil {
		return fmt.Errorf("failed to delete content item: %w", err)
	}
	return requireAffected(result, fmt.Sprintf("content item %s/%s/%s", page, section, key))
}

// ClearValue blanks an item only while it still holds expectedValue.
func (r *ContentItemRepository) ClearValue(ctx context.Context, id, expectedValue string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE content_items SET content_value = '', updated_at = ? WHERE id = ? AND content_value = ?`,
		r.now().Format(time.RFC3339Nano), id, expectedValue)
	if err != nil {
		return fmt.Errorf("failed to clear content item: %w", err)
	}
	return requireAffected(result, "content item "+id)
}

// ReplaceValue rewrites every item whose value equals oldValue.
func (r *ContentItemRepository) ReplaceValue(ctx context.Context, oldValue, newValue string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE content_items SET content_value = ?, updated_at = ? WHERE content_value = ?`,
		newValue, r.now().Format(time.RFC3339Nano), oldValue)
	if err != nil {
		return 0, fmt.Errorf("failed to replace content values: %w", err)
	}
	return result.RowsAffected()
}
