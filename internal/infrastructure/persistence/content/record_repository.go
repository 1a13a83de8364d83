package content

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	"github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/persistence/database"
)

var _ repositories.RecordRepository = (*RecordRepository)(nil)

// RecordRepository reads and writes the image field of the structured record tables.
// Table and column names come from services.RecordTables, never from callers.
type RecordRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewRecordRepository(db *sql.DB, logger *logging.ChanneledLogger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger,
	}
}

func (r *RecordRepository) FindImageReferences(ctx context.Context, table string) ([]*content.ImageReference, error) {
	t, err := services.LookupRecordTable(table)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	query := fmt.Sprintf(`SELECT id, COALESCE(%s, ''), %s FROM %s WHERE %s IS NOT NULL AND %s <> '' ORDER BY id`,
		t.LabelField, t.ImageField, t.Name, t.ImageField, t.ImageField)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Name, err)
	}
	defer rows.Close()

	var refs []*content.ImageReference
	for rows.Next() {
		ref := &content.ImageReference{Table: t.Name, Field: t.ImageField}
		if err := rows.Scan(&ref.RecordID, &ref.Label, &ref.Value); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.Name, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return refs, nil
}

func (r *RecordRepository) SetImage(ctx context.Context, table, id, value string) error {
	t, err := services.LookupRecordTable(table)
	if err != nil {
		return err
	}

	var arg any = value
	if value == "" {
		arg = nil
	}
	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = ? WHERE id = ?`, t.Name, t.ImageField), arg, id)
	if err != nil {
		return fmt.Errorf("failed to update %s image: %w", t.Name, err)
	}
	return requireAffected(result, t.Name+" "+id)
}

// ClearImage nulls the image field only while it still holds expectedValue.
func (r *RecordRepository) ClearImage(ctx context.Context, table, id, expectedValue string) error {
	t, err := services.LookupRecordTable(table)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = NULL WHERE id = ? AND %s = ?`, t.Name, t.ImageField, t.ImageField),
		id, expectedValue)
	if err != nil {
		return fmt.Errorf("failed to clear %s image: %w", t.Name, err)
	}
	return requireAffected(result, t.Name+" "+id)
}

func (r *RecordRepository) ReplaceImage(ctx context.Context, table, oldValue, newValue string) (int64, error) {
	t, err := services.LookupRecordTable(table)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ?`, t.Name, t.ImageField, t.ImageField),
		newValue, oldValue)
	if err != nil {
		return 0, fmt.Errorf("failed to replace %s images: %w", t.Name, err)
	}
	return result.RowsAffected()
}

func (r *RecordRepository) Delete(ctx context.Context, table, id string) error {
	t, err := services.LookupRecordTable(table)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.Name), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.Name, err)
	}
	return requireAffected(result, t.Name+" "+id)
}
