// Package services provides structured record image orchestration
package services

import (
	"context"
	"strings"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
)

// RecordService edits the image field of products, projects and categories.
type RecordService struct {
	records     repositories.RecordRepository
	revalidator Revalidator
	logger      *logging.ChanneledLogger
}

// NewRecordService creates a new record service singleton
func NewRecordService(records repositories.RecordRepository, revalidator Revalidator, logger *logging.ChanneledLogger) *RecordService {
	return &RecordService{
		records:     records,
		revalidator: revalidator,
		logger:      logger,
	}
}

// SetImage stores value (or clears the field when value is blank) and revalidates the
// table's content type.
func (s *RecordService) SetImage(ctx context.Context, table, id, value string) (*admin.RevalidationResult, error) {
	descriptor, err := domainservices.LookupRecordTable(table)
	if err != nil {
		return nil, err
	}
	if err := s.records.SetImage(ctx, table, id, strings.TrimSpace(value)); err != nil {
		return nil, err
	}
	s.logger.Content().Info("Record image updated", "table", table, "id", id, "field", descriptor.ImageField)

	return s.revalidator.Trigger(ctx, descriptor.ContentType, "")
}

// Delete removes a record and revalidates the table's content type.
func (s *RecordService) Delete(ctx context.Context, table, id string) (*admin.RevalidationResult, error) {
	descriptor, err := domainservices.LookupRecordTable(table)
	if err != nil {
		return nil, err
	}
	if err := s.records.Delete(ctx, table, id); err != nil {
		return nil, err
	}
	s.logger.Content().Info("Record deleted", "table", table, "id", id)

	return s.revalidator.Trigger(ctx, descriptor.ContentType, "")
}
