package postgres

import (
	"context"
	"fmt"

	"mmDiagnosis/business/diagnosis"
	"mmDiagnosis/domain"

	"gorm.io/gorm"
)

type DiagnosisEventRepository struct {
	DB *gorm.DB
}

func NewDiagnosisEventRepository(db *gorm.DB) *DiagnosisEventRepository {
	return &DiagnosisEventRepository{DB: db}
}

func (r *DiagnosisEventRepository) SaveEvent(ctx context.Context, event domain.DiagnosisEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to save diagnosis event: %w", err)
	}

	return nil
}

var _ diagnosis.EventRepository = (*DiagnosisEventRepository)(nil)
