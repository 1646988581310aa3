package settlement

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Upsert replaces the amount for a beneficiary+period pair so that a
	// late-arriving correction simply overwrites the earlier figure.
	Upsert(ctx context.Context, s *Settlement) error
	GetByPeriod(ctx context.Context, periodMonth string) ([]Settlement, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, s *Settlement) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "beneficiary_id"}, {Name: "period_month"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"amount", "cc_processing_fees", "processor_settlement_id", "source", "reported_at", "updated_at",
			}),
		}).
		Create(s).Error
}

func (r *repository) GetByPeriod(ctx context.Context, periodMonth string) ([]Settlement, error) {
	var out []Settlement
	err := r.db.WithContext(ctx).
		Where("period_month = ?", periodMonth).
		Find(&out).Error
	return out, err
}
