package payout

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists payout lifecycle state. Everything else in a
// payout record is recomputed from donations and settlements on read.
type Repository interface {
	GetByPeriod(ctx context.Context, periodMonth string) ([]PayoutState, error)
	GetByBeneficiaryAndPeriod(ctx context.Context, beneficiaryID uint, periodMonth string) (*PayoutState, error)
	EnsureForPeriod(ctx context.Context, beneficiaryIDs []uint, periodMonth string, defaultMethod func(beneficiaryID uint) string) error
	UpdateState(ctx context.Context, beneficiaryID uint, periodMonth string, updates map[string]interface{}) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByPeriod(ctx context.Context, periodMonth string) ([]PayoutState, error) {
	var states []PayoutState
	err := r.db.WithContext(ctx).
		Where("period_month = ?", periodMonth).
		Order("beneficiary_id ASC").
		Find(&states).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payout states for %s: %w", periodMonth, err)
	}
	return states, nil
}

func (r *repository) GetByBeneficiaryAndPeriod(ctx context.Context, beneficiaryID uint, periodMonth string) (*PayoutState, error) {
	var state PayoutState
	err := r.db.WithContext(ctx).
		Where("beneficiary_id = ? AND period_month = ?", beneficiaryID, periodMonth).
		First(&state).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payout state: %w", err)
	}
	return &state, nil
}

// EnsureForPeriod creates missing pending rows for the period. Existing
// rows are left untouched so operator transitions survive report reruns.
func (r *repository) EnsureForPeriod(ctx context.Context, beneficiaryIDs []uint, periodMonth string, defaultMethod func(beneficiaryID uint) string) error {
	if len(beneficiaryIDs) == 0 {
		return nil
	}

	now := time.Now()
	states := make([]PayoutState, 0, len(beneficiaryIDs))
	for _, id := range beneficiaryIDs {
		states = append(states, PayoutState{
			BeneficiaryID: id,
			PeriodMonth:   periodMonth,
			Status:        StatusPending,
			PaymentMethod: defaultMethod(id),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "beneficiary_id"}, {Name: "period_month"}},
			DoNothing: true,
		}).
		Create(&states).Error
	if err != nil {
		return fmt.Errorf("failed to seed payout states for %s: %w", periodMonth, err)
	}
	return nil
}

func (r *repository) UpdateState(ctx context.Context, beneficiaryID uint, periodMonth string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&PayoutState{}).
		Where("beneficiary_id = ? AND period_month = ?", beneficiaryID, periodMonth).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update payout state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no payout state found for beneficiary %d in %s", beneficiaryID, periodMonth)
	}
	return nil
}
