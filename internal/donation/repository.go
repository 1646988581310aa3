package donation

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// ListSettledInPeriod returns every settled donation in the window,
	// ordered by beneficiary so callers can group in one pass.
	ListSettledInPeriod(ctx context.Context, from, to time.Time) ([]Event, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListSettledInPeriod(ctx context.Context, from, to time.Time) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("status = ? AND donated_at >= ? AND donated_at < ?", StatusSettled, from, to).
		Order("beneficiary_id ASC, donated_at ASC").
		Find(&events).Error
	return events, err
}
