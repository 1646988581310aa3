package beneficiary

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Beneficiary, error)
	ListActive(ctx context.Context) ([]Beneficiary, error)
	ListWithFilters(ctx context.Context, filters Filters) ([]Beneficiary, int, error)
	// UpdateBankFields writes only the bank-info column group. Payout
	// status lives in payout_states and is a separate write group.
	UpdateBankFields(ctx context.Context, id uint, fields map[string]interface{}) error
}

// Filters for beneficiary listing
type Filters struct {
	Status string
	Search string
	Page   int
	Limit  int
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Beneficiary, error) {
	var b Beneficiary
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListActive(ctx context.Context) ([]Beneficiary, error) {
	var out []Beneficiary
	err := r.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) ListWithFilters(ctx context.Context, filters Filters) ([]Beneficiary, int, error) {
	var out []Beneficiary
	var total int64

	query := r.db.WithContext(ctx).Model(&Beneficiary{})

	if filters.Status != "" && filters.Status != "all" {
		query = query.Where("LOWER(status) = LOWER(?)", filters.Status)
	}
	if filters.Search != "" {
		searchTerm := "%" + filters.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Page > 0 && filters.Limit > 0 {
		offset := (filters.Page - 1) * filters.Limit
		query = query.Offset(offset).Limit(filters.Limit)
	}

	err := query.Order("name ASC").Find(&out).Error
	return out, int(total), err
}

func (r *repository) UpdateBankFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&Beneficiary{}).
		Where("id = ?", id).
		Updates(fields).Error
}
