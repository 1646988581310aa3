package donation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation statuses as reported by the payment pipeline. Only settled
// donations participate in payout math.
const (
	StatusPending  = "PENDING"
	StatusSettled  = "SETTLED"
	StatusFailed   = "FAILED"
	StatusRefunded = "REFUNDED"
)

// Event represents a single donation to a beneficiary. The donation
// pipeline owns these rows; this service reads them to build payout
// reports and never mutates them.
type Event struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	BeneficiaryID uint            `gorm:"index;not null" json:"beneficiary_id"`
	DonorName     string          `gorm:"size:100" json:"donor_name"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Recurring     bool            `gorm:"not null;default:false" json:"recurring"`
	Status        string          `gorm:"size:20;not null;index" json:"status"`
	OrderID       string          `gorm:"size:64;index" json:"order_id"`
	DonatedAt     time.Time       `gorm:"index" json:"donated_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName overrides table name for Event
func (Event) TableName() string {
	return "donations"
}
