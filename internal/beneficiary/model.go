package beneficiary

import (
	"time"

	"gorm.io/gorm"
)

// Payment methods for beneficiary payouts.
const (
	MethodDirectDeposit = "direct_deposit"
	MethodCheck         = "check"
)

// Beneficiary is an organization or individual receiving donation payouts.
// Bank identifiers are stored only as masked trailing fragments; the full
// account number is never persisted and never redisplayed after intake.
type Beneficiary struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	Email         string         `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone         string         `gorm:"size:20" json:"phone"`
	Status        string         `gorm:"size:20;default:active;index" json:"status"`
	HasBankInfo   bool           `gorm:"not null;default:false" json:"has_bank_info"`
	PaymentMethod string         `gorm:"size:20;default:check" json:"payment_method"`
	BankName      string         `gorm:"size:100" json:"bank_name"`
	AccountLast4  string         `gorm:"size:4" json:"account_last4"`
	RoutingLast4  string         `gorm:"size:4" json:"routing_last4"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Beneficiary model
func (Beneficiary) TableName() string {
	return "beneficiaries"
}

// BankInfo is the payout-relevant view of a beneficiary's banking state.
type BankInfo struct {
	HasBankInfo   bool   `json:"has_bank_info"`
	PaymentMethod string `json:"payment_method"`
	BankName      string `json:"bank_name,omitempty"`
	AccountLast4  string `json:"account_last4,omitempty"`
	RoutingLast4  string `json:"routing_last4,omitempty"`
}

// BankInfoView returns the masked banking state for payout computation.
func (b *Beneficiary) BankInfoView() BankInfo {
	return BankInfo{
		HasBankInfo:   b.HasBankInfo,
		PaymentMethod: b.PaymentMethod,
		BankName:      b.BankName,
		AccountLast4:  b.AccountLast4,
		RoutingLast4:  b.RoutingLast4,
	}
}

// UpdateBankInfoRequest carries the full identifiers exactly once, at
// intake. Only the masked fragments survive validation.
type UpdateBankInfoRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=direct_deposit check"`
	BankName      string `json:"bank_name"`
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	IPAddress     string `json:"-"`
}
