package settlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sources a settlement row can arrive from.
const (
	SourceKafka     = "kafka"
	SourceProcessor = "processor"
	SourceManual    = "manual"
)

// Settlement is the processor-reported collection total for one
// beneficiary in one calendar month. Late corrections upsert the same
// row; reconciliation always recomputes from the latest amounts.
type Settlement struct {
	ID                    uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	BeneficiaryID         uint            `gorm:"uniqueIndex:idx_settlement_period;not null" json:"beneficiary_id"`
	PeriodMonth           string          `gorm:"size:7;uniqueIndex:idx_settlement_period;not null" json:"period_month"` // YYYY-MM
	Amount                decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CCProcessingFees      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"cc_processing_fees"`
	ProcessorSettlementID string          `gorm:"size:64;index" json:"processor_settlement_id"`
	Source                string          `gorm:"size:20;not null" json:"source"`
	ReportedAt            time.Time       `json:"reported_at"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// TableName overrides table name for Settlement
func (Settlement) TableName() string {
	return "settlements"
}

// Message is the wire shape of a settlement event, both on the Kafka
// feed and on the manual backfill endpoint. Source is set by the intake
// path, never by the sender.
type Message struct {
	BeneficiaryID         uint   `json:"beneficiary_id"`
	PeriodMonth           string `json:"period_month"`
	Amount                string `json:"amount"`
	CCProcessingFees      string `json:"cc_processing_fees,omitempty"`
	ProcessorSettlementID string `json:"processor_settlement_id,omitempty"`
	ReportedAt            string `json:"reported_at,omitempty"`
	Source                string `json:"-"`
}
