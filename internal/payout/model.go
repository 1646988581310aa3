package payout

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/givecircle/givecircle-backend/internal/beneficiary"
)

// ==============================
// Period
// ==============================

// Period is one calendar month, the grain at which payouts are computed.
// Start is inclusive, End exclusive.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodError reports a malformed period label.
type PeriodError struct {
	Month string
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("invalid period %q, expected YYYY-MM", e.Month)
}

// PeriodFromMonth parses "YYYY-MM" into a calendar-month period.
func PeriodFromMonth(month string) (Period, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return Period{}, &PeriodError{Month: month}
	}
	return Period{
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}, nil
}

// Month returns the period label in YYYY-MM form.
func (p Period) Month() string {
	return p.Start.Format("2006-01")
}

// ==============================
// Pipeline value types
// ==============================

// PeriodDonationSummary is a beneficiary's aggregated donation activity
// for one period. Derived fresh on every report load, never persisted.
type PeriodDonationSummary struct {
	BeneficiaryID          uint            `json:"beneficiary_id"`
	PeriodStart            time.Time       `json:"period_start"`
	PeriodEnd              time.Time       `json:"period_end"`
	RecurringDonationTotal decimal.Decimal `json:"recurring_donation_total"`
	OneTimeDonationTotal   decimal.Decimal `json:"one_time_donation_total"`
	DonationCount          int             `json:"donation_count"`
}

// TotalDonations is always the sum of the two partitions.
func (s PeriodDonationSummary) TotalDonations() decimal.Decimal {
	return s.RecurringDonationTotal.Add(s.OneTimeDonationTotal)
}

// FeeBreakdown carries unrounded fee math. NetAmount goes negative when
// fees exceed donations; that anomaly must stay visible, so it is never
// clamped.
type FeeBreakdown struct {
	ServiceFees      decimal.Decimal `json:"service_fees"`
	CCProcessingFees decimal.Decimal `json:"cc_processing_fees"`
	NetAmount        decimal.Decimal `json:"net_amount"`
}

// PayoutSplit divides NetAmount between the platform and the beneficiary.
// PlatformFee + PayoutAmount equals NetAmount exactly in the unrounded
// domain. RoundingDrift is the at-most-one-cent difference between the
// independently rounded shares and the rounded net; it is surfaced here
// rather than silently absorbed into either share.
type PayoutSplit struct {
	PlatformFee   decimal.Decimal `json:"platform_fee"`
	PayoutAmount  decimal.Decimal `json:"payout_amount"`
	RoundingDrift decimal.Decimal `json:"rounding_drift"`
}

// ==============================
// Reconciliation
// ==============================

type ReconciliationStatus string

const (
	ReconciliationMatched     ReconciliationStatus = "matched"
	ReconciliationNeedsReview ReconciliationStatus = "needs_review"
	ReconciliationPending     ReconciliationStatus = "pending"
)

// ReconciliationResult compares our donation ledger against the
// processor's settlement figure. SettlementAmount is nil until the
// processor has reported for the period.
type ReconciliationResult struct {
	SettlementAmount *decimal.Decimal     `json:"settlement_amount"`
	Difference       decimal.Decimal      `json:"difference"`
	Status           ReconciliationStatus `json:"status"`
}

// ==============================
// Payout lifecycle
// ==============================

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// DataSource tags whether a report was computed from real donation data.
// There is no demo fallback: an unavailable source yields an explicitly
// empty report, never fabricated numbers.
type DataSource string

const (
	DataSourceReal        DataSource = "real"
	DataSourceUnavailable DataSource = "unavailable"
)

// FlagNoBankInfo marks a payout that proceeds by paper check because the
// beneficiary has no banking details on file.
const FlagNoBankInfo = "no bank info — will be paid by check"

// ==============================
// Persisted state
// ==============================

// PayoutState holds the only fields this subsystem is the system of
// record for: lifecycle status, payout date, notes, and the effective
// payment method for the period. Everything else on a PayoutRecord is a
// derived read model over donations, settlements, and beneficiaries.
type PayoutState struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	BeneficiaryID uint       `gorm:"uniqueIndex:idx_payout_period;not null" json:"beneficiary_id"`
	PeriodMonth   string     `gorm:"size:7;uniqueIndex:idx_payout_period;not null" json:"period_month"`
	Status        Status     `gorm:"size:20;not null;default:pending" json:"status"`
	PaymentMethod string     `gorm:"size:20" json:"payment_method"`
	PayoutDate    *time.Time `json:"payout_date"`
	Notes         *string    `gorm:"size:500" json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName overrides table name for PayoutState
func (PayoutState) TableName() string {
	return "payout_states"
}

// ==============================
// Aggregate record and report
// ==============================

// PayoutRecord is the full per-beneficiary, per-period payout view the
// reporting screen and exports consume.
type PayoutRecord struct {
	BeneficiaryID   uint                  `json:"beneficiary_id"`
	BeneficiaryName string                `json:"beneficiary_name"`
	Summary         PeriodDonationSummary `json:"summary"`
	Fees            FeeBreakdown          `json:"fees"`
	Split           PayoutSplit           `json:"split"`
	Reconciliation  ReconciliationResult  `json:"reconciliation"`
	BankInfo        beneficiary.BankInfo  `json:"bank_info"`
	PaymentMethod   string                `json:"payment_method"`
	PayoutStatus    Status                `json:"payout_status"`
	PayoutDate      *time.Time            `json:"payout_date,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
	Flags           []string              `json:"flags,omitempty"`
}

// PayoutReport is one period's complete record set plus its provenance.
type PayoutReport struct {
	PeriodMonth string         `json:"period_month"`
	DataSource  DataSource     `json:"data_source"`
	Records     []PayoutRecord `json:"records"`
	GeneratedAt time.Time      `json:"generated_at"`
}
