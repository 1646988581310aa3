package payout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/givecircle/givecircle-backend/config"
	"github.com/givecircle/givecircle-backend/internal/donation"
)

// Engine holds the payout formula constants and implements the pure
// calculation pipeline: aggregate → fees → split → reconcile. Every step
// works in unrounded decimals; rounding happens only at export and
// display boundaries through RoundCurrency.
type Engine struct {
	FixedFeePerDonation  decimal.Decimal
	PlatformSharePercent decimal.Decimal
	ReconcileEpsilon     decimal.Decimal
	ReconcileDelta       decimal.Decimal
}

func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		FixedFeePerDonation:  cfg.FixedFeePerDonation,
		PlatformSharePercent: cfg.PlatformSharePercent,
		ReconcileEpsilon:     cfg.ReconcileEpsilon,
		ReconcileDelta:       cfg.ReconcileDelta,
	}
}

// RoundCurrency is the single rounding utility every presentation and
// export call site uses. Intermediate pipeline math never calls it.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Aggregate reduces a beneficiary's donation events for the period into
// a PeriodDonationSummary. The caller has already filtered events to the
// beneficiary and period; this step only partitions and sums. Zero
// events is valid input. Negative amounts are malformed and rejected
// here so they never reach the fee and split math.
func (e *Engine) Aggregate(events []donation.Event, beneficiaryID uint, period Period) (PeriodDonationSummary, error) {
	summary := PeriodDonationSummary{
		BeneficiaryID:          beneficiaryID,
		PeriodStart:            period.Start,
		PeriodEnd:              period.End,
		RecurringDonationTotal: decimal.Zero,
		OneTimeDonationTotal:   decimal.Zero,
	}

	for _, ev := range events {
		if ev.Amount.IsNegative() {
			return PeriodDonationSummary{}, fmt.Errorf("donation %d has negative amount %s", ev.ID, ev.Amount)
		}
		if ev.Recurring {
			summary.RecurringDonationTotal = summary.RecurringDonationTotal.Add(ev.Amount)
		} else {
			summary.OneTimeDonationTotal = summary.OneTimeDonationTotal.Add(ev.Amount)
		}
		// Every event counts toward the per-donation service fee,
		// regardless of partition.
		summary.DonationCount++
	}

	return summary, nil
}

// ComputeFees applies the flat per-donation service fee and the
// pass-through card processing fees. ccFees is zero when the donor
// covered processing at donation time. No filtering and no rounding
// happen here; NetAmount may be negative and stays that way.
func (e *Engine) ComputeFees(summary PeriodDonationSummary, ccFees decimal.Decimal) FeeBreakdown {
	serviceFees := e.FixedFeePerDonation.Mul(decimal.NewFromInt(int64(summary.DonationCount)))
	return FeeBreakdown{
		ServiceFees:      serviceFees,
		CCProcessingFees: ccFees,
		NetAmount:        summary.TotalDonations().Sub(serviceFees).Sub(ccFees),
	}
}

// Split divides netAmount by the platform share. The payout is computed
// as the remainder rather than an independent multiplication, so the two
// shares reconstruct the net exactly. RoundingDrift reports how far the
// independently rounded shares land from the rounded net (at most one
// minor currency unit either way).
func (e *Engine) Split(netAmount decimal.Decimal) PayoutSplit {
	platformFee := netAmount.Mul(e.PlatformSharePercent)
	payoutAmount := netAmount.Sub(platformFee)

	drift := RoundCurrency(platformFee).
		Add(RoundCurrency(payoutAmount)).
		Sub(RoundCurrency(netAmount))

	return PayoutSplit{
		PlatformFee:   platformFee,
		PayoutAmount:  payoutAmount,
		RoundingDrift: drift,
	}
}

// Reconcile classifies the match between our donation total and the
// processor's settled figure. A nil settlement means the processor has
// not reported yet: pending, no further computation. The classification
// is always recomputed from the source amounts, never patched from a
// previous result, so a late correction takes effect on the next run.
func (e *Engine) Reconcile(totalDonations decimal.Decimal, settlementAmount *decimal.Decimal) ReconciliationResult {
	if settlementAmount == nil {
		return ReconciliationResult{
			Difference: decimal.Zero,
			Status:     ReconciliationPending,
		}
	}

	diff := settlementAmount.Sub(totalDonations).Abs()

	status := ReconciliationPending
	switch {
	case diff.LessThan(e.ReconcileEpsilon):
		status = ReconciliationMatched
	case diff.GreaterThan(e.ReconcileDelta):
		status = ReconciliationNeedsReview
	}

	return ReconciliationResult{
		SettlementAmount: settlementAmount,
		Difference:       diff,
		Status:           status,
	}
}
