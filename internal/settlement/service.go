package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/givecircle/givecircle-backend/internal/auditlog"
)

// ReportCacheInvalidator drops cached payout reports for a period.
// Settlement writes change that period's reconciliation, so the stale
// report must not outlive the write.
type ReportCacheInvalidator interface {
	Invalidate(ctx context.Context, periodMonth string)
}

type Service interface {
	// Ingest validates and stores one settlement message. When the
	// message names a processor settlement ID and a gateway is configured,
	// the processor's own figure wins over the message amount.
	Ingest(ctx context.Context, msg Message) error
	GetByPeriod(ctx context.Context, periodMonth string) ([]Settlement, error)
}

type service struct {
	repo     Repository
	gateway  ProcessorGateway
	auditSvc auditlog.Service
	cache    ReportCacheInvalidator
}

func NewService(repo Repository, gateway ProcessorGateway, auditSvc auditlog.Service, cache ReportCacheInvalidator) Service {
	return &service{
		repo:     repo,
		gateway:  gateway,
		auditSvc: auditSvc,
		cache:    cache,
	}
}

func (s *service) Ingest(ctx context.Context, msg Message) error {
	if msg.BeneficiaryID == 0 {
		return errors.New("settlement message missing beneficiary_id")
	}
	if _, err := time.Parse("2006-01", msg.PeriodMonth); err != nil {
		return fmt.Errorf("settlement message has invalid period_month %q: %w", msg.PeriodMonth, err)
	}

	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return fmt.Errorf("settlement message has invalid amount %q: %w", msg.Amount, err)
	}
	if amount.IsNegative() {
		return fmt.Errorf("settlement message has negative amount %s", msg.Amount)
	}

	ccFees := decimal.Zero
	if msg.CCProcessingFees != "" {
		ccFees, err = decimal.NewFromString(msg.CCProcessingFees)
		if err != nil {
			return fmt.Errorf("settlement message has invalid cc_processing_fees %q: %w", msg.CCProcessingFees, err)
		}
	}

	source := msg.Source
	if source == "" {
		source = SourceKafka
	}
	if msg.ProcessorSettlementID != "" && s.gateway != nil {
		if procAmount, procFees, gerr := s.gateway.FetchSettlementAmount(msg.ProcessorSettlementID); gerr == nil {
			amount = procAmount
			if procFees.IsPositive() {
				ccFees = procFees
			}
			source = SourceProcessor
		} else {
			log.Printf("⚠️ Processor cross-check failed for settlement %s: %v", msg.ProcessorSettlementID, gerr)
		}
	}

	reportedAt := time.Now()
	if msg.ReportedAt != "" {
		if t, perr := time.Parse(time.RFC3339, msg.ReportedAt); perr == nil {
			reportedAt = t
		}
	}

	row := &Settlement{
		BeneficiaryID:         msg.BeneficiaryID,
		PeriodMonth:           msg.PeriodMonth,
		Amount:                amount,
		CCProcessingFees:      ccFees,
		ProcessorSettlementID: msg.ProcessorSettlementID,
		Source:                source,
		ReportedAt:            reportedAt,
	}

	if err := s.repo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("failed to store settlement: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, msg.PeriodMonth)
	}

	if err := s.auditSvc.LogAction(ctx, nil, &msg.BeneficiaryID, auditlog.ActionSettlementIngested, map[string]interface{}{
		"period_month": msg.PeriodMonth,
		"amount":       amount.String(),
		"source":       source,
	}, "", "success"); err != nil {
		log.Printf("⚠️ Failed to audit settlement ingest: %v", err)
	}

	return nil
}

func (s *service) GetByPeriod(ctx context.Context, periodMonth string) ([]Settlement, error) {
	return s.repo.GetByPeriod(ctx, periodMonth)
}
