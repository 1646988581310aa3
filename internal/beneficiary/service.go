package beneficiary

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"github.com/givecircle/givecircle-backend/internal/auditlog"
)

// ValidationError names the field and rule a bank-info update violated.
// Nothing is written when one is returned.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Rule)
}

var (
	routingPattern = regexp.MustCompile(`^\d{9}$`)
	accountPattern = regexp.MustCompile(`^\d{4,17}$`)
)

// ReportCacheInvalidator drops cached payout reports. Bank info is not
// period-keyed, so a change here invalidates every cached period.
type ReportCacheInvalidator interface {
	InvalidateAll(ctx context.Context)
}

type Service interface {
	GetBeneficiary(ctx context.Context, id uint) (*Beneficiary, error)
	ListBeneficiaries(ctx context.Context, filters Filters) ([]Beneficiary, int, error)
	UpdateBankInfo(ctx context.Context, id uint, req UpdateBankInfoRequest, userID *uint) (*Beneficiary, error)
}

type service struct {
	repo     Repository
	auditSvc auditlog.Service
	cache    ReportCacheInvalidator
}

func NewService(repo Repository, auditSvc auditlog.Service, cache ReportCacheInvalidator) Service {
	return &service{repo: repo, auditSvc: auditSvc, cache: cache}
}

func (s *service) GetBeneficiary(ctx context.Context, id uint) (*Beneficiary, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListBeneficiaries(ctx context.Context, filters Filters) ([]Beneficiary, int, error) {
	return s.repo.ListWithFilters(ctx, filters)
}

// UpdateBankInfo validates and persists a beneficiary's banking details.
// Only the masked trailing fragments are stored; the full account and
// routing numbers are discarded after validation. The write never touches
// payout status; transitions are explicit, separate operations.
func (s *service) UpdateBankInfo(ctx context.Context, id uint, req UpdateBankInfoRequest, userID *uint) (*Beneficiary, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("beneficiary not found: %w", err)
	}

	if err := validateBankInfo(req); err != nil {
		if auditErr := s.auditSvc.LogAction(ctx, userID, &id, auditlog.ActionBankInfoUpdated, map[string]interface{}{
			"payment_method": req.PaymentMethod,
			"error":          err.Error(),
		}, req.IPAddress, "failure"); auditErr != nil {
			log.Printf("⚠️ Failed to audit rejected bank-info update: %v", auditErr)
		}
		return nil, err
	}

	fields := map[string]interface{}{
		"payment_method": req.PaymentMethod,
	}
	if req.PaymentMethod == MethodDirectDeposit {
		fields["has_bank_info"] = true
		fields["bank_name"] = req.BankName
		fields["routing_last4"] = maskTail(req.RoutingNumber)
		fields["account_last4"] = maskTail(req.AccountNumber)
	}

	if err := s.repo.UpdateBankFields(ctx, id, fields); err != nil {
		// Backend write failed: no local state changed, caller retries.
		if auditErr := s.auditSvc.LogAction(ctx, userID, &id, auditlog.ActionBankInfoUpdated, map[string]interface{}{
			"payment_method": req.PaymentMethod,
			"error":          err.Error(),
		}, req.IPAddress, "failure"); auditErr != nil {
			log.Printf("⚠️ Failed to audit failed bank-info update: %v", auditErr)
		}
		return nil, fmt.Errorf("failed to update bank info: %w", err)
	}

	// Payment method and flags feed every period's report.
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}

	if err := s.auditSvc.LogAction(ctx, userID, &id, auditlog.ActionBankInfoUpdated, map[string]interface{}{
		"payment_method": req.PaymentMethod,
		"bank_name":      req.BankName,
		"account_last4":  maskTail(req.AccountNumber),
	}, req.IPAddress, "success"); err != nil {
		log.Printf("⚠️ Failed to audit bank-info update: %v", err)
	}

	return s.repo.GetByID(ctx, id)
}

func validateBankInfo(req UpdateBankInfoRequest) error {
	if req.PaymentMethod != MethodDirectDeposit && req.PaymentMethod != MethodCheck {
		return &ValidationError{Field: "payment_method", Rule: "must be direct_deposit or check"}
	}
	if req.PaymentMethod == MethodCheck {
		// Check payouts need no bank identifiers.
		return nil
	}
	if !routingPattern.MatchString(req.RoutingNumber) {
		return &ValidationError{Field: "routing_number", Rule: "must be exactly 9 digits"}
	}
	if !accountPattern.MatchString(req.AccountNumber) {
		return &ValidationError{Field: "account_number", Rule: "must be 4-17 digits"}
	}
	return nil
}

// maskTail keeps only the trailing fragment of a bank identifier.
func maskTail(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}
