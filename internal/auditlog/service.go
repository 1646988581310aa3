package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// Action names used across the payout subsystem. Transitions are never
// inferred from other field changes, so each mutating path logs its own
// action explicitly.
const (
	ActionPayoutStatusChanged  = "PAYOUT_STATUS_CHANGED"
	ActionPayoutStatusRejected = "PAYOUT_STATUS_REJECTED"
	ActionBankInfoUpdated      = "BANK_INFO_UPDATED"
	ActionReportExported       = "PAYOUT_REPORT_EXPORTED"
	ActionSettlementIngested   = "SETTLEMENT_INGESTED"
)

type Service interface {
	LogAction(ctx context.Context, userID *uint, beneficiaryID *uint, action string, details map[string]interface{}, ip string, status string) error
	GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error)
	GetAuditLogByID(ctx context.Context, id uint) (*AuditLogResponse, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// LogAction creates a new audit log entry
func (s *service) LogAction(ctx context.Context, userID *uint, beneficiaryID *uint, action string, details map[string]interface{}, ip string, status string) error {
	if details == nil {
		details = make(map[string]interface{})
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	log := &AuditLog{
		UserID:        userID,
		BeneficiaryID: beneficiaryID,
		Action:        action,
		Details:       string(detailsJSON),
		IPAddress:     ip,
		Status:        status,
	}

	return s.repo.Create(ctx, log)
}

// GetAuditLogs retrieves paginated audit logs with filters
func (s *service) GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error) {
	logs, total, err := s.repo.GetByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	if filter.Limit == 0 {
		totalPages = 0
	}

	return &PaginatedAuditLogs{
		Data:       logs,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetAuditLogByID retrieves a specific audit log by ID
func (s *service) GetAuditLogByID(ctx context.Context, id uint) (*AuditLogResponse, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("audit log not found: %w", err)
	}
	return log, nil
}
