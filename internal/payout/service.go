package payout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/givecircle/givecircle-backend/internal/auditlog"
	"github.com/givecircle/givecircle-backend/internal/beneficiary"
	"github.com/givecircle/givecircle-backend/internal/donation"
	"github.com/givecircle/givecircle-backend/internal/settlement"
	"github.com/shopspring/decimal"
)

// Alerter notifies finance staff when a period contains reconciliation
// mismatches. Implementations must be safe to call with zero records.
type Alerter interface {
	SendReconciliationAlert(periodMonth string, records []PayoutRecord)
}

type Service interface {
	GeneratePayoutReport(ctx context.Context, periodMonth string) (*PayoutReport, error)
	ExportPayoutReport(ctx context.Context, periodMonth, format string, userID *uint, ip string) ([]byte, string, string, error)
	UpdatePayoutStatus(ctx context.Context, beneficiaryID uint, periodMonth string, req TransitionRequest, userID *uint, ip string) (*PayoutState, error)
}

type service struct {
	engine          *Engine
	donationRepo    donation.Repository
	settlementRepo  settlement.Repository
	beneficiaryRepo beneficiary.Repository
	payoutRepo      Repository
	exporter        ReportExporter
	cache           ReportCache
	auditSvc        auditlog.Service
	alerter         Alerter
}

func NewService(
	engine *Engine,
	donationRepo donation.Repository,
	settlementRepo settlement.Repository,
	beneficiaryRepo beneficiary.Repository,
	payoutRepo Repository,
	exporter ReportExporter,
	cache ReportCache,
	auditSvc auditlog.Service,
	alerter Alerter,
) Service {
	return &service{
		engine:          engine,
		donationRepo:    donationRepo,
		settlementRepo:  settlementRepo,
		beneficiaryRepo: beneficiaryRepo,
		payoutRepo:      payoutRepo,
		exporter:        exporter,
		cache:           cache,
		auditSvc:        auditSvc,
		alerter:         alerter,
	}
}

// ==============================
// Report generation
// ==============================

func (s *service) GeneratePayoutReport(ctx context.Context, periodMonth string) (*PayoutReport, error) {
	period, err := PeriodFromMonth(periodMonth)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, periodMonth); ok {
		return cached, nil
	}

	beneficiaries, err := s.beneficiaryRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load beneficiaries: %w", err)
	}

	// The donation store is the one source this report cannot do
	// without. When it is unreachable the report says so explicitly
	// instead of inventing numbers.
	events, err := s.donationRepo.ListSettledInPeriod(ctx, period.Start, period.End)
	if err != nil {
		log.Printf("❌ Donation source unavailable for %s: %v", periodMonth, err)
		return &PayoutReport{
			PeriodMonth: periodMonth,
			DataSource:  DataSourceUnavailable,
			Records:     []PayoutRecord{},
			GeneratedAt: time.Now(),
		}, nil
	}

	eventsByBeneficiary := make(map[uint][]donation.Event)
	for _, ev := range events {
		eventsByBeneficiary[ev.BeneficiaryID] = append(eventsByBeneficiary[ev.BeneficiaryID], ev)
	}

	// Settlement data is optional input: when the store is unreachable
	// the report still generates and every record reconciles pending,
	// the same as a period the processor has not reported yet.
	settlements, err := s.settlementRepo.GetByPeriod(ctx, periodMonth)
	if err != nil {
		log.Printf("⚠️ Settlement source unavailable for %s, reconciliation pending: %v", periodMonth, err)
		settlements = nil
	}
	settlementByBeneficiary := make(map[uint]settlement.Settlement, len(settlements))
	for _, st := range settlements {
		settlementByBeneficiary[st.BeneficiaryID] = st
	}

	if err := s.seedPayoutStates(ctx, beneficiaries, periodMonth); err != nil {
		return nil, err
	}
	states, err := s.payoutRepo.GetByPeriod(ctx, periodMonth)
	if err != nil {
		return nil, err
	}
	stateByBeneficiary := make(map[uint]PayoutState, len(states))
	for _, st := range states {
		stateByBeneficiary[st.BeneficiaryID] = st
	}

	records := make([]PayoutRecord, 0, len(beneficiaries))
	var needsReview []PayoutRecord
	for _, b := range beneficiaries {
		record, err := s.buildRecord(b, period, eventsByBeneficiary[b.ID], settlementByBeneficiary, stateByBeneficiary)
		if err != nil {
			return nil, fmt.Errorf("failed to build payout record for beneficiary %d: %w", b.ID, err)
		}
		if record.Reconciliation.Status == ReconciliationNeedsReview {
			needsReview = append(needsReview, record)
		}
		records = append(records, record)
	}

	report := &PayoutReport{
		PeriodMonth: periodMonth,
		DataSource:  DataSourceReal,
		Records:     records,
		GeneratedAt: time.Now(),
	}
	s.cache.Set(ctx, report)

	if len(needsReview) > 0 && s.alerter != nil {
		go s.alerter.SendReconciliationAlert(periodMonth, needsReview)
	}

	return report, nil
}

func (s *service) buildRecord(
	b beneficiary.Beneficiary,
	period Period,
	events []donation.Event,
	settlements map[uint]settlement.Settlement,
	states map[uint]PayoutState,
) (PayoutRecord, error) {
	summary, err := s.engine.Aggregate(events, b.ID, period)
	if err != nil {
		return PayoutRecord{}, err
	}

	ccFees := decimal.Zero
	var settlementAmount *decimal.Decimal
	if st, ok := settlements[b.ID]; ok {
		ccFees = st.CCProcessingFees
		amount := st.Amount
		settlementAmount = &amount
	}

	fees := s.engine.ComputeFees(summary, ccFees)
	split := s.engine.Split(fees.NetAmount)
	reconciliation := s.engine.Reconcile(summary.TotalDonations(), settlementAmount)

	record := PayoutRecord{
		BeneficiaryID:   b.ID,
		BeneficiaryName: b.Name,
		Summary:         summary,
		Fees:            fees,
		Split:           split,
		Reconciliation:  reconciliation,
		BankInfo:        b.BankInfoView(),
		PaymentMethod:   b.PaymentMethod,
		PayoutStatus:    StatusPending,
	}
	if record.PaymentMethod == "" {
		record.PaymentMethod = beneficiary.MethodCheck
	}

	if state, ok := states[b.ID]; ok {
		record.PayoutStatus = state.Status
		record.PayoutDate = state.PayoutDate
		record.Notes = state.Notes
		if state.PaymentMethod != "" {
			record.PaymentMethod = state.PaymentMethod
		}
	}

	if !b.HasBankInfo {
		record.Flags = append(record.Flags, FlagNoBankInfo)
	}

	return record, nil
}

func (s *service) seedPayoutStates(ctx context.Context, beneficiaries []beneficiary.Beneficiary, periodMonth string) error {
	ids := make([]uint, 0, len(beneficiaries))
	methods := make(map[uint]string, len(beneficiaries))
	for _, b := range beneficiaries {
		ids = append(ids, b.ID)
		method := b.PaymentMethod
		if method == "" || !b.HasBankInfo {
			method = beneficiary.MethodCheck
		}
		methods[b.ID] = method
	}
	return s.payoutRepo.EnsureForPeriod(ctx, ids, periodMonth, func(id uint) string {
		return methods[id]
	})
}

// ==============================
// Export
// ==============================

func (s *service) ExportPayoutReport(ctx context.Context, periodMonth, format string, userID *uint, ip string) ([]byte, string, string, error) {
	report, err := s.GeneratePayoutReport(ctx, periodMonth)
	if err != nil {
		return nil, "", "", err
	}

	period, err := PeriodFromMonth(periodMonth)
	if err != nil {
		return nil, "", "", err
	}

	data, filename, contentType, err := s.exporter.Export(format, period, report.Records)
	if err != nil {
		return nil, "", "", err
	}

	details := map[string]interface{}{
		"period":      periodMonth,
		"format":      format,
		"row_count":   len(report.Records),
		"data_source": string(report.DataSource),
	}
	if err := s.auditSvc.LogAction(ctx, userID, nil, auditlog.ActionReportExported, details, ip, "success"); err != nil {
		log.Printf("⚠️ Failed to audit report export: %v", err)
	}

	return data, filename, contentType, nil
}

// ==============================
// Lifecycle transitions
// ==============================

func (s *service) UpdatePayoutStatus(ctx context.Context, beneficiaryID uint, periodMonth string, req TransitionRequest, userID *uint, ip string) (*PayoutState, error) {
	if _, err := PeriodFromMonth(periodMonth); err != nil {
		return nil, err
	}

	b, err := s.beneficiaryRepo.GetByID(ctx, beneficiaryID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("beneficiary %d not found", beneficiaryID)
	}

	state, err := s.payoutRepo.GetByBeneficiaryAndPeriod(ctx, beneficiaryID, periodMonth)
	if err != nil {
		return nil, err
	}
	current := StatusPending
	if state != nil {
		current = state.Status
	} else {
		// Transition requested before the period report ever ran.
		if err := s.seedPayoutStates(ctx, []beneficiary.Beneficiary{*b}, periodMonth); err != nil {
			return nil, err
		}
	}

	result, err := ApplyTransition(current, b.BankInfoView(), req)
	if err != nil {
		details := map[string]interface{}{
			"period": periodMonth,
			"from":   string(current),
			"to":     string(req.Target),
			"error":  err.Error(),
		}
		if auditErr := s.auditSvc.LogAction(ctx, userID, &beneficiaryID, auditlog.ActionPayoutStatusRejected, details, ip, "failure"); auditErr != nil {
			log.Printf("⚠️ Failed to audit rejected transition: %v", auditErr)
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"status":         result.To,
		"payment_method": result.PaymentMethod,
	}
	if req.PayoutDate != nil {
		updates["payout_date"] = req.PayoutDate
	}
	if req.Notes != nil {
		updates["notes"] = req.Notes
	}
	if err := s.payoutRepo.UpdateState(ctx, beneficiaryID, periodMonth, updates); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, periodMonth)

	details := map[string]interface{}{
		"period":         periodMonth,
		"from":           string(result.From),
		"to":             string(result.To),
		"payment_method": result.PaymentMethod,
	}
	if len(result.Flags) > 0 {
		details["flags"] = result.Flags
	}
	if err := s.auditSvc.LogAction(ctx, userID, &beneficiaryID, auditlog.ActionPayoutStatusChanged, details, ip, "success"); err != nil {
		log.Printf("⚠️ Failed to audit status change: %v", err)
	}

	updated, err := s.payoutRepo.GetByBeneficiaryAndPeriod(ctx, beneficiaryID, periodMonth)
	if err != nil {
		return nil, err
	}
	return updated, nil
}
