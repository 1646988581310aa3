package payout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givecircle/givecircle-backend/internal/auditlog"
	"github.com/givecircle/givecircle-backend/internal/beneficiary"
	"github.com/givecircle/givecircle-backend/internal/donation"
	"github.com/givecircle/givecircle-backend/internal/settlement"
)

// ==============================
// In-memory fakes
// ==============================

type fakeDonationRepo struct {
	events []donation.Event
	err    error
}

func (f *fakeDonationRepo) ListSettledInPeriod(_ context.Context, _, _ time.Time) ([]donation.Event, error) {
	return f.events, f.err
}

type fakeSettlementRepo struct {
	rows []settlement.Settlement
	err  error
}

func (f *fakeSettlementRepo) Upsert(_ context.Context, s *settlement.Settlement) error {
	f.rows = append(f.rows, *s)
	return nil
}

func (f *fakeSettlementRepo) GetByPeriod(_ context.Context, periodMonth string) ([]settlement.Settlement, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []settlement.Settlement
	for _, s := range f.rows {
		if s.PeriodMonth == periodMonth {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeBeneficiaryRepo struct {
	rows []beneficiary.Beneficiary
}

func (f *fakeBeneficiaryRepo) GetByID(_ context.Context, id uint) (*beneficiary.Beneficiary, error) {
	for _, b := range f.rows {
		if b.ID == id {
			row := b
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeBeneficiaryRepo) ListActive(_ context.Context) ([]beneficiary.Beneficiary, error) {
	return f.rows, nil
}

func (f *fakeBeneficiaryRepo) ListWithFilters(_ context.Context, _ beneficiary.Filters) ([]beneficiary.Beneficiary, int, error) {
	return f.rows, len(f.rows), nil
}

func (f *fakeBeneficiaryRepo) UpdateBankFields(_ context.Context, _ uint, _ map[string]interface{}) error {
	return nil
}

type fakePayoutRepo struct {
	states map[string]*PayoutState
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{states: make(map[string]*PayoutState)}
}

func stateKey(beneficiaryID uint, periodMonth string) string {
	return fmt.Sprintf("%d:%s", beneficiaryID, periodMonth)
}

func (f *fakePayoutRepo) GetByPeriod(_ context.Context, periodMonth string) ([]PayoutState, error) {
	var out []PayoutState
	for _, s := range f.states {
		if s.PeriodMonth == periodMonth {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakePayoutRepo) GetByBeneficiaryAndPeriod(_ context.Context, beneficiaryID uint, periodMonth string) (*PayoutState, error) {
	if s, ok := f.states[stateKey(beneficiaryID, periodMonth)]; ok {
		row := *s
		return &row, nil
	}
	return nil, nil
}

func (f *fakePayoutRepo) EnsureForPeriod(_ context.Context, beneficiaryIDs []uint, periodMonth string, defaultMethod func(uint) string) error {
	for _, id := range beneficiaryIDs {
		key := stateKey(id, periodMonth)
		if _, exists := f.states[key]; !exists {
			f.states[key] = &PayoutState{
				BeneficiaryID: id,
				PeriodMonth:   periodMonth,
				Status:        StatusPending,
				PaymentMethod: defaultMethod(id),
			}
		}
	}
	return nil
}

func (f *fakePayoutRepo) UpdateState(_ context.Context, beneficiaryID uint, periodMonth string, updates map[string]interface{}) error {
	s, ok := f.states[stateKey(beneficiaryID, periodMonth)]
	if !ok {
		return errors.New("no payout state found")
	}
	if v, ok := updates["status"]; ok {
		s.Status = v.(Status)
	}
	if v, ok := updates["payment_method"]; ok {
		s.PaymentMethod = v.(string)
	}
	if v, ok := updates["payout_date"]; ok {
		s.PayoutDate = v.(*time.Time)
	}
	if v, ok := updates["notes"]; ok {
		s.Notes = v.(*string)
	}
	return nil
}

type loggedAction struct {
	Action string
	Status string
}

type fakeAuditService struct {
	actions []loggedAction
}

func (f *fakeAuditService) LogAction(_ context.Context, _ *uint, _ *uint, action string, _ map[string]interface{}, _ string, status string) error {
	f.actions = append(f.actions, loggedAction{Action: action, Status: status})
	return nil
}

func (f *fakeAuditService) GetAuditLogs(_ context.Context, _ auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return &auditlog.PaginatedAuditLogs{}, nil
}

func (f *fakeAuditService) GetAuditLogByID(_ context.Context, _ uint) (*auditlog.AuditLogResponse, error) {
	return nil, nil
}

// ==============================
// Harness
// ==============================

type harness struct {
	svc         Service
	donations   *fakeDonationRepo
	settlements *fakeSettlementRepo
	bens        *fakeBeneficiaryRepo
	payouts     *fakePayoutRepo
	audit       *fakeAuditService
}

func newHarness() *harness {
	h := &harness{
		donations:   &fakeDonationRepo{},
		settlements: &fakeSettlementRepo{},
		bens:        &fakeBeneficiaryRepo{},
		payouts:     newFakePayoutRepo(),
		audit:       &fakeAuditService{},
	}
	h.svc = NewService(
		testEngine(),
		h.donations,
		h.settlements,
		h.bens,
		h.payouts,
		NewReportExporter(),
		NewNoopReportCache(),
		h.audit,
		nil,
	)
	return h
}

func activeBeneficiary(id uint, name string, hasBank bool) beneficiary.Beneficiary {
	method := beneficiary.MethodCheck
	if hasBank {
		method = beneficiary.MethodDirectDeposit
	}
	return beneficiary.Beneficiary{
		ID:            id,
		Name:          name,
		Status:        "active",
		HasBankInfo:   hasBank,
		PaymentMethod: method,
	}
}

// ==============================
// Report generation
// ==============================

func TestGeneratePayoutReport(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline with matching settlement", func(t *testing.T) {
		h := newHarness()
		h.bens.rows = []beneficiary.Beneficiary{activeBeneficiary(1, "Hope Shelter", true)}
		for i := 0; i < 16; i++ {
			h.donations.events = append(h.donations.events, donationEvent(uint(i+1), "250.00", true))
		}
		for i := 16; i < 20; i++ {
			h.donations.events = append(h.donations.events, donationEvent(uint(i+1), "250.00", false))
		}
		h.settlements.rows = []settlement.Settlement{{
			BeneficiaryID: 1,
			PeriodMonth:   "2026-07",
			Amount:        decimal.RequireFromString("5000.00"),
			Source:        settlement.SourceKafka,
		}}

		report, err := h.svc.GeneratePayoutReport(ctx, "2026-07")
		require.NoError(t, err)

		assert.Equal(t, DataSourceReal, report.DataSource)
		require.Len(t, report.Records, 1)

		r := report.Records[0]
		assert.Equal(t, "Hope Shelter", r.BeneficiaryName)
		assert.True(t, r.Fees.NetAmount.Equal(decimal.RequireFromString("4940.00")))
		assert.True(t, r.Split.PayoutAmount.Equal(decimal.RequireFromString("3952.00")))
		assert.Equal(t, ReconciliationMatched, r.Reconciliation.Status)
		assert.Equal(t, StatusPending, r.PayoutStatus)
	})

	t.Run("no settlement leaves reconciliation pending", func(t *testing.T) {
		h := newHarness()
		h.bens.rows = []beneficiary.Beneficiary{activeBeneficiary(1, "Hope Shelter", true)}
		h.donations.events = []donation.Event{donationEvent(1, "100.00", false)}

		report, err := h.svc.GeneratePayoutReport(ctx, "2026-07")
		require.NoError(t, err)

		r := report.Records[0]
		assert.Equal(t, ReconciliationPending, r.Reconciliation.Status)
		assert.Nil(t, r.Reconciliation.SettlementAmount)
	})

	t.Run("beneficiary with zero donations still gets a record", func(t *testing.T) {
		h := newHarness()
		h.bens.rows = []beneficiary.Beneficiary{
			activeBeneficiary(1, "Hope Shelter", true),
			activeBeneficiary(2, "River Clinic", true),
		}
		h.donations.events = []donation.Event{donationEvent(1, "100.00", false)}

		report, err := h.svc.GeneratePayoutReport(ctx, "2026-07")
		require.NoError(t, err)
		require.Len(t, report.Records, 2)

		quiet := report.Records[1]
		assert.Equal(t, uint(2), quiet.BeneficiaryID)
		assert.True(t, quiet.Summary.TotalDonations().IsZero())
		assert.True(t, quiet.Fees.ServiceFees.IsZero())
		assert.True(t, quiet.Split.PayoutAmount.IsZero())
	})

	t.Run("unreachable settlement store degrades to pending, not an error", func(t *testing.T) {
		h := newHarness()
		h.bens.rows = []beneficiary.Beneficiary{activeBeneficiary(1, "Hope Shelter", true)}
		h.donations.events = []donation.Event{donationEvent(1, "100.00", false)}
		h.settlements.err = errors.New("connection refused")

		report, err := h.svc.GeneratePayoutReport(ctx, "2026-07")
		require.NoError(t, err)

		assert.Equal(t, DataSourceReal, report.DataSource)
		require.Len(t, report.Records, 1)

		r := report.Records[0]
		assert.Equal(t, ReconciliationPending, r.Reconciliation.Status)
		assert.Nil(t, r.Reconciliation.SettlementAmount)
		// The calculable side of the report is intact.
		assert.True(t, r.Fees.NetAmount.Equal(decimal.RequireFromString("97.00")))
	})

	t.Run("unreachable donation store yields an explicitly empty report", func(t *testing.T) {
		h := newHarness()
		h.bens.rows = []beneficiary.Beneficiary{activeBeneficiary(1, "Hope Shelter", true)}
		h.donations.err = errors.New("connection refused")

		report, err := h.svc.GeneratePayoutReport(ctx, "2026-07")
		require.NoError(t, err)

		assert.Equal(t, DataSourceUnavailable, report.DataSource)
		assert.Empty(t, report.Records)
	})

	t.Run("missing bank info flags the record", func(t *testing.T) {
		h := newHarness()
		h.bens.rows = []beneficiary.Beneficiary{activeBeneficiary(1, "Cash Only Org", false)}

		report, err := h.svc.GeneratePayoutReport(ctx, "2026-07")
		require.NoError(t, err)

		r := report.Records[0]
		assert.Contains(t, r.Flags, FlagNoBankInfo)
		assert.Equal(t, beneficiary.MethodCheck, r.PaymentMethod)
	})

	t.Run("malformed period is rejected", func(t *testing.T) {
		h := newHarness()

		_, err := h.svc.GeneratePayoutReport(ctx, "July 2026")
		require.Error(t, err)

		var pErr *PeriodError
		assert.True(t, errors.As(err, &pErr))
	})

	t.Run("operator state survives report reruns", func(t *testing.T) {
		h := newHarness()
		h.bens.rows = []beneficiary.Beneficiary{activeBeneficiary(1, "Hope Shelter", true)}

		_, err := h.svc.GeneratePayoutReport(ctx, "2026-07")
		require.NoError(t, err)

		_, err = h.svc.UpdatePayoutStatus(ctx, 1, "2026-07", TransitionRequest{Target: StatusProcessing}, nil, "10.0.0.1")
		require.NoError(t, err)

		report, err := h.svc.GeneratePayoutReport(ctx, "2026-07")
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, report.Records[0].PayoutStatus)
	})
}

// ==============================
// Status transitions
// ==============================

func TestUpdatePayoutStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("legal transition persists and audits", func(t *testing.T) {
		h := newHarness()
		h.bens.rows = []beneficiary.Beneficiary{activeBeneficiary(1, "Hope Shelter", true)}
		date := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
		notes := "batch 44"

		state, err := h.svc.UpdatePayoutStatus(ctx, 1, "2026-07", TransitionRequest{
			Target:     StatusProcessing,
			PayoutDate: &date,
			Notes:      &notes,
		}, nil, "10.0.0.1")
		require.NoError(t, err)

		assert.Equal(t, StatusProcessing, state.Status)
		require.NotNil(t, state.PayoutDate)
		assert.Equal(t, date, *state.PayoutDate)
		require.NotNil(t, state.Notes)
		assert.Equal(t, "batch 44", *state.Notes)

		require.NotEmpty(t, h.audit.actions)
		assert.Equal(t, auditlog.ActionPayoutStatusChanged, h.audit.actions[len(h.audit.actions)-1].Action)
	})

	t.Run("illegal transition is rejected, audited, and leaves state untouched", func(t *testing.T) {
		h := newHarness()
		h.bens.rows = []beneficiary.Beneficiary{activeBeneficiary(1, "Hope Shelter", true)}

		_, err := h.svc.UpdatePayoutStatus(ctx, 1, "2026-07", TransitionRequest{Target: StatusProcessing}, nil, "")
		require.NoError(t, err)
		_, err = h.svc.UpdatePayoutStatus(ctx, 1, "2026-07", TransitionRequest{Target: StatusCompleted}, nil, "")
		require.NoError(t, err)

		_, err = h.svc.UpdatePayoutStatus(ctx, 1, "2026-07", TransitionRequest{Target: StatusCancelled}, nil, "")
		require.Error(t, err)

		var tErr *TransitionError
		require.True(t, errors.As(err, &tErr))
		assert.Equal(t, StatusCompleted, tErr.From)
		assert.Equal(t, StatusCancelled, tErr.To)

		rejected := h.audit.actions[len(h.audit.actions)-1]
		assert.Equal(t, auditlog.ActionPayoutStatusRejected, rejected.Action)
		assert.Equal(t, "failure", rejected.Status)

		state, err := h.payouts.GetByBeneficiaryAndPeriod(ctx, 1, "2026-07")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, state.Status)
	})

	t.Run("completing without bank info forces check and proceeds", func(t *testing.T) {
		h := newHarness()
		b := activeBeneficiary(1, "Cash Only Org", false)
		b.PaymentMethod = beneficiary.MethodDirectDeposit
		h.bens.rows = []beneficiary.Beneficiary{b}

		_, err := h.svc.UpdatePayoutStatus(ctx, 1, "2026-07", TransitionRequest{Target: StatusProcessing}, nil, "")
		require.NoError(t, err)
		state, err := h.svc.UpdatePayoutStatus(ctx, 1, "2026-07", TransitionRequest{Target: StatusCompleted}, nil, "")
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, state.Status)
		assert.Equal(t, beneficiary.MethodCheck, state.PaymentMethod)
	})

	t.Run("unknown beneficiary is an error", func(t *testing.T) {
		h := newHarness()

		_, err := h.svc.UpdatePayoutStatus(ctx, 42, "2026-07", TransitionRequest{Target: StatusProcessing}, nil, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

// ==============================
// Export
// ==============================

func TestExportPayoutReport(t *testing.T) {
	ctx := context.Background()

	h := newHarness()
	h.bens.rows = []beneficiary.Beneficiary{activeBeneficiary(1, "Hope Shelter", true)}
	h.donations.events = []donation.Event{donationEvent(1, "100.00", false)}

	data, filename, contentType, err := h.svc.ExportPayoutReport(ctx, "2026-07", FormatCSV, nil, "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "payouts_2026-07.csv", filename)
	assert.Equal(t, "text/csv", contentType)
	assert.NotEmpty(t, data)

	require.NotEmpty(t, h.audit.actions)
	assert.Equal(t, auditlog.ActionReportExported, h.audit.actions[len(h.audit.actions)-1].Action)
}
