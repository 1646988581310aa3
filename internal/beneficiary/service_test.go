package beneficiary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givecircle/givecircle-backend/internal/auditlog"
)

type fakeRepo struct {
	rows       map[uint]*Beneficiary
	lastFields map[string]interface{}
	updateErr  error
}

func newFakeRepo(rows ...Beneficiary) *fakeRepo {
	f := &fakeRepo{rows: make(map[uint]*Beneficiary)}
	for i := range rows {
		f.rows[rows[i].ID] = &rows[i]
	}
	return f
}

func (f *fakeRepo) GetByID(_ context.Context, id uint) (*Beneficiary, error) {
	b, ok := f.rows[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	row := *b
	return &row, nil
}

func (f *fakeRepo) ListActive(_ context.Context) ([]Beneficiary, error) {
	var out []Beneficiary
	for _, b := range f.rows {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeRepo) ListWithFilters(_ context.Context, _ Filters) ([]Beneficiary, int, error) {
	out, _ := f.ListActive(context.Background())
	return out, len(out), nil
}

func (f *fakeRepo) UpdateBankFields(_ context.Context, id uint, fields map[string]interface{}) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastFields = fields
	b := f.rows[id]
	if v, ok := fields["payment_method"]; ok {
		b.PaymentMethod = v.(string)
	}
	if v, ok := fields["has_bank_info"]; ok {
		b.HasBankInfo = v.(bool)
	}
	if v, ok := fields["bank_name"]; ok {
		b.BankName = v.(string)
	}
	if v, ok := fields["routing_last4"]; ok {
		b.RoutingLast4 = v.(string)
	}
	if v, ok := fields["account_last4"]; ok {
		b.AccountLast4 = v.(string)
	}
	return nil
}

type fakeAudit struct {
	statuses []string
}

func (f *fakeAudit) LogAction(_ context.Context, _ *uint, _ *uint, _ string, _ map[string]interface{}, _ string, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeAudit) GetAuditLogs(_ context.Context, _ auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return &auditlog.PaginatedAuditLogs{}, nil
}

func (f *fakeAudit) GetAuditLogByID(_ context.Context, _ uint) (*auditlog.AuditLogResponse, error) {
	return nil, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateAll(_ context.Context) {
	f.calls++
}

func depositRequest() UpdateBankInfoRequest {
	return UpdateBankInfoRequest{
		PaymentMethod: MethodDirectDeposit,
		BankName:      "First National",
		RoutingNumber: "021000021",
		AccountNumber: "000123456789",
	}
}

func TestUpdateBankInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("direct deposit stores only masked fragments", func(t *testing.T) {
		repo := newFakeRepo(Beneficiary{ID: 1, Name: "Hope Shelter", Status: "active"})
		audit := &fakeAudit{}
		svc := NewService(repo, audit, nil)

		b, err := svc.UpdateBankInfo(ctx, 1, depositRequest(), nil)
		require.NoError(t, err)

		assert.True(t, b.HasBankInfo)
		assert.Equal(t, MethodDirectDeposit, b.PaymentMethod)
		assert.Equal(t, "First National", b.BankName)
		assert.Equal(t, "6789", b.AccountLast4)
		assert.Equal(t, "0021", b.RoutingLast4)

		// The full identifiers never reach the write layer.
		for _, v := range repo.lastFields {
			assert.NotEqual(t, "021000021", v)
			assert.NotEqual(t, "000123456789", v)
		}

		assert.Equal(t, []string{"success"}, audit.statuses)
	})

	t.Run("check method needs no identifiers", func(t *testing.T) {
		repo := newFakeRepo(Beneficiary{ID: 1, Status: "active"})
		svc := NewService(repo, &fakeAudit{}, nil)

		b, err := svc.UpdateBankInfo(ctx, 1, UpdateBankInfoRequest{PaymentMethod: MethodCheck}, nil)
		require.NoError(t, err)

		assert.Equal(t, MethodCheck, b.PaymentMethod)
		assert.False(t, b.HasBankInfo)
	})

	t.Run("validation failures name the field and change nothing", func(t *testing.T) {
		tests := []struct {
			name      string
			mutate    func(*UpdateBankInfoRequest)
			wantField string
		}{
			{"unknown method", func(r *UpdateBankInfoRequest) { r.PaymentMethod = "wire" }, "payment_method"},
			{"routing too short", func(r *UpdateBankInfoRequest) { r.RoutingNumber = "12345678" }, "routing_number"},
			{"routing too long", func(r *UpdateBankInfoRequest) { r.RoutingNumber = "1234567890" }, "routing_number"},
			{"routing non-numeric", func(r *UpdateBankInfoRequest) { r.RoutingNumber = "02100002a" }, "routing_number"},
			{"account too short", func(r *UpdateBankInfoRequest) { r.AccountNumber = "123" }, "account_number"},
			{"account too long", func(r *UpdateBankInfoRequest) { r.AccountNumber = "123456789012345678" }, "account_number"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := newFakeRepo(Beneficiary{ID: 1, Status: "active"})
				audit := &fakeAudit{}
				svc := NewService(repo, audit, nil)

				req := depositRequest()
				tt.mutate(&req)

				_, err := svc.UpdateBankInfo(ctx, 1, req, nil)
				require.Error(t, err)

				var vErr *ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, tt.wantField, vErr.Field)

				assert.Nil(t, repo.lastFields, "no write on validation failure")
				assert.Equal(t, []string{"failure"}, audit.statuses)
			})
		}
	})

	t.Run("write failure leaves state unchanged", func(t *testing.T) {
		repo := newFakeRepo(Beneficiary{ID: 1, Status: "active"})
		repo.updateErr = errors.New("connection reset")
		audit := &fakeAudit{}
		svc := NewService(repo, audit, nil)

		_, err := svc.UpdateBankInfo(ctx, 1, depositRequest(), nil)
		require.Error(t, err)

		b, _ := repo.GetByID(ctx, 1)
		assert.False(t, b.HasBankInfo)
		assert.Equal(t, []string{"failure"}, audit.statuses)
	})

	t.Run("successful update drops every cached report", func(t *testing.T) {
		repo := newFakeRepo(Beneficiary{ID: 1, Status: "active"})
		cache := &fakeInvalidator{}
		svc := NewService(repo, &fakeAudit{}, cache)

		_, err := svc.UpdateBankInfo(ctx, 1, depositRequest(), nil)
		require.NoError(t, err)

		assert.Equal(t, 1, cache.calls)
	})

	t.Run("failed update leaves the cache alone", func(t *testing.T) {
		repo := newFakeRepo(Beneficiary{ID: 1, Status: "active"})
		repo.updateErr = errors.New("connection reset")
		cache := &fakeInvalidator{}
		svc := NewService(repo, &fakeAudit{}, cache)

		_, err := svc.UpdateBankInfo(ctx, 1, depositRequest(), nil)
		require.Error(t, err)

		assert.Equal(t, 0, cache.calls)
	})

	t.Run("unknown beneficiary is an error", func(t *testing.T) {
		svc := NewService(newFakeRepo(), &fakeAudit{}, nil)

		_, err := svc.UpdateBankInfo(ctx, 42, depositRequest(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestMaskTail(t *testing.T) {
	assert.Equal(t, "6789", maskTail("000123456789"))
	assert.Equal(t, "1234", maskTail("1234"))
	assert.Equal(t, "123", maskTail("123"))
	assert.Equal(t, "", maskTail(""))
}
