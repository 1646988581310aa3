package payout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givecircle/givecircle-backend/internal/beneficiary"
)

func bankWithDeposit() beneficiary.BankInfo {
	return beneficiary.BankInfo{
		HasBankInfo:   true,
		PaymentMethod: beneficiary.MethodDirectDeposit,
		BankName:      "First National",
		AccountLast4:  "4821",
		RoutingLast4:  "0021",
	}
}

func TestApplyTransitionTable(t *testing.T) {
	bank := bankWithDeposit()

	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to processing", StatusPending, StatusProcessing, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to completed skips processing", StatusPending, StatusCompleted, false},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to cancelled", StatusProcessing, StatusCancelled, true},
		{"processing back to pending", StatusProcessing, StatusPending, false},
		{"completed is terminal", StatusCompleted, StatusProcessing, false},
		{"completed cannot cancel", StatusCompleted, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusProcessing, false},
		{"cancelled cannot complete", StatusCancelled, StatusCompleted, false},
		{"self transition rejected", StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ApplyTransition(tt.from, bank, TransitionRequest{Target: tt.to})

			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.from, result.From)
				assert.Equal(t, tt.to, result.To)
				return
			}

			require.Error(t, err)
			var tErr *TransitionError
			require.True(t, errors.As(err, &tErr))
			assert.Equal(t, tt.from, tErr.From)
			assert.Equal(t, tt.to, tErr.To)
		})
	}
}

func TestApplyTransitionUnknownStatus(t *testing.T) {
	_, err := ApplyTransition(StatusPending, bankWithDeposit(), TransitionRequest{Target: Status("archived")})

	require.Error(t, err)
	var tErr *TransitionError
	assert.False(t, errors.As(err, &tErr), "unknown status is not a table violation")
	assert.Contains(t, err.Error(), "unknown payout status")
}

func TestApplyTransitionBankGate(t *testing.T) {
	t.Run("missing bank info downgrades direct deposit to check", func(t *testing.T) {
		bank := beneficiary.BankInfo{
			HasBankInfo:   false,
			PaymentMethod: beneficiary.MethodDirectDeposit,
		}

		result, err := ApplyTransition(StatusPending, bank, TransitionRequest{Target: StatusProcessing})
		require.NoError(t, err)

		assert.Equal(t, beneficiary.MethodCheck, result.PaymentMethod)
		assert.Contains(t, result.Flags, FlagNoBankInfo)
	})

	t.Run("completion still proceeds without bank info", func(t *testing.T) {
		bank := beneficiary.BankInfo{
			HasBankInfo:   false,
			PaymentMethod: beneficiary.MethodDirectDeposit,
		}

		result, err := ApplyTransition(StatusProcessing, bank, TransitionRequest{Target: StatusCompleted})
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, result.To)
		assert.Equal(t, beneficiary.MethodCheck, result.PaymentMethod)
		assert.Contains(t, result.Flags, FlagNoBankInfo)
	})

	t.Run("cancellation does not touch payment method", func(t *testing.T) {
		bank := beneficiary.BankInfo{
			HasBankInfo:   false,
			PaymentMethod: beneficiary.MethodDirectDeposit,
		}

		result, err := ApplyTransition(StatusPending, bank, TransitionRequest{Target: StatusCancelled})
		require.NoError(t, err)

		assert.Equal(t, beneficiary.MethodDirectDeposit, result.PaymentMethod)
		assert.Empty(t, result.Flags)
	})

	t.Run("present bank info keeps direct deposit", func(t *testing.T) {
		result, err := ApplyTransition(StatusPending, bankWithDeposit(), TransitionRequest{Target: StatusProcessing})
		require.NoError(t, err)

		assert.Equal(t, beneficiary.MethodDirectDeposit, result.PaymentMethod)
		assert.Empty(t, result.Flags)
	})

	t.Run("empty payment method defaults to check", func(t *testing.T) {
		result, err := ApplyTransition(StatusPending, beneficiary.BankInfo{}, TransitionRequest{Target: StatusProcessing})
		require.NoError(t, err)

		assert.Equal(t, beneficiary.MethodCheck, result.PaymentMethod)
	})
}
