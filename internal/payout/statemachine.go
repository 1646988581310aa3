package payout

import (
	"fmt"
	"time"

	"github.com/givecircle/givecircle-backend/internal/beneficiary"
)

// TransitionError names the illegal transition that was rejected.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal payout status transition: %s -> %s", e.From, e.To)
}

// allowedTransitions is the closed transition table. completed and
// cancelled are terminal; nothing leaves them through this engine. An
// operator-forced override would be an administrative action outside
// this table and is not supported here.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// ValidStatus reports whether s is one of the closed status set.
func ValidStatus(s Status) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// TransitionRequest is an explicit operator request to move a payout.
type TransitionRequest struct {
	Target     Status     `json:"status"`
	PayoutDate *time.Time `json:"payout_date,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// TransitionResult describes an applied transition, including the
// effective payment method after the bank-info gate.
type TransitionResult struct {
	From          Status
	To            Status
	PaymentMethod string
	Flags         []string
}

// ApplyTransition validates a requested transition against the table and
// the beneficiary's banking state. Missing bank info never blocks a
// payout: entering processing or completed without it downgrades the
// payment method to check and flags the record instead.
func ApplyTransition(current Status, bank beneficiary.BankInfo, req TransitionRequest) (TransitionResult, error) {
	if !ValidStatus(req.Target) {
		return TransitionResult{}, fmt.Errorf("unknown payout status: %s", req.Target)
	}
	if !transitionAllowed(current, req.Target) {
		return TransitionResult{}, &TransitionError{From: current, To: req.Target}
	}

	result := TransitionResult{
		From:          current,
		To:            req.Target,
		PaymentMethod: bank.PaymentMethod,
	}
	if result.PaymentMethod == "" {
		result.PaymentMethod = beneficiary.MethodCheck
	}

	if req.Target == StatusProcessing || req.Target == StatusCompleted {
		if result.PaymentMethod == beneficiary.MethodDirectDeposit && !bank.HasBankInfo {
			result.PaymentMethod = beneficiary.MethodCheck
			result.Flags = append(result.Flags, FlagNoBankInfo)
		}
	}

	return result, nil
}

func transitionAllowed(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
