package settlement

import (
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"

	"github.com/givecircle/givecircle-backend/config"
)

// ProcessorGateway cross-checks settlement figures against the payment
// processor's own records before they are trusted for reconciliation.
type ProcessorGateway interface {
	FetchSettlementAmount(processorSettlementID string) (decimal.Decimal, decimal.Decimal, error)
}

type processorGateway struct {
	client *razorpay.Client
}

func NewProcessorGateway(cfg *config.Config) ProcessorGateway {
	client := razorpay.NewClient(cfg.RazorpayKey, cfg.RazorpaySecret)
	return &processorGateway{client: client}
}

// FetchSettlementAmount fetches a settlement by its processor ID and
// returns (amount, fees) converted from the processor's minor units.
func (g *processorGateway) FetchSettlementAmount(processorSettlementID string) (decimal.Decimal, decimal.Decimal, error) {
	body, err := g.client.Settlement.Fetch(processorSettlementID, nil, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("processor settlement fetch failed: %w", err)
	}

	amount, err := minorUnitsField(body, "amount")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	// Fees are optional on the processor side.
	fees, err := minorUnitsField(body, "fees")
	if err != nil {
		fees = decimal.Zero
	}

	return amount, fees, nil
}

func minorUnitsField(body map[string]interface{}, key string) (decimal.Decimal, error) {
	raw, ok := body[key]
	if !ok {
		return decimal.Zero, errors.New("field missing in processor response: " + key)
	}

	var minor decimal.Decimal
	switch v := raw.(type) {
	case float64:
		minor = decimal.NewFromFloat(v)
	case int64:
		minor = decimal.NewFromInt(v)
	default:
		return decimal.Zero, fmt.Errorf("unsupported %s type: %T", key, raw)
	}

	return minor.Div(decimal.NewFromInt(100)), nil
}
