package payments

import (
	"context"
	"net/http"
)

type CreatePaymentRequest struct {
	OrderID        string
	Amount         string // exact decimal string
	Currency       string
	IdempotencyKey string
}

type CreatePaymentResponse struct {
	ProviderRef string
	Status      string // initiated|succeeded|failed
}

// SettlementEvent is a provider webhook after signature verification and the
// strict monetary payload guard. Amount stays a decimal string; it is only
// ever compared in minor units.
type SettlementEvent struct {
	EventID    string
	Type       string // payment.settled|payment.failed
	ResourceID string // provider capture/charge id, may be empty
	OrderID    string
	Amount     string
	Currency   string

	// IdempotencyKey optionally echoes the client key the order was created
	// with; when present it must match the order's stored key.
	IdempotencyKey string
}

type Provider interface {
	Name() string
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (CreatePaymentResponse, error)

	// VerifyAndParseWebhook checks the provider signature over the raw body
	// and decodes the event. The caller has already run the monetary guard.
	VerifyAndParseWebhook(headers http.Header, body []byte) (SettlementEvent, error)
}
