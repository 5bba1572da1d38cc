package payments

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
)

const MockpaySignatureHeader = "X-Mockpay-Signature"

// Mockpay is a development stand-in for a real payment provider. Webhooks
// are authenticated with an HMAC-SHA256 hex signature over the raw body.
type Mockpay struct {
	secret []byte
}

func NewMockpay(secret string) *Mockpay {
	return &Mockpay{secret: []byte(secret)}
}

func (m *Mockpay) Name() string { return "mockpay" }

func (m *Mockpay) CreatePayment(ctx context.Context, req CreatePaymentRequest) (CreatePaymentResponse, error) {
	return CreatePaymentResponse{
		ProviderRef: "pi_" + randomHex(12),
		Status:      StatusInitiated,
	}, nil
}

type mockpayEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		OrderID        string `json:"order_id"`
		ResourceID     string `json:"resource_id"`
		Amount         string `json:"amount"`
		Currency       string `json:"currency"`
		IdempotencyKey string `json:"idempotency_key"`
	} `json:"data"`
}

func (m *Mockpay) VerifyAndParseWebhook(headers http.Header, body []byte) (SettlementEvent, error) {
	sig := headers.Get(MockpaySignatureHeader)
	if sig == "" {
		return SettlementEvent{}, errors.New("missing signature header")
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return SettlementEvent{}, errors.New("malformed signature header")
	}
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return SettlementEvent{}, errors.New("signature mismatch")
	}

	var ev mockpayEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return SettlementEvent{}, err
	}
	if ev.ID == "" || ev.Type == "" {
		return SettlementEvent{}, errors.New("missing event id or type")
	}

	return SettlementEvent{
		EventID:        ev.ID,
		Type:           ev.Type,
		ResourceID:     ev.Data.ResourceID,
		OrderID:        ev.Data.OrderID,
		Amount:         ev.Data.Amount,
		Currency:       ev.Data.Currency,
		IdempotencyKey: ev.Data.IdempotencyKey,
	}, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "fallback"
	}
	return hex.EncodeToString(b)
}
