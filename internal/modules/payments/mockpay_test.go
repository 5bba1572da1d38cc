package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestMockpay_VerifyAndParseWebhook(t *testing.T) {
	const secret = "whsec_test"
	body := []byte(`{"id":"evt_1","type":"payment.settled","data":{"order_id":"ord_1","resource_id":"ch_1","amount":"41.48","currency":"EUR","idempotency_key":"idem-1"}}`)

	m := NewMockpay(secret)

	headers := http.Header{}
	headers.Set(MockpaySignatureHeader, signBody(secret, body))

	ev, err := m.VerifyAndParseWebhook(headers, body)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ev.EventID != "evt_1" || ev.Type != "payment.settled" {
		t.Fatalf("event = %+v", ev)
	}
	if ev.OrderID != "ord_1" || ev.ResourceID != "ch_1" {
		t.Fatalf("refs = (%s, %s)", ev.OrderID, ev.ResourceID)
	}
	if ev.Amount != "41.48" || ev.Currency != "EUR" {
		t.Fatalf("amount = %s %s", ev.Amount, ev.Currency)
	}
	if ev.IdempotencyKey != "idem-1" {
		t.Fatalf("idempotency key = %q", ev.IdempotencyKey)
	}
}

func TestMockpay_VerifyRejections(t *testing.T) {
	const secret = "whsec_test"
	body := []byte(`{"id":"evt_1","type":"payment.settled","data":{"order_id":"ord_1","amount":"1.00","currency":"EUR"}}`)
	m := NewMockpay(secret)

	tests := []struct {
		name string
		hdr  func(h http.Header)
		body []byte
	}{
		{
			name: "missing signature",
			hdr:  func(h http.Header) {},
			body: body,
		},
		{
			name: "non-hex signature",
			hdr:  func(h http.Header) { h.Set(MockpaySignatureHeader, "zzzz") },
			body: body,
		},
		{
			name: "wrong secret",
			hdr:  func(h http.Header) { h.Set(MockpaySignatureHeader, signBody("other", body)) },
			body: body,
		},
		{
			name: "tampered body",
			hdr:  func(h http.Header) { h.Set(MockpaySignatureHeader, signBody(secret, body)) },
			body: []byte(`{"id":"evt_1","type":"payment.settled","data":{"order_id":"ord_1","amount":"999.00","currency":"EUR"}}`),
		},
		{
			name: "missing event id",
			hdr: func(h http.Header) {
				b := []byte(`{"type":"payment.settled","data":{}}`)
				h.Set(MockpaySignatureHeader, signBody(secret, b))
			},
			body: []byte(`{"type":"payment.settled","data":{}}`),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			headers := http.Header{}
			tc.hdr(headers)
			if _, err := m.VerifyAndParseWebhook(headers, tc.body); err == nil {
				t.Fatal("expected verification error")
			}
		})
	}
}
