package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		OrderID        string `json:"order_id"`
		ResourceID     string `json:"resource_id,omitempty"`
		Amount         string `json:"amount"`
		Currency       string `json:"currency"`
		IdempotencyKey string `json:"idempotency_key,omitempty"`
	} `json:"data"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/webhooks/mockpay", "Webhook URL")
	secret := flag.String("secret", os.Getenv("MOCKPAY_WEBHOOK_SECRET"), "Webhook secret")
	eventID := flag.String("event-id", "evt_"+randomHex(8), "Event ID")
	eventType := flag.String("type", "payment.settled", "Event type (payment.settled, payment.failed)")
	orderID := flag.String("order-id", "", "Order ID the settlement targets")
	resourceID := flag.String("resource-id", "ch_"+randomHex(8), "Provider resource id (capture/charge)")
	amount := flag.String("amount", "50.00", "Amount as an exact decimal string")
	currency := flag.String("currency", "EUR", "Currency")
	idemKey := flag.String("idempotency-key", "", "Client idempotency key to echo (optional)")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and MOCKPAY_WEBHOOK_SECRET not set\n")
		os.Exit(1)
	}
	if *orderID == "" {
		fmt.Fprintf(os.Stderr, "Error: -order-id is required\n")
		os.Exit(1)
	}

	payload := webhookPayload{
		ID:   *eventID,
		Type: *eventType,
	}
	payload.Data.OrderID = *orderID
	payload.Data.ResourceID = *resourceID
	payload.Data.Amount = *amount
	payload.Data.Currency = *currency
	payload.Data.IdempotencyKey = *idemKey

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	mac := hmac.New(sha256.New, []byte(*secret))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	fmt.Printf("X-Mockpay-Signature: %s\n", sig)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest("POST", *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Mockpay-Signature", sig)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)[:n]
}
