package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	DBDSN       string
	RedisAddr   string
	ServiceName string

	// ClaimTTL bounds how long a webhook event id stays claimed in the
	// fast layer. The durable ledger is the real guarantee.
	ClaimTTL time.Duration

	// StrictClaims: when true, a claim-store outage fails closed instead
	// of falling back to process-local memory. Must stay true in any
	// multi-instance deployment.
	StrictClaims bool

	MockpayWebhookSecret string
}

func Load() Config {
	return Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DBDSN:                os.Getenv("DB_DSN"),
		RedisAddr:            getenv("REDIS_ADDR", "localhost:6379"),
		ServiceName:          getenv("SERVICE_NAME", "nordkart-api"),
		ClaimTTL:             getdur("CLAIM_TTL", 48*time.Hour),
		StrictClaims:         getbool("STRICT_CLAIMS", true),
		MockpayWebhookSecret: os.Getenv("MOCKPAY_WEBHOOK_SECRET"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getdur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
