package money

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// monetaryFields are the keys whose values are treated as money anywhere in
// an externally supplied payload. Matching is exact on the key name.
var monetaryFields = map[string]struct{}{
	"amount":        {},
	"total":         {},
	"subtotal":      {},
	"price":         {},
	"unit_price":    {},
	"unitPrice":     {},
	"tax":           {},
	"discount":      {},
	"shipping":      {},
	"refund_amount": {},
	"fee":           {},
}

// ParseStrict decodes an untrusted JSON body and guards every recognized
// monetary field before the value reaches any business logic. It runs ahead
// of signature verification so that numeric monetary literals never survive
// past the edge. A parse failure is ErrMalformedPayload; a bad monetary
// field is a *MonetaryFieldError.
func ParseStrict(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := GuardPayload(v); err != nil {
		return nil, err
	}
	return v, nil
}

// GuardPayload walks parsed JSON recursively and requires every present,
// non-null monetary field to be a strict decimal string. It never mutates
// the value.
func GuardPayload(v any) error {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if _, monetary := monetaryFields[k]; monetary && val != nil {
				s, ok := val.(string)
				if !ok {
					return &MonetaryFieldError{Field: k, Reason: "Monetary values must be provided as strings"}
				}
				if !decimalRe.MatchString(s) {
					return &MonetaryFieldError{Field: k, Reason: "not a plain decimal string"}
				}
				continue
			}
			if err := GuardPayload(val); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range t {
			if err := GuardPayload(item); err != nil {
				return err
			}
		}
	}
	return nil
}
