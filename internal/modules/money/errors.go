package money

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedAmount     = errors.New("malformed amount")
	ErrNegativeAmount      = errors.New("negative amount")
	ErrAmountOutOfRange    = errors.New("amount out of range")
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrMalformedPayload: the body is not valid JSON at all. Distinct from
	// a guard violation, which means valid JSON carrying a bad monetary field.
	ErrMalformedPayload = errors.New("malformed payload")
)

type MonetaryFieldError struct {
	Field  string
	Reason string
}

func (e *MonetaryFieldError) Error() string {
	return fmt.Sprintf("monetary field %q: %s", e.Field, e.Reason)
}
