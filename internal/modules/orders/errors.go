package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNoItems               = errors.New("order has no items")
	ErrInvalidQuantity       = errors.New("item quantity must be positive")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrAmountMismatch        = errors.New("order total does not match expected amount")
	ErrCurrencyMismatch      = errors.New("currency mismatch across items")
)

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}
