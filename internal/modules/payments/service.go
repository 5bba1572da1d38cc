package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"nordkart.com/app/internal/modules/orders"
)

type Service struct {
	db       *gorm.DB
	provider Provider
	logger   *slog.Logger
}

func NewService(db *gorm.DB, p Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, provider: p, logger: logger}
}

type InitiatePaymentInput struct {
	OrderID        string
	ActorUserID    string // caller-resolved identity, must own the order
	IdempotencyKey string
}

type InitiatePaymentResult struct {
	OrderID    string
	PaymentID  string
	Status     string
	Idempotent bool
}

// InitiatePayment creates (or replays) the provider payment for a pending
// order. Phase 1 records an initiated payment row keyed by
// (order, idempotency key); phase 2 calls the provider outside the
// transaction; phase 3 finalizes the row and pins the provider intent id on
// the order. Settlement itself arrives later via webhook.
func (s *Service) InitiatePayment(ctx context.Context, in InitiatePaymentInput) (InitiatePaymentResult, error) {
	if in.OrderID == "" || in.IdempotencyKey == "" {
		return InitiatePaymentResult{}, ErrOrderNotPayable
	}

	var p Payment
	var ord orders.Order
	replay := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).First(&ord, "id = ?", in.OrderID).Error; err != nil {
			return err
		}
		if ord.UserID != in.ActorUserID {
			return ErrForbidden
		}
		if ord.Status != orders.StatusPending {
			return ErrOrderNotPayable
		}

		now := time.Now()
		p = Payment{
			ID:             uuid.NewString(),
			OrderID:        ord.ID,
			Provider:       s.provider.Name(),
			Status:         StatusInitiated,
			Amount:         ord.TotalAmount,
			Currency:       ord.Currency,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.WithContext(ctx).Create(&p).Error; err != nil {
			if !isDup(err) {
				return err
			}
			// same (order, key): replay the earlier initiation
			if err := tx.WithContext(ctx).
				First(&p, "order_id = ? AND idempotency_key = ?", ord.ID, in.IdempotencyKey).Error; err != nil {
				return err
			}
			replay = true
		}
		return nil
	})
	if err != nil {
		return InitiatePaymentResult{}, err
	}

	if replay {
		return InitiatePaymentResult{OrderID: ord.ID, PaymentID: p.ID, Status: p.Status, Idempotent: true}, nil
	}

	// provider call stays outside any transaction
	resp, perr := s.provider.CreatePayment(ctx, CreatePaymentRequest{
		OrderID:        ord.ID,
		Amount:         ord.TotalAmount,
		Currency:       ord.Currency,
		IdempotencyKey: in.IdempotencyKey,
	})

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]any{"updated_at": now}
		if perr != nil {
			msg := truncate(perr.Error(), 250)
			updates["status"] = StatusFailed
			updates["error_message"] = msg
		} else {
			updates["status"] = resp.Status
			if resp.ProviderRef != "" {
				updates["provider_ref"] = resp.ProviderRef
			}
		}
		if err := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ?", p.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		if perr == nil && resp.ProviderRef != "" {
			// pin the intent on the order once; never overwrite
			if err := tx.WithContext(ctx).Model(&orders.Order{}).
				Where("id = ? AND provider_intent_id IS NULL", ord.ID).
				Updates(map[string]any{"provider_intent_id": resp.ProviderRef, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return InitiatePaymentResult{}, err
	}
	if perr != nil {
		s.logger.ErrorContext(ctx, "provider payment create failed",
			"order_id", ord.ID, "payment_id", p.ID, "err", perr)
		return InitiatePaymentResult{OrderID: ord.ID, PaymentID: p.ID, Status: StatusFailed}, nil
	}

	return InitiatePaymentResult{OrderID: ord.ID, PaymentID: p.ID, Status: resp.Status}, nil
}

// FindByOrder returns the payments recorded for an order, newest first.
// The actor must own the order.
func (s *Service) FindByOrder(ctx context.Context, orderID, actorUserID string) ([]Payment, error) {
	var ord orders.Order
	if err := s.db.WithContext(ctx).First(&ord, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	if ord.UserID != actorUserID {
		return nil, ErrForbidden
	}

	var out []Payment
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&out, "order_id = ?", orderID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return out, nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
