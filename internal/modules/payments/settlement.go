package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nordkart.com/app/internal/modules/money"
	"nordkart.com/app/internal/modules/orders"
)

// Ignore reason codes. These outcomes answer the provider with success so it
// stops retrying; every one of them is logged for audit.
const (
	IgnoreUnknownOrder     = "unknown_order"
	IgnoreOrderNotPending  = "order_not_pending"
	IgnoreAmountMismatch   = "amount_mismatch"
	IgnoreCurrencyMismatch = "currency_mismatch"
)

type SettlementService struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewSettlementService(db *gorm.DB, logger *slog.Logger) *SettlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementService{db: db, logger: logger}
}

type SettleInput struct {
	Provider   string
	EventID    string
	ResourceID *string
	OrderID    string

	// Amount/Currency come from the verified, guarded webhook payload.
	Amount   string
	Currency string

	// ExpectedIdempotencyKey, when present, must equal the order's stored
	// client key; a mismatch is an integration defect, not an ignorable
	// anomaly.
	ExpectedIdempotencyKey *string

	RawPayload []byte
}

type SettleResult struct {
	Replayed        bool
	OrderMarkedPaid bool
	IgnoredReason   string
}

// Settle absorbs one verified provider event and transitions its order from
// pending to paid at most once, inside a single transaction. The ledger
// insert is the at-most-once gate: a duplicate on either unique axis means
// this settlement was already durably recorded. Ignorable anomalies commit
// the ledger row and report a reason; only a metadata mismatch aborts.
func (s *SettlementService) Settle(ctx context.Context, in SettleInput) (SettleResult, error) {
	var out SettleResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev := ProviderEvent{
			ID:          uuid.NewString(),
			Provider:    in.Provider,
			EventID:     in.EventID,
			ResourceID:  in.ResourceID,
			OrderID:     in.OrderID,
			PayloadJSON: datatypes.JSON(in.RawPayload),
			ReceivedAt:  time.Now(),
		}
		if err := tx.WithContext(ctx).Create(&ev).Error; err != nil {
			if isDup(err) {
				s.logger.InfoContext(ctx, "settlement replayed",
					"provider", in.Provider, "event_id", in.EventID, "order_id", in.OrderID)
				out = SettleResult{Replayed: true}
				return nil
			}
			return err
		}

		var o orders.Order
		if err := tx.WithContext(ctx).First(&o, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				out = s.ignore(ctx, in, IgnoreUnknownOrder)
				return nil
			}
			return err
		}

		if in.ExpectedIdempotencyKey != nil && o.IdempotencyKey != *in.ExpectedIdempotencyKey {
			return ErrMetadataMismatch
		}

		if o.Status == orders.StatusPaid {
			out = SettleResult{Replayed: true}
			return nil
		}
		if o.Status != orders.StatusPending {
			out = s.ignore(ctx, in, IgnoreOrderNotPending)
			return nil
		}

		if o.Currency != in.Currency {
			out = s.ignore(ctx, in, IgnoreCurrencyMismatch)
			return nil
		}
		evMinor, err := money.DecimalToMinor(in.Amount, o.Currency)
		if err != nil {
			out = s.ignore(ctx, in, IgnoreAmountMismatch)
			return nil
		}
		totalMinor, err := money.DecimalToMinor(o.TotalAmount, o.Currency)
		if err != nil {
			return err
		}
		if evMinor != totalMinor {
			out = s.ignore(ctx, in, IgnoreAmountMismatch)
			return nil
		}

		// second compare-and-swap: two settlements racing past the ledger
		// insert cannot both flip the order
		res := tx.WithContext(ctx).Model(&orders.Order{}).
			Where("id = ? AND status = ?", o.ID, orders.StatusPending).
			Updates(map[string]any{"status": orders.StatusPaid, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			out = SettleResult{Replayed: true}
			return nil
		}

		s.logger.InfoContext(ctx, "order settled",
			"provider", in.Provider, "event_id", in.EventID, "order_id", o.ID)
		out = SettleResult{OrderMarkedPaid: true}
		return nil
	})
	if err != nil {
		return SettleResult{}, err
	}
	return out, nil
}

func (s *SettlementService) ignore(ctx context.Context, in SettleInput, reason string) SettleResult {
	s.logger.WarnContext(ctx, "settlement ignored",
		"provider", in.Provider, "event_id", in.EventID, "order_id", in.OrderID, "reason", reason)
	return SettleResult{IgnoredReason: reason}
}

func isDup(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
