package orders

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"nordkart.com/app/internal/modules/catalog"
	"nordkart.com/app/internal/modules/money"
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

type ItemInput struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type CreateOrderInput struct {
	UserID           string
	Items            []ItemInput
	IdempotencyKey   string
	ProviderIntentID *string

	// ExpectedTotal, when present, is the client's view of the total as an
	// exact decimal string; it is compared in minor units against the
	// authoritative total and the call aborts on divergence.
	ExpectedTotal *string
}

type CreateOrderResult struct {
	Order    Order
	Items    []OrderItem
	Replayed bool
}

// CreatePendingOrder creates an order and reserves its stock in a single
// transaction, keyed by (user, idempotency key). Retries with the same key
// return the pre-existing order with Replayed set; they never decrement
// stock again. Totals are computed from stored unit prices only.
func (s *Service) CreatePendingOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if strings.TrimSpace(in.IdempotencyKey) == "" || in.UserID == "" {
		return CreateOrderResult{}, ErrMissingIdempotencyKey
	}
	if len(in.Items) == 0 {
		return CreateOrderResult{}, ErrNoItems
	}

	// dedupe by product id, summing quantities; a client sending the same
	// line twice means one line at the combined quantity
	want := make(map[string]int, len(in.Items))
	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Qty <= 0 {
			return CreateOrderResult{}, ErrInvalidQuantity
		}
		if _, seen := want[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		want[it.ProductID] += it.Qty
	}

	var out CreateOrderResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prods, err := catalog.ActiveByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := prods[id]; !ok {
				return &ProductNotFoundError{ProductID: id}
			}
		}

		currency := prods[ids[0]].Currency
		lineTotals := make([]int64, 0, len(ids))
		unitMinor := make(map[string]int64, len(ids))
		for _, id := range ids {
			p := prods[id]
			if p.Currency != currency {
				return ErrCurrencyMismatch
			}
			unit, err := money.DecimalToMinor(p.Price, currency)
			if err != nil {
				return err
			}
			unitMinor[id] = unit
			line, err := money.Multiply(unit, want[id])
			if err != nil {
				return err
			}
			lineTotals = append(lineTotals, line)
		}
		totalMinor, err := money.Sum(lineTotals)
		if err != nil {
			return err
		}

		if in.ExpectedTotal != nil {
			expected, err := money.DecimalToMinor(*in.ExpectedTotal, currency)
			if err != nil {
				return err
			}
			if expected != totalMinor {
				return ErrAmountMismatch
			}
		}

		totalText, err := money.MinorToDecimal(totalMinor, currency)
		if err != nil {
			return err
		}

		now := time.Now()
		o := Order{
			ID:               uuid.NewString(),
			UserID:           in.UserID,
			Status:           StatusPending,
			IdempotencyKey:   in.IdempotencyKey,
			ProviderIntentID: in.ProviderIntentID,
			TotalAmount:      totalText,
			Currency:         currency,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.WithContext(ctx).Create(&o).Error; err != nil {
			if !isDup(err) {
				return err
			}
			// a concurrent or retried request already holds this key:
			// hand back its order, no further mutation
			existing, items, err := getByUserAndKey(ctx, tx, in.UserID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			s.logger.InfoContext(ctx, "order create replayed",
				"user_id", in.UserID, "order_id", existing.ID)
			out = CreateOrderResult{Order: existing, Items: items, Replayed: true}
			return nil
		}

		lines := make([]catalog.StockLine, 0, len(ids))
		for _, id := range ids {
			lines = append(lines, catalog.StockLine{ProductID: id, Qty: want[id]})
		}
		if err := catalog.DeductStockInTx(ctx, tx, lines); err != nil {
			return err
		}

		items := make([]OrderItem, 0, len(ids))
		for _, id := range ids {
			items = append(items, OrderItem{
				ID:        uuid.NewString(),
				OrderID:   o.ID,
				ProductID: id,
				Qty:       want[id],
				UnitPrice: prods[id].Price,
				Currency:  currency,
				CreatedAt: now,
			})
		}
		if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
			return err
		}

		out = CreateOrderResult{Order: o, Items: items, Replayed: false}
		return nil
	})
	if err != nil {
		return CreateOrderResult{}, err
	}
	return out, nil
}

func getByUserAndKey(ctx context.Context, tx *gorm.DB, userID, key string) (Order, []OrderItem, error) {
	var o Order
	if err := tx.WithContext(ctx).
		First(&o, "user_id = ? AND idempotency_key = ?", userID, key).Error; err != nil {
		return Order{}, nil, err
	}
	var items []OrderItem
	if err := tx.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&items, "order_id = ?", o.ID).Error; err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

func isDup(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
