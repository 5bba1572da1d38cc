package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

var ErrInvalidQuantity = errors.New("stock deduction quantity must be positive")

type StockLine struct {
	ProductID string
	Qty       int
}

type OutOfStockItem struct {
	ProductID string
	Requested int
	Available int
}

type OutOfStockError struct {
	Items []OutOfStockItem
}

func (e *OutOfStockError) Error() string {
	if len(e.Items) == 0 {
		return "out of stock"
	}
	it := e.Items[0]
	return fmt.Sprintf("out of stock: product=%s requested=%d available=%d", it.ProductID, it.Requested, it.Available)
}

// DeductStockInTx runs inside the CALLER's transaction (no nested tx).
// Each decrement is a single conditional statement guarded by stock >= qty;
// stock can never go negative and no row lock is taken ahead of the update.
// A zero-row update fails the whole transaction, rolling back every prior
// decrement.
func DeductStockInTx(ctx context.Context, tx *gorm.DB, lines []StockLine) error {
	if len(lines) == 0 {
		return nil
	}

	want := make(map[string]int, len(lines))
	for _, ln := range lines {
		if ln.Qty < 1 {
			return ErrInvalidQuantity
		}
		want[ln.ProductID] += ln.Qty
	}

	// deterministic order keeps concurrent transactions from deadlocking
	ids := make([]string, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		req := want[id]
		res := tx.WithContext(ctx).
			Model(&Product{}).
			Where("id = ? AND stock >= ?", id, req).
			UpdateColumn("stock", gorm.Expr("stock - ?", req))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// read-back is diagnostics only; the decision was the CAS above
			var available int
			_ = tx.WithContext(ctx).
				Model(&Product{}).
				Where("id = ?", id).
				Select("stock").
				Scan(&available).Error
			return &OutOfStockError{Items: []OutOfStockItem{{ProductID: id, Requested: req, Available: available}}}
		}
	}

	return nil
}
