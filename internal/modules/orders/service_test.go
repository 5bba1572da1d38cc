package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nordkart.com/app/internal/modules/catalog"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// in-memory sqlite: keep everything on one connection
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&catalog.Product{}, &Order{}, &OrderItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, price, currency string, stock int, active bool) catalog.Product {
	t.Helper()
	p := catalog.Product{
		ID:        uuid.NewString(),
		Slug:      "p-" + uuid.NewString()[:8],
		Name:      "Test product",
		Price:     price,
		Currency:  currency,
		Stock:     stock,
		Active:    active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func testService(db *gorm.DB) *Service {
	return NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreatePendingOrder_ComputesTotalFromStoredPrices(t *testing.T) {
	db := newTestDB(t)
	svc := testService(db)
	ctx := context.Background()

	pa := seedProduct(t, db, "19.99", "EUR", 10, true)
	pb := seedProduct(t, db, "0.50", "EUR", 10, true)

	res, err := svc.CreatePendingOrder(ctx, CreateOrderInput{
		UserID:         uuid.NewString(),
		IdempotencyKey: "key-1",
		Items: []ItemInput{
			{ProductID: pa.ID, Qty: 2},
			{ProductID: pb.ID, Qty: 3},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Replayed {
		t.Fatal("fresh order reported as replayed")
	}
	// 2*19.99 + 3*0.50 = 41.48
	if res.Order.TotalAmount != "41.48" {
		t.Fatalf("total = %q, want 41.48", res.Order.TotalAmount)
	}
	if res.Order.Status != StatusPending {
		t.Fatalf("status = %q, want pending", res.Order.Status)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(res.Items))
	}

	var a, b catalog.Product
	db.First(&a, "id = ?", pa.ID)
	db.First(&b, "id = ?", pb.ID)
	if a.Stock != 8 || b.Stock != 7 {
		t.Fatalf("stock after = (%d,%d), want (8,7)", a.Stock, b.Stock)
	}
}

func TestCreatePendingOrder_MergesDuplicateLines(t *testing.T) {
	db := newTestDB(t)
	svc := testService(db)

	p := seedProduct(t, db, "5.00", "EUR", 10, true)

	res, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		UserID:         uuid.NewString(),
		IdempotencyKey: "key-1",
		Items: []ItemInput{
			{ProductID: p.ID, Qty: 1},
			{ProductID: p.ID, Qty: 2},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items = %d, want 1 merged line", len(res.Items))
	}
	if res.Items[0].Qty != 3 {
		t.Fatalf("qty = %d, want 3", res.Items[0].Qty)
	}
	if res.Order.TotalAmount != "15.00" {
		t.Fatalf("total = %q, want 15.00", res.Order.TotalAmount)
	}
}

func TestCreatePendingOrder_ReplaySameKey(t *testing.T) {
	db := newTestDB(t)
	svc := testService(db)
	ctx := context.Background()

	p := seedProduct(t, db, "10.00", "EUR", 5, true)
	userID := uuid.NewString()
	in := CreateOrderInput{
		UserID:         userID,
		IdempotencyKey: "retry-key",
		Items:          []ItemInput{{ProductID: p.ID, Qty: 2}},
	}

	first, err := svc.CreatePendingOrder(ctx, in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.CreatePendingOrder(ctx, in)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !second.Replayed {
		t.Fatal("retry not reported as replayed")
	}
	if second.Order.ID != first.Order.ID {
		t.Fatalf("replay returned a different order: %s vs %s", second.Order.ID, first.Order.ID)
	}

	var after catalog.Product
	db.First(&after, "id = ?", p.ID)
	if after.Stock != 3 {
		t.Fatalf("stock = %d, want 3 (decremented exactly once)", after.Stock)
	}
	var count int64
	db.Model(&Order{}).Count(&count)
	if count != 1 {
		t.Fatalf("orders = %d, want 1", count)
	}
}

func TestCreatePendingOrder_SameKeyDifferentUsers(t *testing.T) {
	db := newTestDB(t)
	svc := testService(db)
	ctx := context.Background()

	p := seedProduct(t, db, "10.00", "EUR", 5, true)

	for _, user := range []string{uuid.NewString(), uuid.NewString()} {
		res, err := svc.CreatePendingOrder(ctx, CreateOrderInput{
			UserID:         user,
			IdempotencyKey: "shared-key",
			Items:          []ItemInput{{ProductID: p.ID, Qty: 1}},
		})
		if err != nil {
			t.Fatalf("create for %s: %v", user, err)
		}
		if res.Replayed {
			t.Fatal("key scoped per user; different users must not replay")
		}
	}
}

func TestCreatePendingOrder_OutOfStockRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	svc := testService(db)

	pa := seedProduct(t, db, "10.00", "EUR", 10, true)
	pb := seedProduct(t, db, "4.00", "EUR", 1, true)

	_, err := svc.CreatePendingOrder(context.Background(), CreateOrderInput{
		UserID:         uuid.NewString(),
		IdempotencyKey: "key-1",
		Items: []ItemInput{
			{ProductID: pa.ID, Qty: 2},
			{ProductID: pb.ID, Qty: 5},
		},
	})
	var oos *catalog.OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("err = %v, want OutOfStockError", err)
	}

	var orders, items int64
	db.Model(&Order{}).Count(&orders)
	db.Model(&OrderItem{}).Count(&items)
	if orders != 0 || items != 0 {
		t.Fatalf("rows after rollback = (%d orders, %d items), want (0,0)", orders, items)
	}
	var a catalog.Product
	db.First(&a, "id = ?", pa.ID)
	if a.Stock != 10 {
		t.Fatalf("stock of first product = %d, want 10 untouched", a.Stock)
	}
}

func TestCreatePendingOrder_ConcurrentStockRace(t *testing.T) {
	db := newTestDB(t)
	svc := testService(db)
	ctx := context.Background()

	p := seedProduct(t, db, "99.00", "EUR", 1, true)

	const workers = 50
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreatePendingOrder(ctx, CreateOrderInput{
				UserID:         uuid.NewString(),
				IdempotencyKey: uuid.NewString(),
				Items:          []ItemInput{{ProductID: p.ID, Qty: 1}},
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var oos *catalog.OutOfStockError
		if !errors.As(err, &oos) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("winners = %d, want exactly 1", won)
	}
	var after catalog.Product
	db.First(&after, "id = ?", p.ID)
	if after.Stock != 0 {
		t.Fatalf("stock = %d, want 0", after.Stock)
	}
}

func TestCreatePendingOrder_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := testService(db)
	ctx := context.Background()

	active := seedProduct(t, db, "10.00", "EUR", 5, true)
	inactive := seedProduct(t, db, "10.00", "EUR", 5, false)
	gbp := seedProduct(t, db, "8.00", "GBP", 5, true)

	tests := []struct {
		name string
		in   CreateOrderInput
		want error
	}{
		{
			name: "missing idempotency key",
			in: CreateOrderInput{
				UserID: uuid.NewString(),
				Items:  []ItemInput{{ProductID: active.ID, Qty: 1}},
			},
			want: ErrMissingIdempotencyKey,
		},
		{
			name: "no items",
			in: CreateOrderInput{
				UserID:         uuid.NewString(),
				IdempotencyKey: "k",
			},
			want: ErrNoItems,
		},
		{
			name: "zero quantity",
			in: CreateOrderInput{
				UserID:         uuid.NewString(),
				IdempotencyKey: "k",
				Items:          []ItemInput{{ProductID: active.ID, Qty: 0}},
			},
			want: ErrInvalidQuantity,
		},
		{
			name: "mixed currencies",
			in: CreateOrderInput{
				UserID:         uuid.NewString(),
				IdempotencyKey: "k",
				Items: []ItemInput{
					{ProductID: active.ID, Qty: 1},
					{ProductID: gbp.ID, Qty: 1},
				},
			},
			want: ErrCurrencyMismatch,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePendingOrder(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("inactive product", func(t *testing.T) {
		_, err := svc.CreatePendingOrder(ctx, CreateOrderInput{
			UserID:         uuid.NewString(),
			IdempotencyKey: "k",
			Items:          []ItemInput{{ProductID: inactive.ID, Qty: 1}},
		})
		var pnf *ProductNotFoundError
		if !errors.As(err, &pnf) {
			t.Fatalf("err = %v, want ProductNotFoundError", err)
		}
		if pnf.ProductID != inactive.ID {
			t.Fatalf("product id = %s, want %s", pnf.ProductID, inactive.ID)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.CreatePendingOrder(ctx, CreateOrderInput{
			UserID:         uuid.NewString(),
			IdempotencyKey: "k",
			Items:          []ItemInput{{ProductID: uuid.NewString(), Qty: 1}},
		})
		var pnf *ProductNotFoundError
		if !errors.As(err, &pnf) {
			t.Fatalf("err = %v, want ProductNotFoundError", err)
		}
	})
}

func TestCreatePendingOrder_ExpectedTotal(t *testing.T) {
	db := newTestDB(t)
	svc := testService(db)
	ctx := context.Background()

	p := seedProduct(t, db, "19.99", "EUR", 10, true)

	good := "39.98"
	res, err := svc.CreatePendingOrder(ctx, CreateOrderInput{
		UserID:         uuid.NewString(),
		IdempotencyKey: "k1",
		Items:          []ItemInput{{ProductID: p.ID, Qty: 2}},
		ExpectedTotal:  &good,
	})
	if err != nil {
		t.Fatalf("create with matching total: %v", err)
	}
	if res.Order.TotalAmount != "39.98" {
		t.Fatalf("total = %q, want 39.98", res.Order.TotalAmount)
	}

	bad := "39.97"
	_, err = svc.CreatePendingOrder(ctx, CreateOrderInput{
		UserID:         uuid.NewString(),
		IdempotencyKey: "k2",
		Items:          []ItemInput{{ProductID: p.ID, Qty: 2}},
		ExpectedTotal:  &bad,
	})
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("err = %v, want ErrAmountMismatch", err)
	}

	var count int64
	db.Model(&Order{}).Count(&count)
	if count != 1 {
		t.Fatalf("orders = %d, want 1 (mismatch must not persist)", count)
	}
}
