package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
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
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seed(t *testing.T, db *gorm.DB, slug string, stock int, active bool) Product {
	t.Helper()
	p := Product{
		ID:        uuid.NewString(),
		Slug:      slug,
		Name:      "Test " + slug,
		Price:     "10.00",
		Currency:  "EUR",
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

func TestGetByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormRepo(db)
	ctx := context.Background()

	active := seed(t, db, "active-prod", 5, true)
	inactive := seed(t, db, "inactive-prod", 5, false)

	got, err := repo.GetByID(ctx, active.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != active.ID || got.Slug != "active-prod" {
		t.Fatalf("got = %+v, want %s", got, active.ID)
	}

	if _, err := repo.GetByID(ctx, inactive.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("inactive product err = %v, want ErrRecordNotFound", err)
	}
	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("unknown id err = %v, want ErrRecordNotFound", err)
	}
}

func TestListActive(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormRepo(db)

	seed(t, db, "b-prod", 5, true)
	seed(t, db, "a-prod", 5, true)
	seed(t, db, "c-hidden", 5, false)

	items, err := repo.ListActive(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2 (inactive excluded)", len(items))
	}
	if items[0].Slug != "a-prod" || items[1].Slug != "b-prod" {
		t.Fatalf("order = %s, %s; want slug asc", items[0].Slug, items[1].Slug)
	}
}

func TestDeductStockInTx_RejectsNonPositiveQuantity(t *testing.T) {
	db := newTestDB(t)
	p := seed(t, db, "prod", 5, true)
	ctx := context.Background()

	for _, qty := range []int{0, -1} {
		err := db.Transaction(func(tx *gorm.DB) error {
			return DeductStockInTx(ctx, tx, []StockLine{{ProductID: p.ID, Qty: qty}})
		})
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d err = %v, want ErrInvalidQuantity", qty, err)
		}
	}

	var after Product
	db.First(&after, "id = ?", p.ID)
	if after.Stock != 5 {
		t.Fatalf("stock = %d, want 5 untouched", after.Stock)
	}
}
