package catalog

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListActive(ctx context.Context, limit, offset int) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
}

type GormRepo struct {
	db *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{db: db}
}

func (r *GormRepo) ListActive(ctx context.Context, limit, offset int) ([]Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 24
	}
	var items []Product
	err := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("active = ?", true).
		Order("slug asc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	return items, err
}

func (r *GormRepo) GetByID(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ? AND active = ?", id, true).
		First(&p).Error
	return p, err
}

// ActiveByIDs loads the active products for the given ids inside the
// caller's transaction. Missing ids are simply absent from the result map.
func ActiveByIDs(ctx context.Context, tx *gorm.DB, ids []string) (map[string]Product, error) {
	var rows []Product
	if err := tx.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]Product, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}
