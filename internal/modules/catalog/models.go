package catalog

import "time"

type Product struct {
	ID   string `gorm:"type:char(36);primaryKey"`
	Slug string `gorm:"type:varchar(128);not null;uniqueIndex:ux_products_slug"`
	Name string `gorm:"type:varchar(255);not null"`

	// Price is the exact decimal string for one unit, canonical for Currency.
	// Arithmetic happens in minor units only (see modules/money).
	Price    string `gorm:"type:varchar(32);not null"`
	Currency string `gorm:"type:char(3);not null;default:'EUR'"`

	Stock  int  `gorm:"not null"`
	Active bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Product) TableName() string { return "products" }
