package orders

import "time"

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusShipped   = "shipped"
	StatusCancelled = "cancelled"
)

type Order struct {
	ID     string `gorm:"type:char(36);primaryKey"`
	UserID string `gorm:"type:char(36);not null;uniqueIndex:ux_orders_user_idem,priority:1"`
	Status string `gorm:"type:varchar(32);not null"`

	// IdempotencyKey is client-supplied; unique per user. Retries with the
	// same key replay the original order instead of creating a second one.
	IdempotencyKey string `gorm:"type:varchar(64);not null;uniqueIndex:ux_orders_user_idem,priority:2"`

	ProviderIntentID *string `gorm:"type:varchar(128)"`

	// TotalAmount is the exact decimal string, computed once at creation
	// from stored unit prices and never recomputed.
	TotalAmount string `gorm:"type:varchar(32);not null"`
	Currency    string `gorm:"type:char(3);not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	OrderID   string `gorm:"type:char(36);not null;index:ix_order_items_order_id"`
	ProductID string `gorm:"type:char(36);not null"`
	Qty       int    `gorm:"not null"`

	// UnitPrice is captured at order creation; later product price changes
	// never alter a placed order.
	UnitPrice string `gorm:"type:varchar(32);not null"`
	Currency  string `gorm:"type:char(3);not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderItem) TableName() string { return "order_items" }
