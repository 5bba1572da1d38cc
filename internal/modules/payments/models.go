package payments

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusInitiated = "initiated"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Payment struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	OrderID     string  `gorm:"type:char(36);not null;uniqueIndex:ux_payments_order_idem,priority:1"`
	Provider    string  `gorm:"type:varchar(64);not null"`
	ProviderRef *string `gorm:"type:varchar(128)"`
	Status      string  `gorm:"type:varchar(32);not null"`

	// Amount is the exact decimal string copied from the order total at
	// initiation time.
	Amount   string `gorm:"type:varchar(32);not null"`
	Currency string `gorm:"type:char(3);not null"`

	IdempotencyKey string  `gorm:"type:varchar(64);not null;uniqueIndex:ux_payments_order_idem,priority:2"`
	ErrorMessage   *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Payment) TableName() string { return "payments" }

// ProviderEvent is the append-only settlement ledger. It is the durable
// source of truth for "has this payment already been settled": unique on
// (provider, event id) and, when a resource id is present, unique on
// (provider, resource id). The second axis catches two different event ids
// referencing the same underlying payment resource.
type ProviderEvent struct {
	ID         string  `gorm:"type:char(36);primaryKey"`
	Provider   string  `gorm:"type:varchar(64);not null;uniqueIndex:ux_provider_events_provider_event,priority:1;uniqueIndex:ux_provider_events_provider_resource,priority:1"`
	EventID    string  `gorm:"type:varchar(128);not null;uniqueIndex:ux_provider_events_provider_event,priority:2"`
	ResourceID *string `gorm:"type:varchar(128);uniqueIndex:ux_provider_events_provider_resource,priority:2"`
	OrderID    string  `gorm:"type:char(36);not null;index:ix_provider_events_order_id"`

	PayloadJSON datatypes.JSON `gorm:"type:json"`
	ReceivedAt  time.Time      `gorm:"type:datetime(3);not null"`
}

func (ProviderEvent) TableName() string { return "provider_events" }
