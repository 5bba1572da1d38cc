package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
	  id CHAR(36) NOT NULL,
	  slug VARCHAR(128) NOT NULL,
	  name VARCHAR(255) NOT NULL,
	  price VARCHAR(32) NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'EUR',
	  stock INT NOT NULL,
	  active TINYINT(1) NOT NULL DEFAULT 1,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_products_slug (slug)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS orders (
	  id CHAR(36) NOT NULL,
	  user_id CHAR(36) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  idempotency_key VARCHAR(64) NOT NULL,
	  provider_intent_id VARCHAR(128) NULL,
	  total_amount VARCHAR(32) NOT NULL,
	  currency CHAR(3) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_orders_user_idem (user_id, idempotency_key)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS order_items (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  product_id CHAR(36) NOT NULL,
	  qty INT NOT NULL,
	  unit_price VARCHAR(32) NOT NULL,
	  currency CHAR(3) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_order_items_order_id (order_id),
	  CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
	  CONSTRAINT fk_order_items_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS payments (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  provider VARCHAR(64) NOT NULL,
	  provider_ref VARCHAR(128) NULL,
	  status VARCHAR(32) NOT NULL,
	  amount VARCHAR(32) NOT NULL,
	  currency CHAR(3) NOT NULL,
	  idempotency_key VARCHAR(64) NOT NULL,
	  error_message VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_payments_order_idem (order_id, idempotency_key),
	  CONSTRAINT fk_payments_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS provider_events (
	  id CHAR(36) NOT NULL,
	  provider VARCHAR(64) NOT NULL,
	  event_id VARCHAR(128) NOT NULL,
	  resource_id VARCHAR(128) NULL,
	  order_id CHAR(36) NOT NULL,
	  payload_json JSON NULL,
	  received_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_provider_events_provider_event (provider, event_id),
	  UNIQUE KEY ux_provider_events_provider_resource (provider, resource_id),
	  KEY ix_provider_events_order_id (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
	}

	// a handful of products so the API is usable right after bootstrap
	seed := `INSERT IGNORE INTO products (id, slug, name, price, currency, stock, active) VALUES
	  (UUID(), 'classic-tee', 'Classic Tee', '19.99', 'EUR', 120, 1),
	  (UUID(), 'canvas-tote', 'Canvas Tote', '12.50', 'EUR', 80, 1),
	  (UUID(), 'enamel-mug', 'Enamel Mug', '9.00', 'EUR', 200, 1),
	  (UUID(), 'wool-beanie', 'Wool Beanie', '24.00', 'EUR', 45, 1)`
	if err := db.Exec(seed).Error; err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	log.Println("Tables created and seeded.")
}
