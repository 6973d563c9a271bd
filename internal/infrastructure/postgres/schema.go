package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	price      NUMERIC(14,2) NOT NULL CHECK (price >= 0),
	stock      INTEGER NOT NULL CHECK (stock >= 0),
	held       INTEGER NOT NULL DEFAULT 0 CHECK (held >= 0 AND held <= stock),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	total_price    NUMERIC(14,2) NOT NULL,
	status         TEXT NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id, created_at);

CREATE TABLE IF NOT EXISTS order_items (
	order_id   TEXT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
	line       INTEGER NOT NULL,
	product_id TEXT NOT NULL REFERENCES products (id),
	quantity   INTEGER NOT NULL CHECK (quantity > 0),
	unit_price NUMERIC(14,2) NOT NULL,
	PRIMARY KEY (order_id, line)
);

CREATE TABLE IF NOT EXISTS stock_holds (
	order_id   TEXT NOT NULL,
	product_id TEXT NOT NULL REFERENCES products (id),
	qty        INTEGER NOT NULL CHECK (qty > 0),
	PRIMARY KEY (order_id, product_id)
);

CREATE TABLE IF NOT EXISTS payments (
	id                 TEXT PRIMARY KEY,
	order_id           TEXT NOT NULL REFERENCES orders (id),
	user_id            TEXT NOT NULL,
	amount             NUMERIC(14,2) NOT NULL CHECK (amount > 0),
	method             TEXT NOT NULL,
	status             TEXT NOT NULL,
	gateway_order_id   TEXT NOT NULL DEFAULT '',
	gateway_payment_id TEXT NOT NULL DEFAULT '',
	gateway_signature  TEXT NOT NULL DEFAULT '',
	failure_reason     TEXT NOT NULL DEFAULT '',
	paid_at            TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS payments_one_success_per_order
	ON payments (order_id) WHERE status = 'SUCCESS';
CREATE UNIQUE INDEX IF NOT EXISTS payments_gateway_key
	ON payments (gateway_order_id, gateway_payment_id) WHERE gateway_payment_id <> '';
CREATE INDEX IF NOT EXISTS payments_gateway_order
	ON payments (gateway_order_id) WHERE gateway_order_id <> '';
`

// Migrate creates the tables when missing. It is safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}
