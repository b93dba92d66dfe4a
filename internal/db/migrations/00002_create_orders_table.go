package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(UpOrdersTable, DownOrdersTable)
}

// The CHECK constraints keep the lifecycle invariants in the store itself:
// an assignee exists exactly when the order left unallotted, and a placed or
// confirmed order always carries its external code. Codes are unique
// case-insensitively once set.
func UpOrdersTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE TABLE orders
(
    id UUID PRIMARY KEY,
    order_code VARCHAR(255) NOT NULL DEFAULT '',
    quantity INT NOT NULL CHECK (quantity > 0),
    price NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
    product_name VARCHAR(255) NOT NULL,
    brand_name VARCHAR(255) NOT NULL DEFAULT '',
    season VARCHAR(255) NOT NULL DEFAULT '',
    address TEXT NOT NULL,
    other_address TEXT NOT NULL DEFAULT '',
    reviewer_name VARCHAR(255) NOT NULL DEFAULT '',
    mediator_name VARCHAR(255) NOT NULL DEFAULT '',
    link TEXT NOT NULL DEFAULT '',
    receipt_url TEXT NOT NULL DEFAULT '',
    status VARCHAR(16) NOT NULL DEFAULT 'unallotted'
        CHECK (status IN ('unallotted', 'allotted', 'placed', 'confirmed')),
    user_id UUID,
    user_name VARCHAR(255),
    user_email VARCHAR(255),
    submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
    CONSTRAINT orders_assignee_iff_allotted CHECK ((status = 'unallotted') = (user_id IS NULL)),
    CONSTRAINT orders_placed_has_code CHECK (status IN ('unallotted', 'allotted') OR order_code <> '')
);
CREATE UNIQUE INDEX orders_order_code_idx ON orders (UPPER(order_code)) WHERE order_code <> '';
CREATE INDEX orders_user_id_idx ON orders (user_id);
CREATE INDEX orders_brand_name_idx ON orders (brand_name);`)
	return err
}

func DownOrdersTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DROP TABLE orders;")
	return err
}
