package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(UpRefundsTable, DownRefundsTable)
}

func UpRefundsTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE TABLE refunds
(
    id UUID PRIMARY KEY,
    order_code VARCHAR(255) NOT NULL,
    refund_amount NUMERIC(12, 2) NOT NULL CHECK (refund_amount >= 0),
    reason TEXT NOT NULL,
    screenshot_url TEXT NOT NULL DEFAULT '',
    product_name VARCHAR(255) NOT NULL,
    original_order_date VARCHAR(64) NOT NULL,
    customer_name VARCHAR(255) NOT NULL,
    mediator_name VARCHAR(255) NOT NULL,
    user_id UUID NOT NULL,
    user_name VARCHAR(255) NOT NULL,
    user_email VARCHAR(255) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    verification_status VARCHAR(16) NOT NULL CHECK (verification_status = 'verified'),
    extracted_order_code VARCHAR(255),
    extracted_amount NUMERIC(12, 2),
    verification_message TEXT NOT NULL DEFAULT '',
    submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL
);
CREATE INDEX refunds_user_id_idx ON refunds (user_id);`)
	return err
}

func DownRefundsTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DROP TABLE refunds;")
	return err
}
