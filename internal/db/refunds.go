package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jayjaytrn/refund-desk/models"
	"github.com/shopspring/decimal"
)

const refundColumns = `id, order_code, refund_amount, reason, screenshot_url, product_name, original_order_date,
		customer_name, mediator_name, user_id, user_name, user_email, status, verification_status,
		extracted_order_code, extracted_amount, verification_message, submitted_at`

func scanRefund(row rowScanner) (*models.RefundRequest, error) {
	var (
		r               models.RefundRequest
		extractedCode   sql.NullString
		extractedAmount decimal.NullDecimal
	)
	err := row.Scan(&r.ID, &r.OrderCode, &r.RefundAmount, &r.Reason, &r.ScreenshotURL, &r.ProductName,
		&r.OriginalOrderDate, &r.CustomerName, &r.MediatorName, &r.UserID, &r.UserName, &r.UserEmail,
		&r.Status, &r.VerificationStatus, &extractedCode, &extractedAmount, &r.VerificationMessage, &r.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if extractedCode.Valid {
		r.ExtractedOrderCode = &extractedCode.String
	}
	if extractedAmount.Valid {
		r.ExtractedAmount = &extractedAmount.Decimal
	}
	return &r, nil
}

func (m *Manager) PutRefund(ctx context.Context, refund *models.RefundRequest) error {
	var extractedAmount decimal.NullDecimal
	if refund.ExtractedAmount != nil {
		extractedAmount = decimal.NewNullDecimal(*refund.ExtractedAmount)
	}

	_, err := m.Db.ExecContext(ctx, `
		INSERT INTO refunds (id, order_code, refund_amount, reason, screenshot_url, product_name,
			original_order_date, customer_name, mediator_name, user_id, user_name, user_email, status,
			verification_status, extracted_order_code, extracted_amount, verification_message, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, refund.ID, refund.OrderCode, refund.RefundAmount, refund.Reason, refund.ScreenshotURL, refund.ProductName,
		refund.OriginalOrderDate, refund.CustomerName, refund.MediatorName, refund.UserID, refund.UserName,
		refund.UserEmail, refund.Status, refund.VerificationStatus, nullString(refund.ExtractedOrderCode),
		extractedAmount, refund.VerificationMessage, refund.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to insert refund: %w", err)
	}
	return nil
}

func (m *Manager) GetRefund(ctx context.Context, id string) (*models.RefundRequest, error) {
	refund, err := scanRefund(m.Db.QueryRowContext(ctx, `SELECT `+refundColumns+` FROM refunds WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("refund %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	return refund, nil
}

func (m *Manager) GetRefunds(ctx context.Context) ([]*models.RefundRequest, error) {
	return m.listRefunds(ctx, `SELECT `+refundColumns+` FROM refunds ORDER BY submitted_at DESC`)
}

func (m *Manager) GetUserRefunds(ctx context.Context, userID string) ([]*models.RefundRequest, error) {
	return m.listRefunds(ctx, `SELECT `+refundColumns+` FROM refunds WHERE user_id = $1 ORDER BY submitted_at DESC`, userID)
}

func (m *Manager) listRefunds(ctx context.Context, query string, args ...any) ([]*models.RefundRequest, error) {
	rows, err := m.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	refunds := make([]*models.RefundRequest, 0)
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, refund)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	return refunds, nil
}

func (m *Manager) SetRefundStatus(ctx context.Context, id string, status models.RefundStatus) (bool, error) {
	res, err := m.Db.ExecContext(ctx, `UPDATE refunds SET status = $1 WHERE id = $2 AND status = $3`,
		status, id, models.RefundPending)
	if err != nil {
		return false, fmt.Errorf("failed to set refund status: %w", err)
	}
	return affectedOne(res)
}

func (m *Manager) UpdatePendingRefund(ctx context.Context, id string, update models.RefundUpdate) (bool, error) {
	res, err := m.Db.ExecContext(ctx, `
		UPDATE refunds SET
			reason = COALESCE($1, reason),
			customer_name = COALESCE($2, customer_name),
			mediator_name = COALESCE($3, mediator_name)
		WHERE id = $4 AND status = $5
	`, nullString(update.Reason), nullString(update.CustomerName), nullString(update.MediatorName), id, models.RefundPending)
	if err != nil {
		return false, fmt.Errorf("failed to update refund: %w", err)
	}
	return affectedOne(res)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
