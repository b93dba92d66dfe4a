package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jayjaytrn/refund-desk/models"
)

const orderColumns = `id, order_code, quantity, price, product_name, brand_name, season, address,
		other_address, reviewer_name, mediator_name, link, receipt_url, status,
		user_id, user_name, user_email, submitted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o                           models.Order
		userID, userName, userEmail sql.NullString
	)
	err := row.Scan(&o.ID, &o.OrderCode, &o.Quantity, &o.Price, &o.ProductName, &o.BrandName, &o.Season,
		&o.Address, &o.OtherAddress, &o.ReviewerName, &o.MediatorName, &o.Link, &o.ReceiptURL, &o.Status,
		&userID, &userName, &userEmail, &o.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		o.Assignee = &models.Assignee{
			UserID:    userID.String,
			UserName:  userName.String,
			UserEmail: userEmail.String,
		}
	}
	return &o, nil
}

func (m *Manager) PutOrder(ctx context.Context, order *models.Order) error {
	_, err := m.Db.ExecContext(ctx, `
		INSERT INTO orders (id, order_code, quantity, price, product_name, brand_name, season, address,
			other_address, reviewer_name, mediator_name, link, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, order.ID, order.OrderCode, order.Quantity, order.Price, order.ProductName, order.BrandName, order.Season,
		order.Address, order.OtherAddress, order.ReviewerName, order.MediatorName, order.Link,
		models.OrderUnallotted, order.SubmittedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("order code %s: %w", order.OrderCode, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *Manager) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := scanOrder(m.Db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// GetOrderByCode returns the order carrying the external code, compared case-insensitively.
func (m *Manager) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	order, err := scanOrder(m.Db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE UPPER(order_code) = UPPER($1) ORDER BY submitted_at DESC LIMIT 1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order code %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by code: %w", err)
	}
	return order, nil
}

func (m *Manager) GetOrdersList(ctx context.Context, userID string) ([]*models.Order, error) {
	return m.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY submitted_at DESC`, userID)
}

// GetOrders lists the orders matching every set field of filter, newest first.
func (m *Manager) GetOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	var (
		conds []string
		args  []any
	)
	where := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.BrandName != "" {
		where("brand_name = $%d", filter.BrandName)
	}
	if filter.UserID != "" {
		where("user_id = $%d", filter.UserID)
	}
	if filter.Season != "" {
		where("season = $%d", filter.Season)
	}
	if !filter.From.IsZero() {
		where("submitted_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		where("submitted_at < $%d", filter.To)
	}
	if len(filter.Statuses) > 0 {
		conds = append(conds, "status IN ("+placeholders(len(filter.Statuses), len(args)+1)+")")
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	return m.queryOrders(ctx, query+` ORDER BY submitted_at DESC`, args...)
}

func (m *Manager) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := m.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetBrands returns the distinct non-blank brand names in alphabetical order.
func (m *Manager) GetBrands(ctx context.Context) ([]string, error) {
	rows, err := m.Db.QueryContext(ctx, `SELECT DISTINCT brand_name FROM orders
		WHERE TRIM(brand_name) <> '' ORDER BY brand_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := make([]string, 0)
	for rows.Next() {
		var brand string
		if err = rows.Scan(&brand); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, brand)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

func (m *Manager) AllotOrder(ctx context.Context, id string, assignee models.Assignee) (bool, error) {
	res, err := m.Db.ExecContext(ctx, `
		UPDATE orders SET status = $1, user_id = $2, user_name = $3, user_email = $4
		WHERE id = $5 AND status = $6
	`, models.OrderAllotted, assignee.UserID, assignee.UserName, assignee.UserEmail, id, models.OrderUnallotted)
	if err != nil {
		return false, fmt.Errorf("failed to allot order: %w", err)
	}
	return affectedOne(res)
}

// AllotOrders checks and allots the whole set inside one transaction. The rows are
// locked in id order so overlapping batches serialise instead of deadlocking.
// Nothing is written unless every id exists and is unallotted.
func (m *Manager) AllotOrders(ctx context.Context, ids []string, assignee models.Assignee) (models.BulkAllotResult, error) {
	var result models.BulkAllotResult

	tx, err := m.Db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin allotment: %w", err)
	}
	defer tx.Rollback()

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, status FROM orders WHERE id IN (`+placeholders(len(ids), 1)+
		`) ORDER BY id FOR UPDATE`, args...)
	if err != nil {
		return result, fmt.Errorf("failed to lock orders: %w", err)
	}
	statuses := make(map[string]models.OrderStatus, len(ids))
	for rows.Next() {
		var (
			id     string
			status models.OrderStatus
		)
		if err = rows.Scan(&id, &status); err != nil {
			rows.Close()
			return result, fmt.Errorf("failed to scan order status: %w", err)
		}
		statuses[id] = status
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return result, fmt.Errorf("failed to lock orders: %w", err)
	}

	for _, id := range ids {
		status, ok := statuses[id]
		switch {
		case !ok:
			result.Missing = append(result.Missing, id)
		case status != models.OrderUnallotted:
			result.AlreadyAllotted = append(result.AlreadyAllotted, id)
		}
	}
	if len(result.Missing) > 0 || len(result.AlreadyAllotted) > 0 {
		return result, nil
	}

	updateArgs := append([]any{models.OrderAllotted, assignee.UserID, assignee.UserName, assignee.UserEmail,
		models.OrderUnallotted}, args...)
	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, user_id = $2, user_name = $3, user_email = $4
		WHERE status = $5 AND id IN (`+placeholders(len(ids), 6)+`)`, updateArgs...)
	if err != nil {
		return result, fmt.Errorf("failed to allot orders: %w", err)
	}
	modified, err := res.RowsAffected()
	if err != nil {
		return result, fmt.Errorf("failed to allot orders: %w", err)
	}
	if modified != int64(len(ids)) {
		return result, fmt.Errorf("allotted %d of %d locked orders", modified, len(ids))
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit allotment: %w", err)
	}
	result.Modified = modified
	return result, nil
}

func (m *Manager) PlaceOrder(ctx context.Context, id, userID string, placement models.Placement) (bool, error) {
	res, err := m.Db.ExecContext(ctx, `
		UPDATE orders SET status = $1, order_code = $2, price = $3, receipt_url = $4
		WHERE id = $5 AND user_id = $6 AND status = $7
	`, models.OrderPlaced, placement.OrderCode, placement.Price, placement.ReceiptURL, id, userID, models.OrderAllotted)
	if isUniqueViolation(err) {
		return false, fmt.Errorf("order code %s: %w", placement.OrderCode, ErrDuplicate)
	}
	if err != nil {
		return false, fmt.Errorf("failed to place order: %w", err)
	}
	return affectedOne(res)
}

func (m *Manager) ConfirmOrder(ctx context.Context, id string) (bool, error) {
	res, err := m.Db.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
		models.OrderConfirmed, id, models.OrderPlaced)
	if err != nil {
		return false, fmt.Errorf("failed to confirm order: %w", err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}
