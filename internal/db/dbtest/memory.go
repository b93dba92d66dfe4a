// Package dbtest provides an in-process db.Database for tests. All methods
// take one lock, so each call is atomic in the same way a transaction is.
package dbtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jayjaytrn/refund-desk/internal/db"
	"github.com/jayjaytrn/refund-desk/models"
)

type Memory struct {
	mu      sync.Mutex
	users   map[string]models.User
	orders  map[string]models.Order
	refunds map[string]models.RefundRequest

	// Err, when set, is returned by every call.
	Err error
}

var _ db.Database = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]models.User),
		orders:  make(map[string]models.Order),
		refunds: make(map[string]models.RefundRequest),
	}
}

// SeedOrder stores the order as is, whatever its status.
func (m *Memory) SeedOrder(order models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *Memory) SeedRefund(refund models.RefundRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[refund.ID] = refund
}

func (m *Memory) PutUniqueUserData(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.users[user.Login]; ok {
		return fmt.Errorf("login %s: %w", user.Login, db.ErrDuplicate)
	}
	m.users[user.Login] = user
	return nil
}

func (m *Memory) GetUserData(ctx context.Context, login string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.User{}, m.Err
	}
	user, ok := m.users[login]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", login, db.ErrNotFound)
	}
	return user, nil
}

func (m *Memory) PutOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.codeTaken(order.OrderCode, order.ID) {
		return fmt.Errorf("order code %s: %w", order.OrderCode, db.ErrDuplicate)
	}
	stored := *order
	stored.Status = models.OrderUnallotted
	stored.Assignee = nil
	m.orders[order.ID] = stored
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, db.ErrNotFound)
	}
	return copyOrder(order), nil
}

func (m *Memory) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var found *models.Order
	for _, order := range m.orders {
		if order.OrderCode != "" && strings.EqualFold(order.OrderCode, code) {
			if found == nil || order.SubmittedAt.After(found.SubmittedAt) {
				found = copyOrder(order)
			}
		}
	}
	if found == nil {
		return nil, fmt.Errorf("order code %s: %w", code, db.ErrNotFound)
	}
	return found, nil
}

func (m *Memory) GetOrdersList(ctx context.Context, userID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	orders := make([]*models.Order, 0)
	for _, order := range m.orders {
		if order.Assignee != nil && order.Assignee.UserID == userID {
			orders = append(orders, copyOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].SubmittedAt.After(orders[j].SubmittedAt) })
	return orders, nil
}

func (m *Memory) GetOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	orders := make([]*models.Order, 0)
	for _, order := range m.orders {
		if matches(order, filter) {
			orders = append(orders, copyOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].SubmittedAt.After(orders[j].SubmittedAt) })
	return orders, nil
}

func matches(order models.Order, filter models.OrderFilter) bool {
	switch {
	case filter.BrandName != "" && order.BrandName != filter.BrandName:
		return false
	case filter.UserID != "" && (order.Assignee == nil || order.Assignee.UserID != filter.UserID):
		return false
	case filter.Season != "" && order.Season != filter.Season:
		return false
	case !filter.From.IsZero() && order.SubmittedAt.Before(filter.From):
		return false
	case !filter.To.IsZero() && !order.SubmittedAt.Before(filter.To):
		return false
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, status := range filter.Statuses {
		if order.Status == status {
			return true
		}
	}
	return false
}

func (m *Memory) GetBrands(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	seen := make(map[string]bool)
	brands := make([]string, 0)
	for _, order := range m.orders {
		if strings.TrimSpace(order.BrandName) != "" && !seen[order.BrandName] {
			seen[order.BrandName] = true
			brands = append(brands, order.BrandName)
		}
	}
	sort.Strings(brands)
	return brands, nil
}

func (m *Memory) AllotOrder(ctx context.Context, id string, assignee models.Assignee) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	order, ok := m.orders[id]
	if !ok || order.Status != models.OrderUnallotted {
		return false, nil
	}
	order.Status = models.OrderAllotted
	order.Assignee = &assignee
	m.orders[id] = order
	return true, nil
}

func (m *Memory) AllotOrders(ctx context.Context, ids []string, assignee models.Assignee) (models.BulkAllotResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result models.BulkAllotResult
	if m.Err != nil {
		return result, m.Err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	for _, id := range ids {
		order, ok := m.orders[id]
		switch {
		case !ok:
			result.Missing = append(result.Missing, id)
		case order.Status != models.OrderUnallotted:
			result.AlreadyAllotted = append(result.AlreadyAllotted, id)
		}
	}
	if len(result.Missing) > 0 || len(result.AlreadyAllotted) > 0 {
		return result, nil
	}

	for _, id := range ids {
		order := m.orders[id]
		order.Status = models.OrderAllotted
		a := assignee
		order.Assignee = &a
		m.orders[id] = order
	}
	result.Modified = int64(len(ids))
	return result, nil
}

func (m *Memory) PlaceOrder(ctx context.Context, id, userID string, placement models.Placement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	order, ok := m.orders[id]
	if !ok || order.Status != models.OrderAllotted || order.Assignee == nil || order.Assignee.UserID != userID {
		return false, nil
	}
	if m.codeTaken(placement.OrderCode, id) {
		return false, fmt.Errorf("order code %s: %w", placement.OrderCode, db.ErrDuplicate)
	}
	order.Status = models.OrderPlaced
	order.OrderCode = placement.OrderCode
	order.Price = placement.Price
	order.ReceiptURL = placement.ReceiptURL
	m.orders[id] = order
	return true, nil
}

func (m *Memory) ConfirmOrder(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	order, ok := m.orders[id]
	if !ok || order.Status != models.OrderPlaced {
		return false, nil
	}
	order.Status = models.OrderConfirmed
	m.orders[id] = order
	return true, nil
}

func (m *Memory) PutRefund(ctx context.Context, refund *models.RefundRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if refund.VerificationStatus != models.VerificationVerified {
		return fmt.Errorf("refund %s: verification status %s violates check constraint", refund.ID, refund.VerificationStatus)
	}
	m.refunds[refund.ID] = *refund
	return nil
}

func (m *Memory) GetRefund(ctx context.Context, id string) (*models.RefundRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	refund, ok := m.refunds[id]
	if !ok {
		return nil, fmt.Errorf("refund %s: %w", id, db.ErrNotFound)
	}
	return &refund, nil
}

func (m *Memory) GetRefunds(ctx context.Context) ([]*models.RefundRequest, error) {
	return m.listRefunds(func(models.RefundRequest) bool { return true })
}

func (m *Memory) GetUserRefunds(ctx context.Context, userID string) ([]*models.RefundRequest, error) {
	return m.listRefunds(func(r models.RefundRequest) bool { return r.UserID == userID })
}

func (m *Memory) listRefunds(keep func(models.RefundRequest) bool) ([]*models.RefundRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	refunds := make([]*models.RefundRequest, 0)
	for _, refund := range m.refunds {
		if keep(refund) {
			r := refund
			refunds = append(refunds, &r)
		}
	}
	sort.Slice(refunds, func(i, j int) bool { return refunds[i].SubmittedAt.After(refunds[j].SubmittedAt) })
	return refunds, nil
}

func (m *Memory) SetRefundStatus(ctx context.Context, id string, status models.RefundStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	refund, ok := m.refunds[id]
	if !ok || refund.Status != models.RefundPending {
		return false, nil
	}
	refund.Status = status
	m.refunds[id] = refund
	return true, nil
}

func (m *Memory) UpdatePendingRefund(ctx context.Context, id string, update models.RefundUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	refund, ok := m.refunds[id]
	if !ok || refund.Status != models.RefundPending {
		return false, nil
	}
	if update.Reason != nil {
		refund.Reason = *update.Reason
	}
	if update.CustomerName != nil {
		refund.CustomerName = *update.CustomerName
	}
	if update.MediatorName != nil {
		refund.MediatorName = *update.MediatorName
	}
	m.refunds[id] = refund
	return true, nil
}

func (m *Memory) Close() error {
	return nil
}

// codeTaken mirrors the partial unique index on UPPER(order_code).
func (m *Memory) codeTaken(code, exceptID string) bool {
	if code == "" {
		return false
	}
	for id, order := range m.orders {
		if id != exceptID && strings.EqualFold(order.OrderCode, code) {
			return true
		}
	}
	return false
}

func copyOrder(order models.Order) *models.Order {
	o := order
	if order.Assignee != nil {
		a := *order.Assignee
		o.Assignee = &a
	}
	return &o
}
