package db

import (
	"context"
	"errors"

	"github.com/jayjaytrn/refund-desk/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Database is the persistent store. Every status change is a conditional
// write that reports false when the row was not in the expected state.
type Database interface {
	PutUniqueUserData(ctx context.Context, user models.User) error
	GetUserData(ctx context.Context, login string) (models.User, error)

	PutOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrderByCode(ctx context.Context, code string) (*models.Order, error)
	GetOrdersList(ctx context.Context, userID string) ([]*models.Order, error)
	GetOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	GetBrands(ctx context.Context) ([]string, error)

	AllotOrder(ctx context.Context, id string, assignee models.Assignee) (bool, error)
	AllotOrders(ctx context.Context, ids []string, assignee models.Assignee) (models.BulkAllotResult, error)
	PlaceOrder(ctx context.Context, id, userID string, placement models.Placement) (bool, error)
	ConfirmOrder(ctx context.Context, id string) (bool, error)

	PutRefund(ctx context.Context, refund *models.RefundRequest) error
	GetRefund(ctx context.Context, id string) (*models.RefundRequest, error)
	GetRefunds(ctx context.Context) ([]*models.RefundRequest, error)
	GetUserRefunds(ctx context.Context, userID string) ([]*models.RefundRequest, error)
	SetRefundStatus(ctx context.Context, id string, status models.RefundStatus) (bool, error)
	UpdatePendingRefund(ctx context.Context, id string, update models.RefundUpdate) (bool, error)

	Close() error
}
