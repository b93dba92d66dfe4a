// Package lifecycle owns the order state machine:
// unallotted -> allotted -> placed -> confirmed, forward only.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/internal/db"
	"github.com/jayjaytrn/refund-desk/models"
	"go.uber.org/zap"
)

var next = map[models.OrderStatus]models.OrderStatus{
	models.OrderUnallotted: models.OrderAllotted,
	models.OrderAllotted:   models.OrderPlaced,
	models.OrderPlaced:     models.OrderConfirmed,
}

func CanTransition(from, to models.OrderStatus) bool {
	n, ok := next[from]
	return ok && n == to
}

// Check returns an InvalidTransitionError unless to directly follows from.
func Check(from, to models.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	reason := "order is " + from.String()
	if from == to {
		reason = "order is already " + from.String()
	}
	return apperrors.InvalidTransition(from, to, reason)
}

type Service struct {
	Database db.Database
	Logger   *zap.SugaredLogger
}

func NewService(database db.Database, logger *zap.SugaredLogger) *Service {
	return &Service{
		Database: database,
		Logger:   logger,
	}
}

func ValidateNewOrder(in models.NewOrder) error {
	switch {
	case in.Quantity <= 0:
		return apperrors.Validation("quantity must be a positive integer")
	case in.Price.IsNegative():
		return apperrors.Validation("price must not be negative")
	case strings.TrimSpace(in.ProductName) == "":
		return apperrors.Validation("productName is required")
	case strings.TrimSpace(in.Address) == "":
		return apperrors.Validation("address is required")
	}
	return nil
}

// Import creates an unallotted order.
func (s *Service) Import(ctx context.Context, in models.NewOrder) (*models.Order, error) {
	if err := ValidateNewOrder(in); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:           uuid.New().String(),
		OrderCode:    strings.TrimSpace(in.OrderCode),
		Quantity:     in.Quantity,
		Price:        in.Price,
		ProductName:  strings.TrimSpace(in.ProductName),
		BrandName:    in.BrandName,
		Season:       in.Season,
		Address:      in.Address,
		OtherAddress: in.OtherAddress,
		ReviewerName: in.ReviewerName,
		MediatorName: in.MediatorName,
		Link:         in.Link,
		Status:       models.OrderUnallotted,
		SubmittedAt:  time.Now().UTC(),
	}
	err := s.Database.PutOrder(ctx, order)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, codeInUse(order.OrderCode)
	}
	if err != nil {
		return nil, apperrors.Store("import order", err)
	}

	s.Logger.Infow("order imported", "orderID", order.ID, "product", order.ProductName)
	return order, nil
}

// Place moves an allotted order to placed. Only the assigned user may do it.
func (s *Service) Place(ctx context.Context, userID, orderID string, p models.Placement) (*models.Order, error) {
	p.OrderCode = strings.TrimSpace(p.OrderCode)
	p.ReceiptURL = strings.TrimSpace(p.ReceiptURL)
	switch {
	case p.OrderCode == "":
		return nil, apperrors.Validation("orderCode is required")
	case p.Price.IsNegative():
		return nil, apperrors.Validation("price must not be negative")
	case p.ReceiptURL == "":
		return nil, apperrors.Validation("receiptUrl is required")
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err = Check(order.Status, models.OrderPlaced); err != nil {
		return nil, err
	}
	if order.Assignee == nil || order.Assignee.UserID != userID {
		return nil, apperrors.InvalidTransition(order.Status, models.OrderPlaced, "order is allotted to another user")
	}

	ok, err := s.Database.PlaceOrder(ctx, orderID, userID, p)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, codeInUse(p.OrderCode)
	}
	if err != nil {
		return nil, apperrors.Store("place order", err)
	}
	if !ok {
		return nil, apperrors.InvalidTransition(order.Status, models.OrderPlaced, "order changed while placing")
	}

	s.Logger.Infow("order placed", "orderID", orderID, "userID", userID, "orderCode", p.OrderCode)
	return s.getOrder(ctx, orderID)
}

// Confirm moves a placed order to confirmed.
func (s *Service) Confirm(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err = Check(order.Status, models.OrderConfirmed); err != nil {
		return nil, err
	}

	ok, err := s.Database.ConfirmOrder(ctx, orderID)
	if err != nil {
		return nil, apperrors.Store("confirm order", err)
	}
	if !ok {
		return nil, apperrors.InvalidTransition(order.Status, models.OrderConfirmed, "order changed while confirming")
	}

	s.Logger.Infow("order confirmed", "orderID", orderID)
	return s.getOrder(ctx, orderID)
}

// Orders lists the orders allotted to userID.
func (s *Service) Orders(ctx context.Context, userID string) ([]*models.Order, error) {
	orders, err := s.Database.GetOrdersList(ctx, userID)
	if err != nil {
		return nil, apperrors.Store("list orders", err)
	}
	return orders, nil
}

// Refunds and screenshot checks find orders by code, so a code names one order.
func codeInUse(code string) error {
	return apperrors.Conflict("order code already in use", code)
}

func (s *Service) getOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, apperrors.Validation("invalid order id %q", orderID)
	}
	order, err := s.Database.GetOrder(ctx, orderID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.NotFound("order", orderID)
	}
	if err != nil {
		return nil, apperrors.Store("get order", err)
	}
	return order, nil
}
