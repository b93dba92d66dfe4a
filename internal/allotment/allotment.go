// Package allotment assigns unallotted orders to users, one at a time or in
// batches, so that no order is ever assigned twice.
package allotment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/internal/db"
	"github.com/jayjaytrn/refund-desk/internal/lifecycle"
	"github.com/jayjaytrn/refund-desk/models"
	"go.uber.org/zap"
)

type Coordinator struct {
	Database db.Database
	Timeout  time.Duration
	Logger   *zap.SugaredLogger
}

func NewCoordinator(database db.Database, timeout time.Duration, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		Database: database,
		Timeout:  timeout,
		Logger:   logger,
	}
}

// Allot assigns a single unallotted order. An order that is already allotted
// yields a ConflictError.
func (c *Coordinator) Allot(ctx context.Context, orderID string, req models.AllotRequest) (*models.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, apperrors.Validation("invalid order id %q", orderID)
	}
	assignee, err := toAssignee(req.UserID, req.UserName, req.UserEmail)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ok, err := c.Database.AllotOrder(ctx, orderID, assignee)
	if err != nil {
		return nil, apperrors.Store("allot order", err)
	}

	order, err := c.Database.GetOrder(ctx, orderID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.NotFound("order", orderID)
	}
	if err != nil {
		return nil, apperrors.Store("get order", err)
	}
	if !ok {
		if err = lifecycle.Check(order.Status, models.OrderAllotted); err != nil {
			return nil, apperrors.Conflict("order is already allotted", orderID)
		}
		return nil, apperrors.Conflict("order changed while allotting", orderID)
	}

	c.Logger.Infow("order allotted", "orderID", orderID, "userID", assignee.UserID)
	return order, nil
}

// BulkAllot assigns every order in req to one user or none of them. The check
// that all orders are unallotted and the write happen in one store transaction
// bounded by the coordinator timeout.
func (c *Coordinator) BulkAllot(ctx context.Context, req models.BulkAllotRequest) (int64, error) {
	if len(req.OrderIDs) == 0 {
		return 0, apperrors.Validation("order IDs array is required")
	}
	ids, err := normalizeIDs(req.OrderIDs)
	if err != nil {
		return 0, err
	}
	assignee, err := toAssignee(req.UserID, req.UserName, req.UserEmail)
	if err != nil {
		return 0, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := c.Database.AllotOrders(ctx, ids, assignee)
	if err != nil {
		return 0, apperrors.Store("bulk allot orders", err)
	}
	if len(result.AlreadyAllotted) > 0 {
		c.Logger.Infow("bulk allotment rejected", "alreadyAllotted", result.AlreadyAllotted, "userID", assignee.UserID)
		return 0, apperrors.Conflict(fmt.Sprintf("%d order(s) are already allotted", len(result.AlreadyAllotted)),
			result.AlreadyAllotted...)
	}
	if len(result.Missing) > 0 {
		return 0, apperrors.NotFound("orders", result.Missing...)
	}

	c.Logger.Infow("orders allotted", "count", result.Modified, "userID", assignee.UserID)
	return result.Modified, nil
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func toAssignee(userID, userName, userEmail string) (models.Assignee, error) {
	a := models.Assignee{
		UserID:    strings.TrimSpace(userID),
		UserName:  strings.TrimSpace(userName),
		UserEmail: strings.TrimSpace(userEmail),
	}
	if a.UserID == "" || a.UserName == "" || a.UserEmail == "" {
		return a, apperrors.Validation("user information is required")
	}
	if _, err := uuid.Parse(a.UserID); err != nil {
		return a, apperrors.Validation("invalid user id %q", a.UserID)
	}
	return a, nil
}

// normalizeIDs validates and de-duplicates ids, keeping first-seen order.
func normalizeIDs(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			return nil, apperrors.Validation("invalid order id %q", id)
		}
		s := parsed.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}
