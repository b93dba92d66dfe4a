// Package refund runs refund requests from submission to an admin decision.
package refund

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

const MessageVerificationRequired = "Screenshot verification required before submission"

var decisions = map[models.RefundStatus][]models.RefundStatus{
	models.RefundPending: {models.RefundApproved, models.RefundRejected},
}

func CanTransition(from, to models.RefundStatus) bool {
	for _, s := range decisions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Workflow struct {
	Database db.Database
	Logger   *zap.SugaredLogger
}

func NewWorkflow(database db.Database, logger *zap.SugaredLogger) *Workflow {
	return &Workflow{
		Database: database,
		Logger:   logger,
	}
}

// Submit creates a pending refund request for an order the caller has placed.
// A submission without the verified flag never reaches the store.
func (w *Workflow) Submit(ctx context.Context, who models.Identity, in models.RefundSubmission) (*models.RefundRequest, error) {
	if !in.Verified {
		return nil, apperrors.Validation(MessageVerificationRequired)
	}
	in.OrderCode = strings.TrimSpace(in.OrderCode)
	switch {
	case in.OrderCode == "":
		return nil, apperrors.Validation("orderId is required")
	case !in.RefundAmount.IsPositive():
		return nil, apperrors.Validation("refundAmount must be a positive number")
	case strings.TrimSpace(in.Reason) == "":
		return nil, apperrors.Validation("reason is required")
	}

	order, err := w.Database.GetOrderByCode(ctx, in.OrderCode)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.NotFound("order", in.OrderCode)
	}
	if err != nil {
		return nil, apperrors.Store("look up order", err)
	}
	if !order.Placed() {
		return nil, apperrors.InvalidTransition(order.Status, models.OrderPlaced, "refunds open once the order is placed")
	}
	if !who.IsAdmin() && (order.Assignee == nil || order.Assignee.UserID != who.UserID) {
		return nil, apperrors.Validation("order %s is not allotted to you", in.OrderCode)
	}

	productName := in.ProductName
	if productName == "" {
		productName = order.ProductName
	}
	refund := &models.RefundRequest{
		ID:                  uuid.New().String(),
		OrderCode:           in.OrderCode,
		RefundAmount:        in.RefundAmount,
		Reason:              strings.TrimSpace(in.Reason),
		ScreenshotURL:       in.ScreenshotURL,
		ProductName:         productName,
		OriginalOrderDate:   in.OriginalOrderDate,
		CustomerName:        in.CustomerName,
		MediatorName:        in.MediatorName,
		UserID:              who.UserID,
		UserName:            who.Name,
		UserEmail:           who.Email,
		Status:              models.RefundPending,
		VerificationStatus:  models.VerificationVerified,
		ExtractedOrderCode:  in.ExtractedOrderCode,
		ExtractedAmount:     in.ExtractedAmount,
		VerificationMessage: in.VerificationMessage,
		SubmittedAt:         time.Now().UTC(),
	}
	if err = w.Database.PutRefund(ctx, refund); err != nil {
		return nil, apperrors.Store("put refund", err)
	}

	w.Logger.Infow("refund submitted", "refundID", refund.ID, "orderCode", refund.OrderCode, "userID", who.UserID)
	return refund, nil
}

func (w *Workflow) Approve(ctx context.Context, refundID string) (*models.RefundRequest, error) {
	return w.Decide(ctx, refundID, models.RefundApproved)
}

func (w *Workflow) Reject(ctx context.Context, refundID string) (*models.RefundRequest, error) {
	return w.Decide(ctx, refundID, models.RefundRejected)
}

// Decide moves a pending refund to status. Approved and rejected are terminal.
func (w *Workflow) Decide(ctx context.Context, refundID string, status models.RefundStatus) (*models.RefundRequest, error) {
	refund, err := w.get(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(refund.Status, status) {
		return nil, apperrors.InvalidTransition(refund.Status, status, "refund is already "+refund.Status.String())
	}

	ok, err := w.Database.SetRefundStatus(ctx, refundID, status)
	if err != nil {
		return nil, apperrors.Store("set refund status", err)
	}
	if !ok {
		return nil, apperrors.InvalidTransition(refund.Status, status, "refund was decided concurrently")
	}

	w.Logger.Infow("refund decided", "refundID", refundID, "status", status)
	return w.get(ctx, refundID)
}

// Update edits the free-text fields of a pending refund.
func (w *Workflow) Update(ctx context.Context, refundID string, update models.RefundUpdate) (*models.RefundRequest, error) {
	if update.Empty() {
		return nil, apperrors.Validation("nothing to update")
	}
	refund, err := w.get(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if refund.Status != models.RefundPending {
		return nil, apperrors.InvalidTransition(refund.Status, refund.Status, "only pending refunds can be edited")
	}

	ok, err := w.Database.UpdatePendingRefund(ctx, refundID, update)
	if err != nil {
		return nil, apperrors.Store("update refund", err)
	}
	if !ok {
		return nil, apperrors.InvalidTransition(refund.Status, refund.Status, "refund was decided concurrently")
	}
	return w.get(ctx, refundID)
}

func (w *Workflow) List(ctx context.Context) ([]*models.RefundRequest, error) {
	refunds, err := w.Database.GetRefunds(ctx)
	if err != nil {
		return nil, apperrors.Store("list refunds", err)
	}
	return refunds, nil
}

func (w *Workflow) ListForUser(ctx context.Context, userID string) ([]*models.RefundRequest, error) {
	refunds, err := w.Database.GetUserRefunds(ctx, userID)
	if err != nil {
		return nil, apperrors.Store("list user refunds", err)
	}
	return refunds, nil
}

func (w *Workflow) get(ctx context.Context, refundID string) (*models.RefundRequest, error) {
	if _, err := uuid.Parse(refundID); err != nil {
		return nil, apperrors.Validation("invalid refund id %q", refundID)
	}
	refund, err := w.Database.GetRefund(ctx, refundID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.NotFound("refund", refundID)
	}
	if err != nil {
		return nil, apperrors.Store("get refund", err)
	}
	return refund, nil
}
