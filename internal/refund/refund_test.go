package refund

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/internal/db/dbtest"
	"github.com/jayjaytrn/refund-desk/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var asha = models.Identity{UserID: uuid.New().String(), Name: "Asha", Email: "asha@example.com", Role: models.RoleUser}

func seedOrder(store *dbtest.Memory, code string, status models.OrderStatus, assignee *models.Identity) {
	order := models.Order{
		ID:          uuid.New().String(),
		OrderCode:   code,
		Quantity:    1,
		Price:       decimal.NewFromInt(1200),
		ProductName: "Kettle",
		Address:     "street 1",
		Status:      status,
		SubmittedAt: time.Now(),
	}
	if assignee != nil {
		order.Assignee = &models.Assignee{UserID: assignee.UserID, UserName: assignee.Name, UserEmail: assignee.Email}
	}
	store.SeedOrder(order)
}

func submission(code string) models.RefundSubmission {
	return models.RefundSubmission{
		OrderCode:    code,
		RefundAmount: decimal.NewFromInt(1200),
		Reason:       "damaged on arrival",
		CustomerName: "Meera",
		Verified:     true,
	}
}

func newWorkflow() (*Workflow, *dbtest.Memory) {
	store := dbtest.NewMemory()
	return NewWorkflow(store, zap.NewNop().Sugar()), store
}

func TestSubmit(t *testing.T) {
	w, store := newWorkflow()
	seedOrder(store, "ABC123", models.OrderPlaced, &asha)

	refund, err := w.Submit(context.Background(), asha, submission("ABC123"))
	require.NoError(t, err)
	assert.Equal(t, models.RefundPending, refund.Status)
	assert.Equal(t, models.VerificationVerified, refund.VerificationStatus)
	assert.Equal(t, asha.UserID, refund.UserID)
	assert.Equal(t, "Kettle", refund.ProductName)

	stored, err := store.GetRefund(context.Background(), refund.ID)
	require.NoError(t, err)
	assert.Equal(t, refund.OrderCode, stored.OrderCode)
}

func TestSubmitRequiresVerifiedFlag(t *testing.T) {
	w, store := newWorkflow()
	seedOrder(store, "ABC123", models.OrderPlaced, &asha)

	in := submission("ABC123")
	in.Verified = false
	_, err := w.Submit(context.Background(), asha, in)

	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, MessageVerificationRequired, validation.Msg)

	refunds, err := store.GetRefunds(context.Background())
	require.NoError(t, err)
	assert.Empty(t, refunds)
}

func TestSubmitRejected(t *testing.T) {
	ravi := models.Identity{UserID: uuid.New().String(), Name: "Ravi", Email: "ravi@example.com", Role: models.RoleUser}
	admin := models.Identity{UserID: uuid.New().String(), Name: "Root", Email: "root@example.com", Role: models.RoleAdmin}

	t.Run("UnknownOrder", func(t *testing.T) {
		w, _ := newWorkflow()
		_, err := w.Submit(context.Background(), asha, submission("NOPE42"))
		var notFound *apperrors.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("OrderNotPlaced", func(t *testing.T) {
		w, store := newWorkflow()
		seedOrder(store, "ABC123", models.OrderAllotted, &asha)
		_, err := w.Submit(context.Background(), asha, submission("ABC123"))
		var invalid *apperrors.InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("SomeoneElsesOrder", func(t *testing.T) {
		w, store := newWorkflow()
		seedOrder(store, "ABC123", models.OrderPlaced, &asha)
		_, err := w.Submit(context.Background(), ravi, submission("ABC123"))
		var validation *apperrors.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("AdminMaySubmitForAnyOrder", func(t *testing.T) {
		w, store := newWorkflow()
		seedOrder(store, "ABC123", models.OrderConfirmed, &asha)
		_, err := w.Submit(context.Background(), admin, submission("ABC123"))
		assert.NoError(t, err)
	})

	t.Run("ZeroAmount", func(t *testing.T) {
		w, store := newWorkflow()
		seedOrder(store, "ABC123", models.OrderPlaced, &asha)
		in := submission("ABC123")
		in.RefundAmount = decimal.Zero
		_, err := w.Submit(context.Background(), asha, in)
		var validation *apperrors.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("StoreDown", func(t *testing.T) {
		w, store := newWorkflow()
		store.Err = errors.New("connection reset")
		_, err := w.Submit(context.Background(), asha, submission("ABC123"))
		var infra *apperrors.InfrastructureError
		assert.ErrorAs(t, err, &infra)
	})
}

func seedRefund(store *dbtest.Memory, status models.RefundStatus) string {
	id := uuid.New().String()
	store.SeedRefund(models.RefundRequest{
		ID:                 id,
		OrderCode:          "ABC123",
		RefundAmount:       decimal.NewFromInt(1200),
		Reason:             "damaged",
		UserID:             asha.UserID,
		Status:             status,
		VerificationStatus: models.VerificationVerified,
		SubmittedAt:        time.Now(),
	})
	return id
}

func TestDecide(t *testing.T) {
	w, store := newWorkflow()
	approveID := seedRefund(store, models.RefundPending)
	rejectID := seedRefund(store, models.RefundPending)

	refund, err := w.Approve(context.Background(), approveID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundApproved, refund.Status)

	refund, err = w.Reject(context.Background(), rejectID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundRejected, refund.Status)

	t.Run("TerminalStatesStay", func(t *testing.T) {
		_, err := w.Reject(context.Background(), approveID)
		var invalid *apperrors.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "approved", invalid.From)

		_, err = w.Approve(context.Background(), rejectID)
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("BackToPendingRefused", func(t *testing.T) {
		_, err := w.Decide(context.Background(), approveID, models.RefundPending)
		var invalid *apperrors.InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := w.Approve(context.Background(), uuid.New().String())
		var notFound *apperrors.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("MalformedID", func(t *testing.T) {
		_, err := w.Approve(context.Background(), "42")
		var validation *apperrors.ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestUpdate(t *testing.T) {
	w, store := newWorkflow()
	pendingID := seedRefund(store, models.RefundPending)
	approvedID := seedRefund(store, models.RefundApproved)
	reason := "wrong size"

	refund, err := w.Update(context.Background(), pendingID, models.RefundUpdate{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, reason, refund.Reason)
	assert.Equal(t, models.RefundPending, refund.Status)

	_, err = w.Update(context.Background(), approvedID, models.RefundUpdate{Reason: &reason})
	var invalid *apperrors.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)

	_, err = w.Update(context.Background(), pendingID, models.RefundUpdate{})
	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestList(t *testing.T) {
	w, store := newWorkflow()
	seedRefund(store, models.RefundPending)
	store.SeedRefund(models.RefundRequest{
		ID:                 uuid.New().String(),
		UserID:             uuid.New().String(),
		Status:             models.RefundPending,
		VerificationStatus: models.VerificationVerified,
		SubmittedAt:        time.Now(),
	})

	all, err := w.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := w.ListForUser(context.Background(), asha.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, asha.UserID, mine[0].UserID)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.RefundPending, models.RefundApproved))
	assert.True(t, CanTransition(models.RefundPending, models.RefundRejected))
	assert.False(t, CanTransition(models.RefundApproved, models.RefundRejected))
	assert.False(t, CanTransition(models.RefundRejected, models.RefundPending))
	assert.False(t, CanTransition(models.RefundPending, models.RefundPending))
}
