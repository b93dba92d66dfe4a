package allotment

import (
	"context"
	"errors"
	"fmt"
	"sync"
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

func seedOrders(store *dbtest.Memory, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.New().String()
		store.SeedOrder(models.Order{
			ID:          ids[i],
			Quantity:    1,
			Price:       decimal.NewFromInt(100),
			ProductName: fmt.Sprintf("product %d", i),
			Address:     "street 1",
			Status:      models.OrderUnallotted,
			SubmittedAt: time.Now(),
		})
	}
	return ids
}

func newCoordinator(store *dbtest.Memory) *Coordinator {
	return NewCoordinator(store, time.Second, zap.NewNop().Sugar())
}

func bulkRequest(ids []string, userID string) models.BulkAllotRequest {
	return models.BulkAllotRequest{OrderIDs: ids, UserID: userID, UserName: "User " + userID[:4], UserEmail: userID[:4] + "@example.com"}
}

func TestAllot(t *testing.T) {
	store := dbtest.NewMemory()
	ids := seedOrders(store, 1)
	c := newCoordinator(store)
	userID := uuid.New().String()
	req := models.AllotRequest{UserID: userID, UserName: "Asha", UserEmail: "asha@example.com"}

	order, err := c.Allot(context.Background(), ids[0], req)
	require.NoError(t, err)
	assert.Equal(t, models.OrderAllotted, order.Status)
	require.NotNil(t, order.Assignee)
	assert.Equal(t, userID, order.Assignee.UserID)

	t.Run("SecondAllotConflicts", func(t *testing.T) {
		other := models.AllotRequest{UserID: uuid.New().String(), UserName: "Ravi", UserEmail: "ravi@example.com"}
		_, err := c.Allot(context.Background(), ids[0], other)
		var conflict *apperrors.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, []string{ids[0]}, conflict.IDs)

		stored, err := store.GetOrder(context.Background(), ids[0])
		require.NoError(t, err)
		assert.Equal(t, userID, stored.Assignee.UserID)
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		_, err := c.Allot(context.Background(), uuid.New().String(), req)
		var notFound *apperrors.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("MissingUser", func(t *testing.T) {
		_, err := c.Allot(context.Background(), ids[0], models.AllotRequest{UserID: userID})
		var validation *apperrors.ValidationError
		assert.True(t, errors.As(err, &validation))
	})
}

func TestBulkAllot(t *testing.T) {
	t.Run("AllUnallotted", func(t *testing.T) {
		store := dbtest.NewMemory()
		ids := seedOrders(store, 3)
		userID := uuid.New().String()

		modified, err := newCoordinator(store).BulkAllot(context.Background(), bulkRequest(ids, userID))
		require.NoError(t, err)
		assert.Equal(t, int64(3), modified)

		for _, id := range ids {
			order, err := store.GetOrder(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, models.OrderAllotted, order.Status)
			assert.Equal(t, userID, order.Assignee.UserID)
		}
	})

	t.Run("OneAlreadyAllottedRejectsBatch", func(t *testing.T) {
		store := dbtest.NewMemory()
		ids := seedOrders(store, 2)
		c := newCoordinator(store)
		first := uuid.New().String()

		_, err := c.Allot(context.Background(), ids[0], models.AllotRequest{UserID: first, UserName: "A", UserEmail: "a@example.com"})
		require.NoError(t, err)

		_, err = c.BulkAllot(context.Background(), bulkRequest(ids, uuid.New().String()))
		var conflict *apperrors.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, []string{ids[0]}, conflict.IDs)

		o2, err := store.GetOrder(context.Background(), ids[1])
		require.NoError(t, err)
		assert.Equal(t, models.OrderUnallotted, o2.Status)
		assert.Nil(t, o2.Assignee)
	})

	t.Run("DuplicatesCollapse", func(t *testing.T) {
		store := dbtest.NewMemory()
		ids := seedOrders(store, 1)

		modified, err := newCoordinator(store).BulkAllot(context.Background(), bulkRequest([]string{ids[0], ids[0]}, uuid.New().String()))
		require.NoError(t, err)
		assert.Equal(t, int64(1), modified)
	})

	t.Run("UnknownOrderRejectsBatch", func(t *testing.T) {
		store := dbtest.NewMemory()
		ids := seedOrders(store, 1)

		missing := uuid.New().String()

		_, err := newCoordinator(store).BulkAllot(context.Background(), bulkRequest([]string{ids[0], missing}, uuid.New().String()))
		var notFound *apperrors.NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, []string{missing}, notFound.IDs)

		o1, err := store.GetOrder(context.Background(), ids[0])
		require.NoError(t, err)
		assert.Equal(t, models.OrderUnallotted, o1.Status)
	})

	t.Run("Validation", func(t *testing.T) {
		c := newCoordinator(dbtest.NewMemory())
		var validation *apperrors.ValidationError

		_, err := c.BulkAllot(context.Background(), bulkRequest(nil, uuid.New().String()))
		assert.True(t, errors.As(err, &validation))

		_, err = c.BulkAllot(context.Background(), bulkRequest([]string{"not-a-uuid"}, uuid.New().String()))
		assert.True(t, errors.As(err, &validation))
	})

	t.Run("StoreFailureIsInfrastructure", func(t *testing.T) {
		store := dbtest.NewMemory()
		ids := seedOrders(store, 1)
		store.Err = context.DeadlineExceeded

		_, err := newCoordinator(store).BulkAllot(context.Background(), bulkRequest(ids, uuid.New().String()))
		var infra *apperrors.InfrastructureError
		require.True(t, errors.As(err, &infra))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestBulkAllotConcurrentOverlap(t *testing.T) {
	store := dbtest.NewMemory()
	ids := seedOrders(store, 6)
	c := newCoordinator(store)

	// each batch overlaps its neighbours
	batches := [][]string{
		{ids[0], ids[1], ids[2]},
		{ids[2], ids[3]},
		{ids[3], ids[4], ids[5]},
		{ids[1], ids[4]},
		{ids[5], ids[0]},
		{ids[0], ids[1], ids[2], ids[3], ids[4], ids[5]},
	}

	users := make([]string, len(batches))
	succeeded := make([]bool, len(batches))
	var wg sync.WaitGroup
	for i := range batches {
		users[i] = uuid.New().String()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.BulkAllot(context.Background(), bulkRequest(batches[i], users[i]))
			succeeded[i] = err == nil
		}(i)
	}
	wg.Wait()

	owner := make(map[string]string)
	for i, batch := range batches {
		if !succeeded[i] {
			continue
		}
		for _, id := range batch {
			prev, taken := owner[id]
			require.False(t, taken, "order %s granted to %s and %s", id, prev, users[i])
			owner[id] = users[i]
		}
	}
	require.NotEmpty(t, owner)

	for _, id := range ids {
		order, err := store.GetOrder(context.Background(), id)
		require.NoError(t, err)
		if want, ok := owner[id]; ok {
			require.NotNil(t, order.Assignee)
			assert.Equal(t, want, order.Assignee.UserID)
		} else {
			assert.Equal(t, models.OrderUnallotted, order.Status)
		}
	}
}
