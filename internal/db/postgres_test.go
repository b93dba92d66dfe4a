package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jayjaytrn/refund-desk/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	orderOne = "11111111-1111-1111-1111-111111111111"
	orderTwo = "22222222-2222-2222-2222-222222222222"
)

var assignee = models.Assignee{UserID: "user-uuid", UserName: "Asha", UserEmail: "asha@example.com"}

func newMock(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	mockdb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockdb.Close() })
	return &Manager{Db: mockdb}, mock
}

var orderRowColumns = []string{"id", "order_code", "quantity", "price", "product_name", "brand_name", "season",
	"address", "other_address", "reviewer_name", "mediator_name", "link", "receipt_url", "status",
	"user_id", "user_name", "user_email", "submitted_at"}

func TestAllotOrders(t *testing.T) {
	t.Run("AllUnallotted", func(t *testing.T) {
		manager, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, status FROM orders WHERE id IN \(\$1, \$2\) ORDER BY id FOR UPDATE`).
			WithArgs(orderOne, orderTwo).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
				AddRow(orderOne, "unallotted").
				AddRow(orderTwo, "unallotted"))
		mock.ExpectExec(`UPDATE orders SET status = \$1, user_id = \$2, user_name = \$3, user_email = \$4 WHERE status = \$5 AND id IN \(\$6, \$7\)`).
			WithArgs(models.OrderAllotted, assignee.UserID, assignee.UserName, assignee.UserEmail,
				models.OrderUnallotted, orderOne, orderTwo).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		result, err := manager.AllotOrders(context.Background(), []string{orderOne, orderTwo}, assignee)
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Modified)
		assert.Empty(t, result.AlreadyAllotted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OneAlreadyAllottedRollsBack", func(t *testing.T) {
		manager, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, status FROM orders WHERE id IN \(\$1, \$2\) ORDER BY id FOR UPDATE`).
			WithArgs(orderOne, orderTwo).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
				AddRow(orderOne, "allotted").
				AddRow(orderTwo, "unallotted"))
		mock.ExpectRollback()

		result, err := manager.AllotOrders(context.Background(), []string{orderOne, orderTwo}, assignee)
		require.NoError(t, err)
		assert.Equal(t, []string{orderOne}, result.AlreadyAllotted)
		assert.Zero(t, result.Modified)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingOrderRollsBack", func(t *testing.T) {
		manager, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, status FROM orders WHERE id IN \(\$1, \$2\) ORDER BY id FOR UPDATE`).
			WithArgs(orderOne, orderTwo).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(orderOne, "unallotted"))
		mock.ExpectRollback()

		result, err := manager.AllotOrders(context.Background(), []string{orderOne, orderTwo}, assignee)
		require.NoError(t, err)
		assert.Equal(t, []string{orderTwo}, result.Missing)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LockFailureRollsBack", func(t *testing.T) {
		manager, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, status FROM orders`).
			WillReturnError(context.DeadlineExceeded)
		mock.ExpectRollback()

		_, err := manager.AllotOrders(context.Background(), []string{orderOne}, assignee)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ShortUpdateRollsBack", func(t *testing.T) {
		manager, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, status FROM orders`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
				AddRow(orderOne, "unallotted").
				AddRow(orderTwo, "unallotted"))
		mock.ExpectExec(`UPDATE orders SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		_, err := manager.AllotOrders(context.Background(), []string{orderOne, orderTwo}, assignee)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAllotOrder(t *testing.T) {
	manager, mock := newMock(t)

	mock.ExpectExec(`UPDATE orders SET status = \$1, user_id = \$2, user_name = \$3, user_email = \$4 WHERE id = \$5 AND status = \$6`).
		WithArgs(models.OrderAllotted, assignee.UserID, assignee.UserName, assignee.UserEmail, orderOne, models.OrderUnallotted).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := manager.AllotOrder(context.Background(), orderOne, assignee)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder(t *testing.T) {
	manager, mock := newMock(t)
	placement := models.Placement{OrderCode: "ABC123", Price: decimal.NewFromInt(1200), ReceiptURL: "/uploads/r.png"}

	mock.ExpectExec(`UPDATE orders SET status = \$1, order_code = \$2, price = \$3, receipt_url = \$4 WHERE id = \$5 AND user_id = \$6 AND status = \$7`).
		WithArgs(models.OrderPlaced, "ABC123", sqlmock.AnyArg(), "/uploads/r.png", orderOne, "user-uuid", models.OrderAllotted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := manager.PlaceOrder(context.Background(), orderOne, "user-uuid", placement)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderTakenCode(t *testing.T) {
	manager, mock := newMock(t)
	placement := models.Placement{OrderCode: "abc123", Price: decimal.NewFromInt(900), ReceiptURL: "/uploads/r.png"}

	mock.ExpectExec(`UPDATE orders SET status = \$1, order_code = \$2`).
		WithArgs(models.OrderPlaced, "abc123", sqlmock.AnyArg(), "/uploads/r.png", orderTwo, "user-uuid", models.OrderAllotted).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_order_code_idx"})

	ok, err := manager.PlaceOrder(context.Background(), orderTwo, "user-uuid", placement)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutOrderTakenCode(t *testing.T) {
	manager, mock := newMock(t)
	order := &models.Order{ID: orderTwo, OrderCode: "ABC123", Quantity: 1, Price: decimal.NewFromInt(10),
		ProductName: "Cable", Address: "street 3", SubmittedAt: time.Now()}

	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := manager.PutOrder(context.Background(), order)
	assert.ErrorIs(t, err, ErrDuplicate)

	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnError(&pgconn.PgError{Code: "23514"})

	err = manager.PutOrder(context.Background(), order)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrders(t *testing.T) {
	submitted := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("AllFilters", func(t *testing.T) {
		manager, mock := newMock(t)

		mock.ExpectQuery(`SELECT .+ FROM orders WHERE brand_name = \$1 AND season = \$2 AND submitted_at >= \$3 AND submitted_at < \$4 AND status IN \(\$5, \$6\) ORDER BY submitted_at DESC`).
			WithArgs("Acme", "summer", from, to, models.OrderPlaced, models.OrderConfirmed).
			WillReturnRows(sqlmock.NewRows(orderRowColumns).
				AddRow(orderOne, "ABC123", 1, "1200.00", "Phone", "Acme", "summer", "street 1", "", "", "", "", "",
					"placed", "user-uuid", "Asha", "asha@example.com", submitted))

		orders, err := manager.GetOrders(context.Background(), models.OrderFilter{
			BrandName: "Acme",
			Season:    "summer",
			From:      from,
			To:        to,
			Statuses:  []models.OrderStatus{models.OrderPlaced, models.OrderConfirmed},
		})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "Acme", orders[0].BrandName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ByUser", func(t *testing.T) {
		manager, mock := newMock(t)

		mock.ExpectQuery(`SELECT .+ FROM orders WHERE user_id = \$1 AND status IN \(\$2\) ORDER BY submitted_at DESC`).
			WithArgs("user-uuid", models.OrderConfirmed).
			WillReturnRows(sqlmock.NewRows(orderRowColumns))

		orders, err := manager.GetOrders(context.Background(), models.OrderFilter{
			UserID:   "user-uuid",
			Statuses: []models.OrderStatus{models.OrderConfirmed},
		})
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoFilter", func(t *testing.T) {
		manager, mock := newMock(t)

		mock.ExpectQuery(`SELECT .+ FROM orders ORDER BY submitted_at DESC`).
			WillReturnError(errors.New("connection reset"))

		_, err := manager.GetOrders(context.Background(), models.OrderFilter{})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBrands(t *testing.T) {
	manager, mock := newMock(t)

	mock.ExpectQuery(`SELECT DISTINCT brand_name FROM orders WHERE TRIM\(brand_name\) <> '' ORDER BY brand_name`).
		WillReturnRows(sqlmock.NewRows([]string{"brand_name"}).AddRow("Acme").AddRow("Globex"))

	brands, err := manager.GetBrands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, brands)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByCode(t *testing.T) {
	manager, mock := newMock(t)
	submitted := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM orders WHERE UPPER\(order_code\) = UPPER\(\$1\)`).
			WithArgs("abc123").
			WillReturnRows(sqlmock.NewRows(orderRowColumns).
				AddRow(orderOne, "ABC123", 1, "1200.00", "Phone", "Acme", "", "street 1", "", "", "", "", "",
					"placed", "user-uuid", "Asha", "asha@example.com", submitted))

		order, err := manager.GetOrderByCode(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, models.OrderPlaced, order.Status)
		assert.True(t, order.Price.Equal(decimal.NewFromInt(1200)))
		require.NotNil(t, order.Assignee)
		assert.Equal(t, "user-uuid", order.Assignee.UserID)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM orders WHERE UPPER\(order_code\)`).
			WithArgs("nope123").
			WillReturnRows(sqlmock.NewRows(orderRowColumns))

		_, err := manager.GetOrderByCode(context.Background(), "nope123")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPutUniqueUserData(t *testing.T) {
	manager, mock := newMock(t)
	user := models.User{UUID: "user-uuid", Login: "asha@example.com", Name: "Asha", Password: "hash", Role: models.RoleUser}

	mock.ExpectExec(`INSERT INTO users \(uuid, login, name, password, role\)`).
		WithArgs(user.UUID, user.Login, user.Name, user.Password, user.Role).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := manager.PutUniqueUserData(context.Background(), user)
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestSetRefundStatus(t *testing.T) {
	manager, mock := newMock(t)

	mock.ExpectExec(`UPDATE refunds SET status = \$1 WHERE id = \$2 AND status = \$3`).
		WithArgs(models.RefundApproved, orderOne, models.RefundPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := manager.SetRefundStatus(context.Background(), orderOne, models.RefundApproved)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", placeholders(1, 1))
	assert.Equal(t, "$6, $7, $8", placeholders(3, 6))
}
