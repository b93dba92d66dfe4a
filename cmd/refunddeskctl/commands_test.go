package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/internal/db/dbtest"
	"github.com/jayjaytrn/refund-desk/internal/lifecycle"
	"github.com/jayjaytrn/refund-desk/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ordersYAML = `orders:
  - productName: Kettle
    brandName: Brewmaster
    quantity: 2
    price: 1200.50
    address: 12 Lake Road
    mediatorName: Ravi
  - productName: Toaster
    quantity: 1
    price: "799"
    address: 4 Hill Street
    orderId: TST-000001
`

func TestReadOrders(t *testing.T) {
	orders, err := readOrders(strings.NewReader(ordersYAML))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "Kettle", orders[0].ProductName)
	assert.Equal(t, 2, orders[0].Quantity)
	assert.True(t, decimal.RequireFromString("1200.50").Equal(orders[0].Price))
	assert.True(t, decimal.NewFromInt(799).Equal(orders[1].Price))
	assert.Equal(t, "TST-000001", orders[1].OrderCode)

	t.Run("UnknownField", func(t *testing.T) {
		_, err := readOrders(strings.NewReader("orders:\n  - productName: Kettle\n    colour: red\n"))
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := readOrders(strings.NewReader("orders: []\n"))
		assert.Error(t, err)
	})
}

func TestValidateOrders(t *testing.T) {
	orders, err := readOrders(strings.NewReader(ordersYAML))
	require.NoError(t, err)
	require.NoError(t, validateOrders(orders))

	orders[1].Quantity = 0
	err = validateOrders(orders)
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "order 2")

	orders[1].Quantity = 1
	orders[0].OrderCode = "tst-000001"
	err = validateOrders(orders)
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "repeats order 1")
}

func TestImportOrders(t *testing.T) {
	store := dbtest.NewMemory()
	svc := lifecycle.NewService(store, zap.NewNop().Sugar())
	orders, err := readOrders(strings.NewReader(ordersYAML))
	require.NoError(t, err)

	n, err := importOrders(context.Background(), svc, orders)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	order, err := store.GetOrderByCode(context.Background(), "tst-000001")
	require.NoError(t, err)
	assert.Equal(t, models.OrderUnallotted, order.Status)
	assert.Nil(t, order.Assignee)
}

func TestImportCommandDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ordersYAML), 0o600))

	cmd := importCmd()
	cmd.Flags().String("database-uri", "", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path, "--dry-run"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "2 order(s) are valid")
}

func TestImportCommandRequiresFile(t *testing.T) {
	cmd := importCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)

	assert.Error(t, cmd.Execute())
}
