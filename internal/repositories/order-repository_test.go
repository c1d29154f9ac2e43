package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
)

// testPool connects to TEST_DATABASE_URL and resets the schema. The
// whole file is skipped when the variable is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping repository integration tests")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("testdata/schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(), string(schema))
	require.NoError(t, err)

	return pool
}

func seedDriver(t *testing.T, pool *pgxpool.Pool, email, name string) string {
	t.Helper()

	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, full_name, role, password_hash) VALUES ($1, $2, $3, 'x') RETURNING id`,
		email, name, constants.RoleDriver,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func newTestOrder(number string, mutate ...func(*entities.Order)) *entities.Order {
	o := &entities.Order{
		ID:             uuid.NewString(),
		OrderNumber:    number,
		Date:           time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DeliveryWindow: constants.WindowAM,
		WeekNumber:     1,
		Market:         "Atlanta",
		DriverName:     constants.UnassignedDriverName,
		CustomerName:   "Test Customer",
		Status:         constants.StatusDispatched,
		IsDispatched:   true,
	}
	for _, m := range mutate {
		m(o)
	}
	return o
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool, zap.NewNop())
	ctx := context.Background()

	created, err := repo.CreateOrder(ctx, newTestOrder("ORD-1001"))
	require.NoError(t, err)
	assert.Equal(t, "ORD-1001", created.OrderNumber)
	assert.Equal(t, constants.StatusDispatched, created.Status)
	assert.False(t, created.IsLocked)

	found, err := repo.FindOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.OrderNumber, found.OrderNumber)
	assert.Equal(t, created.Market, found.Market)

	_, err = repo.CreateOrder(ctx, newTestOrder("ORD-1001"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = repo.FindOrder(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderRepository_UpdateOrderFieldsRespectsLock(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool, zap.NewNop())
	ctx := context.Background()

	created, err := repo.CreateOrder(ctx, newTestOrder("ORD-1002"))
	require.NoError(t, err)

	err = repo.UpdateOrderFields(ctx, created.ID, map[string]interface{}{"market": "Charlotte"})
	require.NoError(t, err)

	found, err := repo.FindOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Charlotte", found.Market)

	_, err = pool.Exec(ctx, `UPDATE orders SET is_locked = true WHERE id = $1`, created.ID)
	require.NoError(t, err)

	err = repo.UpdateOrderFields(ctx, created.ID, map[string]interface{}{"market": "Nashville"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repo.UpdateOrderFields(ctx, created.ID, map[string]interface{}{"is_delivered": true})
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))
}

func TestOrderRepository_GetOrdersFilters(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool, zap.NewNop())
	ctx := context.Background()
	driverID := seedDriver(t, pool, "dan@delivery.local", "Dan Driver")

	_, err := repo.CreateOrder(ctx, newTestOrder("ORD-2001", func(o *entities.Order) {
		o.DriverID = null.StringFrom(driverID)
		o.DriverName = "Dan Driver"
	}))
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, newTestOrder("ORD-2002", func(o *entities.Order) {
		o.CustomerName = "Acme Storage"
	}))
	require.NoError(t, err)
	archived, err := repo.CreateOrder(ctx, newTestOrder("ORD-2003"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE orders SET is_archived = true WHERE id = $1`, archived.ID)
	require.NoError(t, err)

	orders, total, err := repo.GetOrders(ctx, types.Filter{Limit: 10, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Len(t, orders, 2)

	_, total, err = repo.GetOrders(ctx, types.Filter{Limit: 10, Page: 1, IncludeArchived: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)

	orders, total, err = repo.GetOrders(ctx, types.Filter{Limit: 10, Page: 1, DriverID: driverID})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, "ORD-2001", orders[0].OrderNumber)

	orders, total, err = repo.GetOrders(ctx, types.Filter{Limit: 10, Page: 1, Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, "ORD-2002", orders[0].OrderNumber)
}

func TestOrderRepository_SaveStatusInTx(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool, zap.NewNop())
	txManager := NewTxManager(pool)
	ctx := context.Background()

	created, err := repo.CreateOrder(ctx, newTestOrder("ORD-3001"))
	require.NoError(t, err)

	err = txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := repo.FindOrderForUpdateInTx(ctx, tx, created.ID)
		if err != nil {
			return err
		}
		order.IsDelivered = true
		order.IsLocked = true
		order.Status = constants.StatusDelivered
		return repo.SaveStatusInTx(ctx, tx, order)
	})
	require.NoError(t, err)

	found, err := repo.FindOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusDelivered, found.Status)
	assert.True(t, found.IsDelivered)
	assert.True(t, found.IsLocked)
}

func TestOrderRepository_BulkReassignSkipsLocked(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool, zap.NewNop())
	ctx := context.Background()
	driverID := seedDriver(t, pool, "dana@delivery.local", "Dana Driver")

	open, err := repo.CreateOrder(ctx, newTestOrder("ORD-4001"))
	require.NoError(t, err)
	locked, err := repo.CreateOrder(ctx, newTestOrder("ORD-4002"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE orders SET is_locked = true WHERE id = $1`, locked.ID)
	require.NoError(t, err)

	updated, err := repo.BulkReassignDriver(ctx, []string{open.ID, locked.ID}, driverID, "Dana Driver")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	found, err := repo.FindOrder(ctx, locked.ID)
	require.NoError(t, err)
	assert.False(t, found.DriverID.Valid)
}

func TestOrderRepository_UnassignFutureOrders(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool, zap.NewNop())
	ctx := context.Background()
	driverID := seedDriver(t, pool, "drew@delivery.local", "Drew Driver")

	assigned := func(o *entities.Order) {
		o.DriverID = null.StringFrom(driverID)
		o.DriverName = "Drew Driver"
	}
	past, err := repo.CreateOrder(ctx, newTestOrder("ORD-5001", assigned, func(o *entities.Order) {
		o.Date = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	future, err := repo.CreateOrder(ctx, newTestOrder("ORD-5002", assigned))
	require.NoError(t, err)
	delivered, err := repo.CreateOrder(ctx, newTestOrder("ORD-5003", assigned, func(o *entities.Order) {
		o.Status = constants.StatusDelivered
	}))
	require.NoError(t, err)

	cutoff := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	count, err := repo.UnassignFutureOrders(ctx, driverID, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	swept, err := repo.FindOrder(ctx, future.ID)
	require.NoError(t, err)
	assert.False(t, swept.DriverID.Valid)
	assert.Equal(t, constants.UnassignedDriverName, swept.DriverName)

	for _, untouched := range []string{past.ID, delivered.ID} {
		found, err := repo.FindOrder(ctx, untouched)
		require.NoError(t, err)
		assert.True(t, found.DriverID.Valid)
	}
}

func TestOrderRepository_ArchiveDelivered(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool, zap.NewNop())
	ctx := context.Background()

	done, err := repo.CreateOrder(ctx, newTestOrder("ORD-6001", func(o *entities.Order) {
		o.Status = constants.StatusDelivered
	}))
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, newTestOrder("ORD-6002"))
	require.NoError(t, err)

	count, err := repo.ArchiveDelivered(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindOrder(ctx, done.ID)
	require.NoError(t, err)
	assert.True(t, found.IsArchived)

	count, err = repo.ArchiveDelivered(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
