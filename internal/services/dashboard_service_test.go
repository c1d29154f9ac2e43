package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
)

func newDashboardFixture(orders ...*entities.Order) (DashboardServiceInterface, *fakeOrderRepo) {
	repo := newFakeOrderRepo(orders...)
	svc := NewDashboardService(repo, authz.NewGatekeeper(), zap.NewNop())
	return svc, repo
}

func TestGetOrderStatsAggregates(t *testing.T) {
	delivered := func(pay, miles float64) func(*entities.Order) {
		return func(o *entities.Order) {
			o.Status = constants.StatusDelivered
			o.DriverPay = pay
			o.Miles = miles
		}
	}
	svc, _ := newDashboardFixture(
		testOrder("o1", delivered(400, 30), func(o *entities.Order) { o.Market = "Atlanta" }),
		testOrder("o2", delivered(350, 50)),
		testOrder("o3", func(o *entities.Order) { o.Market = "Atlanta"; o.Miles = 20 }),
		testOrder("o4", func(o *entities.Order) { o.Status = constants.StatusCancelled }),
	)

	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})
	stats, err := svc.GetOrderStats(ctx, types.Filter{})
	require.NoError(t, err)

	assert.EqualValues(t, 4, stats.TotalOrders)
	assert.EqualValues(t, 2, stats.StatusCounts[constants.StatusDelivered])
	assert.Equal(t, map[string]int64{"Atlanta": 2, "Dallas": 2}, stats.OrdersPerMarket)
	assert.InDelta(t, 750.0, stats.Revenue, 0.001, "revenue counts delivered orders only")
	assert.InDelta(t, 100.0, stats.TotalMiles, 0.001)
	assert.InDelta(t, 25.0, stats.AverageMiles, 0.001)
	assert.InDelta(t, 0.5, stats.CompletionRate, 0.001, "2 of 4 orders delivered")
}

func TestGetOrderStatsEmptyAvoidsDivideByZero(t *testing.T) {
	svc, _ := newDashboardFixture()

	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})
	stats, err := svc.GetOrderStats(ctx, types.Filter{})
	require.NoError(t, err)

	assert.EqualValues(t, 0, stats.TotalOrders)
	assert.Zero(t, stats.CompletionRate)
	assert.Zero(t, stats.AverageMiles)
}

func TestGetOrderStatsForbiddenForDriver(t *testing.T) {
	svc, _ := newDashboardFixture(testOrder("o1"))

	ctx := ctxWithActor(&entities.User{ID: "d1", Role: constants.RoleDriver, IsActive: true})
	_, err := svc.GetOrderStats(ctx, types.Filter{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
