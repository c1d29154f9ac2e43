package services

import (
	"context"

	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/repositories"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
)

type DashboardServiceInterface interface {
	GetOrderStats(ctx context.Context, filter types.Filter) (*dto.OrderStatsDTO, error)
}

type DashboardService struct {
	orderRepo  repositories.OrderRepositoryInterface
	gatekeeper *authz.Gatekeeper
	logger     *zap.Logger
}

func NewDashboardService(
	orderRepo repositories.OrderRepositoryInterface,
	gatekeeper *authz.Gatekeeper,
	logger *zap.Logger,
) DashboardServiceInterface {
	return &DashboardService{orderRepo: orderRepo, gatekeeper: gatekeeper, logger: logger}
}

// GetOrderStats folds the order set into the dashboard roll-up. Nothing is
// stored, every call recomputes from the current rows.
func (s *DashboardService) GetOrderStats(ctx context.Context, filter types.Filter) (*dto.OrderStatsDTO, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.DashboardView) {
		return nil, apperrors.ErrForbidden
	}

	statusCounts, err := s.orderRepo.StatusCounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	marketCounts, err := s.orderRepo.MarketCounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	revenue, totalMiles, deliveredCount, err := s.orderRepo.RevenueAndMiles(ctx, filter)
	if err != nil {
		return nil, err
	}
	perDay, err := s.orderRepo.OrdersPerDay(ctx, filter)
	if err != nil {
		return nil, err
	}
	driverStats, err := s.orderRepo.DriverStats(ctx, filter)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, count := range statusCounts {
		total += count
	}

	stats := &dto.OrderStatsDTO{
		TotalOrders:     total,
		StatusCounts:    statusCounts,
		OrdersPerMarket: marketCounts,
		Revenue:         revenue,
		TotalMiles:      totalMiles,
		OrdersPerDay:    make([]dto.DayCountDTO, 0, len(perDay)),
		DriverStats:     make([]dto.DriverStatsDTO, 0, len(driverStats)),
	}
	if total > 0 {
		stats.AverageMiles = totalMiles / float64(total)
		stats.CompletionRate = float64(deliveredCount) / float64(total)
	}
	for _, day := range perDay {
		stats.OrdersPerDay = append(stats.OrdersPerDay, dto.DayCountDTO{Date: day.Date, Count: day.Count})
	}
	for _, d := range driverStats {
		stats.DriverStats = append(stats.DriverStats, dto.DriverStatsDTO{
			DriverID:        d.DriverID,
			DriverName:      d.DriverName,
			TotalOrders:     d.TotalOrders,
			CompletedOrders: d.CompletedOrders,
			TotalMiles:      d.TotalMiles,
			TotalEarnings:   d.TotalEarnings,
			OnTimeRate:      d.OnTimeRate,
		})
	}
	return stats, nil
}
