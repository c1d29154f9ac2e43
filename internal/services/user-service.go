package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/types"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, role string, onlyActive bool, search string) ([]entities.User, error)
	GetUser(ctx context.Context, id string) (*entities.User, error)
	GetDriverStats(ctx context.Context, id string) (*dto.DriverStatsDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error)
	UpdateUser(ctx context.Context, id string, payload dto.UpdateUserDTO) (*entities.User, error)
	ToggleActive(ctx context.Context, id string) (*dto.ToggleActiveResultDTO, error)
}

type UserService struct {
	userRepo   repositories.UserRepositoryInterface
	orderRepo  repositories.OrderRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	gatekeeper *authz.Gatekeeper
	logger     *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	gatekeeper *authz.Gatekeeper,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{
		userRepo:   userRepo,
		orderRepo:  orderRepo,
		cacheRepo:  cacheRepo,
		gatekeeper: gatekeeper,
		logger:     logger,
	}
}

func (s *UserService) GetUsers(ctx context.Context, role string, onlyActive bool, search string) ([]entities.User, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.UsersManage) && !s.gatekeeper.Can(actor, authz.DashboardView) {
		return nil, apperrors.ErrForbidden
	}
	return s.userRepo.GetUsers(ctx, role, onlyActive, search)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*entities.User, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if actor.ID != id && !s.gatekeeper.Can(actor, authz.UsersManage) {
		return nil, apperrors.ErrForbidden
	}
	return s.userRepo.FindUser(ctx, id)
}

// GetDriverStats rolls up one driver's order history plus their current
// active workload.
func (s *UserService) GetDriverStats(ctx context.Context, id string) (*dto.DriverStatsDTO, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if actor.ID != id && !s.gatekeeper.Can(actor, authz.UsersManage) && !s.gatekeeper.Can(actor, authz.DashboardView) {
		return nil, apperrors.ErrForbidden
	}

	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &dto.DriverStatsDTO{DriverID: user.ID, DriverName: user.FullName}
	rows, err := s.orderRepo.DriverStats(ctx, types.Filter{DriverID: id, IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.DriverID == id {
			stats.TotalOrders = row.TotalOrders
			stats.CompletedOrders = row.CompletedOrders
			stats.TotalMiles = row.TotalMiles
			stats.TotalEarnings = row.TotalEarnings
			stats.OnTimeRate = row.OnTimeRate
		}
	}
	active, err := s.orderRepo.CountActiveOrdersByDriver(ctx, id)
	if err != nil {
		return nil, err
	}
	stats.ActiveOrders = active
	return stats, nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.UsersManage) {
		return nil, apperrors.ErrForbidden
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		ID:           uuid.NewString(),
		Email:        payload.Email,
		FullName:     payload.FullName,
		Phone:        null.StringFromPtr(payload.Phone),
		Role:         payload.Role,
		IsActive:     true,
		PasswordHash: string(hash),
	}
	return s.userRepo.CreateUser(ctx, user)
}

func (s *UserService) UpdateUser(ctx context.Context, id string, payload dto.UpdateUserDTO) (*entities.User, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.UsersManage) {
		return nil, apperrors.ErrForbidden
	}

	updates := make(map[string]interface{})
	if payload.FullName != nil {
		updates["full_name"] = *payload.FullName
	}
	if payload.Phone != nil {
		updates["phone"] = *payload.Phone
	}
	if payload.Role != nil {
		if actor.ID == id {
			return nil, apperrors.NewValidationError("you cannot change your own role")
		}
		updates["role"] = *payload.Role
	}
	if payload.AvatarURL != nil {
		updates["avatar_url"] = *payload.AvatarURL
	}
	if payload.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*payload.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = string(hash)
	}
	if len(updates) == 0 {
		return nil, apperrors.NewValidationError("nothing to update")
	}

	if err := s.userRepo.UpdateUserFields(ctx, id, updates); err != nil {
		return nil, err
	}
	s.invalidateActorCache(ctx, id)
	return s.userRepo.FindUser(ctx, id)
}

// ToggleActive flips a user's active flag. Deactivating a driver sweeps
// their future, non-terminal orders back to the unassigned pool; past
// orders keep their history.
func (s *UserService) ToggleActive(ctx context.Context, id string) (*dto.ToggleActiveResultDTO, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.UsersManage) {
		return nil, apperrors.ErrForbidden
	}
	if actor.ID == id {
		return nil, apperrors.NewValidationError("you cannot deactivate your own account")
	}

	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}

	newActive := !user.IsActive
	if err := s.userRepo.SetActive(ctx, id, newActive); err != nil {
		return nil, err
	}
	s.invalidateActorCache(ctx, id)

	result := &dto.ToggleActiveResultDTO{UserID: id, IsActive: newActive}
	if !newActive {
		unassigned, err := s.orderRepo.UnassignFutureOrders(ctx, id, now.BeginningOfDay())
		if err != nil {
			return nil, err
		}
		result.UnassignedOrderCount = int(unassigned)
	}
	return result, nil
}

func (s *UserService) invalidateActorCache(ctx context.Context, userID string) {
	if err := s.cacheRepo.Del(ctx, actorCacheKey(userID)); err != nil {
		s.logger.Warn("actor cache invalidation failed", zap.String("userID", userID), zap.Error(err))
	}
}
