package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/events"
	"delivery-system/internal/orderflow"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/imagestore"
	"delivery-system/pkg/types"
)

// OrderDetails is the single-order read model: the row plus its photos and
// comments.
type OrderDetails struct {
	Order    *entities.Order         `json:"order"`
	Photos   []entities.OrderPhoto   `json:"photos"`
	Comments []entities.OrderComment `json:"comments"`
}

type OrderServiceInterface interface {
	GetOrders(ctx context.Context, filter types.Filter) ([]entities.Order, uint64, error)
	GetOrder(ctx context.Context, id string) (*OrderDetails, error)
	GetOrderActivity(ctx context.Context, orderID string, limit int) ([]entities.ActivityLogEntry, error)
	CreateOrder(ctx context.Context, payload dto.CreateOrderDTO) (*entities.Order, error)
	UpdateOrder(ctx context.Context, id string, updates map[string]interface{}) (*entities.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, payload dto.UpdateOrderStatusDTO) (*entities.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	DuplicateOrder(ctx context.Context, id string) (*entities.Order, error)
	BulkUpdateStatus(ctx context.Context, payload dto.BulkStatusUpdateDTO) (*dto.BulkResultDTO, error)
	BulkReassignDriver(ctx context.Context, payload dto.BulkReassignDTO) (*dto.BulkResultDTO, error)
	BulkDelete(ctx context.Context, payload dto.BulkDeleteDTO) (*dto.BulkResultDTO, error)
	ArchiveDelivered(ctx context.Context, weekNumber int) (int64, error)
}

type OrderService struct {
	orderRepo       repositories.OrderRepositoryInterface
	photosRepo      repositories.OrderPhotosRepositoryInterface
	commentsRepo    repositories.OrderCommentsRepositoryInterface
	activityRepo    repositories.ActivityLogRepositoryInterface
	userRepo        repositories.UserRepositoryInterface
	settingsService SettingsServiceInterface
	gatekeeper      *authz.Gatekeeper
	txManager       repositories.TxManagerInterface
	bus             *eventbus.Bus
	images          imagestore.Uploader
	logger          *zap.Logger
}

func NewOrderService(
	orderRepo repositories.OrderRepositoryInterface,
	photosRepo repositories.OrderPhotosRepositoryInterface,
	commentsRepo repositories.OrderCommentsRepositoryInterface,
	activityRepo repositories.ActivityLogRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	settingsService SettingsServiceInterface,
	gatekeeper *authz.Gatekeeper,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	images imagestore.Uploader,
	logger *zap.Logger,
) OrderServiceInterface {
	return &OrderService{
		orderRepo:       orderRepo,
		photosRepo:      photosRepo,
		commentsRepo:    commentsRepo,
		activityRepo:    activityRepo,
		userRepo:        userRepo,
		settingsService: settingsService,
		gatekeeper:      gatekeeper,
		txManager:       txManager,
		bus:             bus,
		images:          images,
		logger:          logger,
	}
}

// GetOrders lists orders through the actor's visibility scope: drivers only
// ever see their own assignments.
func (s *OrderService) GetOrders(ctx context.Context, filter types.Filter) ([]entities.Order, uint64, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	if actor.Role == constants.RoleDriver {
		filter.DriverID = actor.ID
	}
	return s.orderRepo.GetOrders(ctx, filter)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*OrderDetails, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.CanViewOrder(actor, order) {
		return nil, apperrors.ErrForbidden
	}

	photos, err := s.photosRepo.GetPhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentsRepo.GetComments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderDetails{Order: order, Photos: photos, Comments: comments}, nil
}

func (s *OrderService) GetOrderActivity(ctx context.Context, orderID string, limit int) ([]entities.ActivityLogEntry, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.CanViewOrder(actor, order) {
		return nil, apperrors.ErrForbidden
	}
	return s.activityRepo.GetByOrder(ctx, orderID, limit)
}

func (s *OrderService) CreateOrder(ctx context.Context, payload dto.CreateOrderDTO) (*entities.Order, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.OrdersCreate) {
		return nil, apperrors.ErrForbidden
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date %q, expected YYYY-MM-DD", payload.Date)
	}

	order := &entities.Order{
		ID:             uuid.NewString(),
		OrderNumber:    payload.OrderNumber,
		Date:           date,
		DeliveryWindow: payload.DeliveryWindow,
		Market:         payload.Market,
		PickupStreet:   payload.PickupStreet,
		PickupCity:     payload.PickupCity,
		PickupState:    payload.PickupState,
		PickupZip:      payload.PickupZip,
		CustomerName:   payload.CustomerName,
		CustomerStreet: payload.CustomerStreet,
		CustomerCity:   payload.CustomerCity,
		CustomerState:  payload.CustomerState,
		CustomerZip:    payload.CustomerZip,
		CustomerPhone:  payload.CustomerPhone,
		ContainerType:  payload.ContainerType,
		Miles:          payload.Miles,
		DriverPay:      payload.DriverPay,
		Status:         constants.StatusDispatched,
		DriverName:     constants.UnassignedDriverName,
		CreatedBy:      null.StringFrom(actor.ID),
	}
	order.ContainerCondition = null.StringFromPtr(payload.ContainerCondition)
	order.DoorPosition = null.StringFromPtr(payload.DoorPosition)
	order.ReleaseNumber = null.StringFromPtr(payload.ReleaseNumber)
	order.Notes = null.StringFromPtr(payload.Notes)

	if payload.WeekNumber != nil {
		order.WeekNumber = *payload.WeekNumber
	} else {
		order.WeekNumber = s.settingsService.CurrentWeek(ctx)
	}
	if order.DriverPay == 0 {
		order.DriverPay = s.settingsService.DefaultPayRate(ctx)
	}
	if payload.DriverID != nil {
		driver, err := s.resolveDriver(ctx, *payload.DriverID)
		if err != nil {
			return nil, err
		}
		order.DriverID = null.StringFrom(driver.ID)
		order.DriverName = driver.FullName
	}

	created, err := s.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, events.OrderCreatedEvent{Order: created, Actor: actor})
	return created, nil
}

// UpdateOrder applies a field-level patch. Status flags never pass through
// here, they belong to UpdateOrderStatus.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, updates map[string]interface{}) (*entities.Order, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.CanEditOrder(actor, order) {
		return nil, apperrors.ErrForbidden
	}
	if order.IsLocked {
		return nil, apperrors.ErrOrderLocked
	}

	filtered, err := s.gatekeeper.FilterOrderFields(actor, updates)
	if err != nil {
		return nil, err
	}
	for field := range filtered {
		if constants.IsCheckboxField(field) || field == "status" {
			return nil, apperrors.NewValidationError("status fields go through the status operation")
		}
	}

	var assignedDriver *entities.User
	if rawDriverID, ok := filtered["driver_id"]; ok {
		if rawDriverID == nil {
			filtered["driver_name"] = constants.UnassignedDriverName
		} else {
			driverID, ok := rawDriverID.(string)
			if !ok {
				return nil, apperrors.NewValidationError("driver_id must be a string")
			}
			driver, err := s.resolveDriver(ctx, driverID)
			if err != nil {
				return nil, err
			}
			assignedDriver = driver
			filtered["driver_name"] = driver.FullName
		}
	}

	if err := s.orderRepo.UpdateOrderFields(ctx, id, filtered); err != nil {
		return nil, err
	}
	updated, err := s.orderRepo.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.OrderUpdatedEvent{Order: updated, Actor: actor, Changes: filtered})
	if assignedDriver != nil {
		s.bus.Publish(ctx, events.OrderAssignedEvent{
			Order:      updated,
			Actor:      actor,
			DriverID:   assignedDriver.ID,
			DriverName: assignedDriver.FullName,
		})
	}
	return updated, nil
}

// UpdateOrderStatus runs one checkbox transition under a row lock so two
// concurrent writers cannot both pass the lock check.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, payload dto.UpdateOrderStatusDTO) (*entities.Order, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	var updated *entities.Order
	var change orderflow.Change
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindOrderForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !s.gatekeeper.CanEditOrder(actor, order) {
			return apperrors.ErrForbidden
		}
		change, err = orderflow.ApplyCheckbox(order, payload.Field, payload.Value, payload.Reason)
		if err != nil {
			return err
		}
		if err := s.orderRepo.SaveStatusInTx(ctx, tx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.OrderStatusChangedEvent{
		Order:      updated,
		Actor:      actor,
		Field:      change.Field,
		Value:      change.Value,
		FromStatus: change.FromStatus,
		ToStatus:   change.ToStatus,
		Reason:     payload.Reason,
	})
	return updated, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return err
	}
	if !s.gatekeeper.Can(actor, authz.OrdersDelete) {
		return apperrors.ErrForbidden
	}
	order, err := s.orderRepo.FindOrder(ctx, id)
	if err != nil {
		return err
	}

	publicIDs, err := s.photosRepo.GetPublicIDsByOrders(ctx, []string{id})
	if err != nil {
		return err
	}
	if err := s.orderRepo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.cleanupImages(publicIDs)

	s.bus.Publish(ctx, events.OrderDeletedEvent{OrderID: id, OrderNumber: order.OrderNumber, Actor: actor})
	return nil
}

// DuplicateOrder clones an order into a fresh dispatched one. Progress
// flags, lock state and reason do not carry over.
func (s *OrderService) DuplicateOrder(ctx context.Context, id string) (*entities.Order, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.OrdersDuplicate) {
		return nil, apperrors.ErrForbidden
	}
	source, err := s.orderRepo.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := *source
	clone.ID = uuid.NewString()
	clone.OrderNumber = fmt.Sprintf("%s-COPY-%d", source.OrderNumber, time.Now().Unix())
	clone.Status = constants.StatusDispatched
	clone.StatusReason = null.String{}
	clone.IsDispatched = false
	clone.IsLoaded = false
	clone.IsNotified = false
	clone.IsDelayed = false
	clone.IsCancelled = false
	clone.IsDelivered = false
	clone.IsLocked = false
	clone.IsArchived = false
	clone.CreatedBy = null.StringFrom(actor.ID)

	created, err := s.orderRepo.CreateOrder(ctx, &clone)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, events.OrderCreatedEvent{Order: created, Actor: actor})
	return created, nil
}

// BulkUpdateStatus applies one checkbox transition to many orders. Locked
// rows are skipped rather than failing the batch, and the result reports
// how many rows actually changed.
func (s *OrderService) BulkUpdateStatus(ctx context.Context, payload dto.BulkStatusUpdateDTO) (*dto.BulkResultDTO, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.OrdersBulk) {
		return nil, apperrors.ErrForbidden
	}

	var changed []events.OrderStatusChangedEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		orders, err := s.orderRepo.FindOrdersForUpdateInTx(ctx, tx, payload.OrderIDs)
		if err != nil {
			return err
		}
		for i := range orders {
			order := &orders[i]
			if order.IsLocked {
				continue
			}
			change, err := orderflow.ApplyCheckbox(order, payload.Field, payload.Value, payload.Reason)
			if err != nil {
				return err
			}
			if err := s.orderRepo.SaveStatusInTx(ctx, tx, order); err != nil {
				return err
			}
			changed = append(changed, events.OrderStatusChangedEvent{
				Order:      order,
				Actor:      actor,
				Field:      change.Field,
				Value:      change.Value,
				FromStatus: change.FromStatus,
				ToStatus:   change.ToStatus,
				Reason:     payload.Reason,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, event := range changed {
		s.bus.Publish(ctx, event)
	}
	return &dto.BulkResultDTO{
		Requested: len(payload.OrderIDs),
		Updated:   len(changed),
		Skipped:   len(payload.OrderIDs) - len(changed),
	}, nil
}

// BulkReassignDriver rewrites the driver assignment on unlocked orders.
func (s *OrderService) BulkReassignDriver(ctx context.Context, payload dto.BulkReassignDTO) (*dto.BulkResultDTO, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.OrdersBulk) {
		return nil, apperrors.ErrForbidden
	}
	driver, err := s.resolveDriver(ctx, payload.DriverID)
	if err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.BulkReassignDriver(ctx, payload.OrderIDs, driver.ID, driver.FullName)
	if err != nil {
		return nil, err
	}

	for _, orderID := range payload.OrderIDs {
		order, err := s.orderRepo.FindOrder(ctx, orderID)
		if err != nil || !order.DriverID.Valid || order.DriverID.String != driver.ID {
			continue
		}
		s.bus.Publish(ctx, events.OrderAssignedEvent{
			Order:      order,
			Actor:      actor,
			DriverID:   driver.ID,
			DriverName: driver.FullName,
		})
	}

	return &dto.BulkResultDTO{
		Requested: len(payload.OrderIDs),
		Updated:   int(updated),
		Skipped:   len(payload.OrderIDs) - int(updated),
	}, nil
}

func (s *OrderService) BulkDelete(ctx context.Context, payload dto.BulkDeleteDTO) (*dto.BulkResultDTO, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.gatekeeper.Can(actor, authz.OrdersDelete) {
		return nil, apperrors.ErrForbidden
	}

	publicIDs, err := s.photosRepo.GetPublicIDsByOrders(ctx, payload.OrderIDs)
	if err != nil {
		return nil, err
	}
	deleted, err := s.orderRepo.DeleteOrders(ctx, payload.OrderIDs)
	if err != nil {
		return nil, err
	}
	s.cleanupImages(publicIDs)

	return &dto.BulkResultDTO{
		Requested: len(payload.OrderIDs),
		Updated:   int(deleted),
		Skipped:   len(payload.OrderIDs) - int(deleted),
	}, nil
}

func (s *OrderService) ArchiveDelivered(ctx context.Context, weekNumber int) (int64, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return 0, err
	}
	if !s.gatekeeper.Can(actor, authz.OrdersArchive) {
		return 0, apperrors.ErrForbidden
	}
	return s.orderRepo.ArchiveDelivered(ctx, weekNumber)
}

func (s *OrderService) resolveDriver(ctx context.Context, driverID string) (*entities.User, error) {
	driver, err := s.userRepo.FindUser(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.Role != constants.RoleDriver {
		return nil, apperrors.NewValidationError("user %s is not a driver", driverID)
	}
	if !driver.IsActive {
		return nil, apperrors.NewValidationError("driver %s is deactivated", driverID)
	}
	return driver, nil
}

// cleanupImages removes files at the image host after the rows are gone.
// Best effort, a leftover file is only logged.
func (s *OrderService) cleanupImages(publicIDs []string) {
	for _, publicID := range publicIDs {
		if err := s.images.Destroy(publicID); err != nil {
			s.logger.Warn("image cleanup failed", zap.String("publicID", publicID), zap.Error(err))
		}
	}
}
