package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/contextkeys"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/imagestore"
	"delivery-system/pkg/types"
)

type fakeOrderRepo struct {
	ordersByID map[string]*entities.Order

	lastFilter     types.Filter
	created        *entities.Order
	saved          []*entities.Order
	unassignCutoff time.Time
}

func newFakeOrderRepo(orders ...*entities.Order) *fakeOrderRepo {
	byID := make(map[string]*entities.Order)
	for _, o := range orders {
		byID[o.ID] = o
	}
	return &fakeOrderRepo{ordersByID: byID}
}

func (f *fakeOrderRepo) GetOrders(ctx context.Context, filter types.Filter) ([]entities.Order, uint64, error) {
	f.lastFilter = filter
	out := make([]entities.Order, 0)
	for _, o := range f.ordersByID {
		if filter.DriverID != "" && (!o.DriverID.Valid || o.DriverID.String != filter.DriverID) {
			continue
		}
		out = append(out, *o)
	}
	return out, uint64(len(out)), nil
}

func (f *fakeOrderRepo) FindOrder(ctx context.Context, id string) (*entities.Order, error) {
	o, ok := f.ordersByID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (f *fakeOrderRepo) FindOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id string) (*entities.Order, error) {
	return f.FindOrder(ctx, id)
}

func (f *fakeOrderRepo) FindOrdersForUpdateInTx(ctx context.Context, tx pgx.Tx, ids []string) ([]entities.Order, error) {
	out := make([]entities.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := f.ordersByID[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *entities.Order) (*entities.Order, error) {
	clone := *order
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	f.ordersByID[clone.ID] = &clone
	f.created = &clone
	return &clone, nil
}

func (f *fakeOrderRepo) UpdateOrderFields(ctx context.Context, id string, updates map[string]interface{}) error {
	o, ok := f.ordersByID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if v, ok := updates["driver_pay"]; ok {
		o.DriverPay = v.(float64)
	}
	if v, ok := updates["driver_name"]; ok {
		o.DriverName = v.(string)
	}
	if v, ok := updates["driver_id"]; ok {
		if v == nil {
			o.DriverID = null.String{}
		} else {
			o.DriverID = null.StringFrom(v.(string))
		}
	}
	return nil
}

func (f *fakeOrderRepo) SaveStatusInTx(ctx context.Context, tx pgx.Tx, order *entities.Order) error {
	clone := *order
	f.ordersByID[order.ID] = &clone
	f.saved = append(f.saved, &clone)
	return nil
}

func (f *fakeOrderRepo) DeleteOrder(ctx context.Context, id string) error {
	if _, ok := f.ordersByID[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.ordersByID, id)
	return nil
}

func (f *fakeOrderRepo) DeleteOrders(ctx context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := f.ordersByID[id]; ok {
			delete(f.ordersByID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderRepo) BulkReassignDriver(ctx context.Context, ids []string, driverID, driverName string) (int64, error) {
	var n int64
	for _, id := range ids {
		o, ok := f.ordersByID[id]
		if !ok || o.IsLocked {
			continue
		}
		o.DriverID = null.StringFrom(driverID)
		o.DriverName = driverName
		n++
	}
	return n, nil
}

func (f *fakeOrderRepo) ArchiveDelivered(ctx context.Context, weekNumber int) (int64, error) {
	var n int64
	for _, o := range f.ordersByID {
		if o.WeekNumber == weekNumber && o.Status == constants.StatusDelivered && !o.IsArchived {
			o.IsArchived = true
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderRepo) UnassignFutureOrders(ctx context.Context, driverID string, cutoff time.Time) (int64, error) {
	f.unassignCutoff = cutoff
	var n int64
	for _, o := range f.ordersByID {
		if !o.DriverID.Valid || o.DriverID.String != driverID {
			continue
		}
		if o.Date.Before(cutoff) || constants.IsTerminalStatus(o.Status) {
			continue
		}
		o.DriverID = null.String{}
		o.DriverName = constants.UnassignedDriverName
		n++
	}
	return n, nil
}

func (f *fakeOrderRepo) CountActiveOrdersByDriver(ctx context.Context, driverID string) (int64, error) {
	return 0, nil
}

func (f *fakeOrderRepo) StatusCounts(ctx context.Context, filter types.Filter) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, o := range f.ordersByID {
		counts[o.Status]++
	}
	return counts, nil
}

func (f *fakeOrderRepo) MarketCounts(ctx context.Context, filter types.Filter) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, o := range f.ordersByID {
		counts[o.Market]++
	}
	return counts, nil
}

func (f *fakeOrderRepo) RevenueAndMiles(ctx context.Context, filter types.Filter) (float64, float64, int64, error) {
	var revenue, totalMiles float64
	var deliveredCount int64
	for _, o := range f.ordersByID {
		totalMiles += o.Miles
		if o.Status == constants.StatusDelivered {
			revenue += o.DriverPay
			deliveredCount++
		}
	}
	return revenue, totalMiles, deliveredCount, nil
}

func (f *fakeOrderRepo) OrdersPerDay(ctx context.Context, filter types.Filter) ([]types.DayCount, error) {
	return nil, nil
}

func (f *fakeOrderRepo) DriverStats(ctx context.Context, filter types.Filter) ([]types.DriverStats, error) {
	return nil, nil
}

type fakePhotosRepo struct {
	photos    map[string][]entities.OrderPhoto
	destroyed []string
}

func (f *fakePhotosRepo) GetPhotos(ctx context.Context, orderID string) ([]entities.OrderPhoto, error) {
	return f.photos[orderID], nil
}

func (f *fakePhotosRepo) FindPhoto(ctx context.Context, id string) (*entities.OrderPhoto, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakePhotosRepo) CreatePhoto(ctx context.Context, photo *entities.OrderPhoto) (*entities.OrderPhoto, error) {
	f.photos[photo.OrderID] = append(f.photos[photo.OrderID], *photo)
	return photo, nil
}

func (f *fakePhotosRepo) DeletePhoto(ctx context.Context, id string) error { return nil }

func (f *fakePhotosRepo) GetPublicIDsByOrders(ctx context.Context, orderIDs []string) ([]string, error) {
	ids := make([]string, 0)
	for _, orderID := range orderIDs {
		for _, p := range f.photos[orderID] {
			ids = append(ids, p.PublicID)
		}
	}
	return ids, nil
}

type fakeCommentsRepo struct{}

func (fakeCommentsRepo) GetComments(ctx context.Context, orderID string) ([]entities.OrderComment, error) {
	return []entities.OrderComment{}, nil
}
func (fakeCommentsRepo) FindComment(ctx context.Context, id string) (*entities.OrderComment, error) {
	return nil, apperrors.ErrNotFound
}
func (fakeCommentsRepo) CreateComment(ctx context.Context, c *entities.OrderComment) (*entities.OrderComment, error) {
	return c, nil
}
func (fakeCommentsRepo) UpdateComment(ctx context.Context, id, text string) error { return nil }
func (fakeCommentsRepo) DeleteComment(ctx context.Context, id string) error       { return nil }

type fakeActivityRepo struct {
	entries []entities.ActivityLogEntry
}

func (f *fakeActivityRepo) Append(ctx context.Context, entry *entities.ActivityLogEntry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityRepo) GetByOrder(ctx context.Context, orderID string, limit int) ([]entities.ActivityLogEntry, error) {
	return f.entries, nil
}

type fakeUserRepo struct {
	usersByID map[string]*entities.User
}

func (f *fakeUserRepo) GetUsers(ctx context.Context, role string, onlyActive bool, search string) ([]entities.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) FindUser(ctx context.Context, id string) (*entities.User, error) {
	u, ok := f.usersByID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, u := range f.usersByID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	f.usersByID[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateUserFields(ctx context.Context, id string, updates map[string]interface{}) error {
	u, ok := f.usersByID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if v, ok := updates["full_name"].(string); ok {
		u.FullName = v
	}
	if v, ok := updates["role"].(string); ok {
		u.Role = v
	}
	if v, ok := updates["password_hash"].(string); ok {
		u.PasswordHash = v
	}
	return nil
}

func (f *fakeUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	u, ok := f.usersByID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeUserRepo) GetActiveUserIDs(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeUserRepo) GetAdminIDs(ctx context.Context) ([]string, error)      { return nil, nil }

type fakeSettings struct {
	SettingsServiceInterface
	week    int
	payRate float64
}

func (f *fakeSettings) CurrentWeek(ctx context.Context) int        { return f.week }
func (f *fakeSettings) DefaultPayRate(ctx context.Context) float64 { return f.payRate }

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeImages struct {
	destroyed []string
}

func (f *fakeImages) Upload(data []byte, folder, filename string) (*imagestore.UploadResult, error) {
	return &imagestore.UploadResult{URL: "/uploads/" + filename, PublicID: filename}, nil
}

func (f *fakeImages) Destroy(publicID string) error {
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

func ctxWithActor(actor *entities.User) context.Context {
	return context.WithValue(context.Background(), contextkeys.ActorKey, actor)
}

type orderServiceFixture struct {
	svc      OrderServiceInterface
	orders   *fakeOrderRepo
	photos   *fakePhotosRepo
	users    *fakeUserRepo
	settings *fakeSettings
	images   *fakeImages
}

func newOrderServiceFixture(t *testing.T, orders ...*entities.Order) *orderServiceFixture {
	t.Helper()
	orderRepo := newFakeOrderRepo(orders...)
	photosRepo := &fakePhotosRepo{photos: make(map[string][]entities.OrderPhoto)}
	userRepo := &fakeUserRepo{usersByID: map[string]*entities.User{
		"d1": {ID: "d1", FullName: "Dan Driver", Role: constants.RoleDriver, IsActive: true},
		"d2": {ID: "d2", FullName: "Dana Driver", Role: constants.RoleDriver, IsActive: true},
	}}
	settings := &fakeSettings{week: 1, payRate: 350}
	images := &fakeImages{}

	svc := NewOrderService(
		orderRepo, photosRepo, fakeCommentsRepo{}, &fakeActivityRepo{}, userRepo,
		settings, authz.NewGatekeeper(), fakeTxManager{}, eventbus.New(zap.NewNop()),
		images, zap.NewNop(),
	)
	return &orderServiceFixture{svc: svc, orders: orderRepo, photos: photosRepo, users: userRepo, settings: settings, images: images}
}

func testOrder(id string, mutate ...func(*entities.Order)) *entities.Order {
	o := &entities.Order{
		ID:             id,
		OrderNumber:    "ORD-" + id,
		Date:           time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DeliveryWindow: constants.WindowAM,
		WeekNumber:     1,
		Market:         "Dallas",
		Status:         constants.StatusDispatched,
		IsDispatched:   true,
		DriverName:     constants.UnassignedDriverName,
	}
	for _, fn := range mutate {
		fn(o)
	}
	return o
}

func TestGetOrdersScopesDriversToOwnAssignments(t *testing.T) {
	f := newOrderServiceFixture(t,
		testOrder("o1", func(o *entities.Order) { o.DriverID = null.StringFrom("d1") }),
		testOrder("o2", func(o *entities.Order) { o.DriverID = null.StringFrom("d2") }),
	)

	driverCtx := ctxWithActor(&entities.User{ID: "d1", Role: constants.RoleDriver, IsActive: true})
	orders, total, err := f.svc.GetOrders(driverCtx, types.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, "d1", f.orders.lastFilter.DriverID)

	adminCtx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})
	_, total, err = f.svc.GetOrders(adminCtx, types.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestCreateOrderAppliesDefaults(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.settings.week = 2
	f.settings.payRate = 410

	ctx := ctxWithActor(&entities.User{ID: "a1", FullName: "Ada Admin", Role: constants.RoleAdmin, IsActive: true})
	driverID := "d1"
	created, err := f.svc.CreateOrder(ctx, dto.CreateOrderDTO{
		OrderNumber:    "ORD-1001",
		Date:           "2026-09-03",
		DeliveryWindow: constants.WindowPM,
		Market:         "Austin",
		PickupStreet:   "1 Depot Rd",
		PickupCity:     "Austin",
		PickupState:    "TX",
		PickupZip:      "78701",
		CustomerName:   "Jo Smith",
		CustomerStreet: "9 Oak Ln",
		CustomerCity:   "Austin",
		CustomerState:  "TX",
		CustomerZip:    "78702",
		ContainerType:  "20ft",
		DriverID:       &driverID,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusDispatched, created.Status)
	assert.Equal(t, 2, created.WeekNumber, "week defaults from settings")
	assert.InDelta(t, 410.0, created.DriverPay, 0.001, "pay defaults from settings")
	assert.Equal(t, "Dan Driver", created.DriverName, "driver name snapshot resolved")
	assert.Equal(t, "a1", created.CreatedBy.String)
	assert.False(t, created.IsLocked)
}

func TestCreateOrderForbiddenForDriver(t *testing.T) {
	f := newOrderServiceFixture(t)
	ctx := ctxWithActor(&entities.User{ID: "d1", Role: constants.RoleDriver, IsActive: true})

	_, err := f.svc.CreateOrder(ctx, dto.CreateOrderDTO{OrderNumber: "X", Date: "2026-09-03"})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestUpdateOrderStatusDeliveredLocksRow(t *testing.T) {
	f := newOrderServiceFixture(t, testOrder("o1", func(o *entities.Order) { o.DriverID = null.StringFrom("d1") }))
	ctx := ctxWithActor(&entities.User{ID: "d1", FullName: "Dan Driver", Role: constants.RoleDriver, IsActive: true})

	updated, err := f.svc.UpdateOrderStatus(ctx, "o1", dto.UpdateOrderStatusDTO{Field: constants.FieldIsDelivered, Value: true})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusDelivered, updated.Status)
	assert.True(t, updated.IsLocked)

	_, err = f.svc.UpdateOrderStatus(ctx, "o1", dto.UpdateOrderStatusDTO{Field: constants.FieldIsDispatched, Value: false})
	assert.True(t, errors.Is(err, apperrors.ErrOrderLocked))
}

func TestUpdateOrderStatusForeignDriverForbidden(t *testing.T) {
	f := newOrderServiceFixture(t, testOrder("o1", func(o *entities.Order) { o.DriverID = null.StringFrom("d2") }))
	ctx := ctxWithActor(&entities.User{ID: "d1", Role: constants.RoleDriver, IsActive: true})

	_, err := f.svc.UpdateOrderStatus(ctx, "o1", dto.UpdateOrderStatusDTO{Field: constants.FieldIsLoaded, Value: true})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestUpdateOrderRejectsStatusFields(t *testing.T) {
	f := newOrderServiceFixture(t, testOrder("o1"))
	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})

	_, err := f.svc.UpdateOrder(ctx, "o1", map[string]interface{}{"is_delivered": true})
	var verr *apperrors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestUpdateOrderLockedIsRejected(t *testing.T) {
	f := newOrderServiceFixture(t, testOrder("o1", func(o *entities.Order) {
		o.IsLocked = true
		o.Status = constants.StatusDelivered
		o.IsDelivered = true
	}))
	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})

	_, err := f.svc.UpdateOrder(ctx, "o1", map[string]interface{}{"driver_pay": 500.0})
	assert.True(t, errors.Is(err, apperrors.ErrOrderLocked))
}

func TestBulkUpdateStatusSkipsLockedRows(t *testing.T) {
	f := newOrderServiceFixture(t,
		testOrder("o1"),
		testOrder("o2", func(o *entities.Order) {
			o.IsLocked = true
			o.Status = constants.StatusDelivered
			o.IsDelivered = true
		}),
		testOrder("o3"),
	)
	ctx := ctxWithActor(&entities.User{ID: "a1", FullName: "Ada Admin", Role: constants.RoleAdmin, IsActive: true})

	result, err := f.svc.BulkUpdateStatus(ctx, dto.BulkStatusUpdateDTO{
		OrderIDs: []string{"o1", "o2", "o3"},
		Field:    constants.FieldIsLoaded,
		Value:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Skipped)

	o2, _ := f.orders.FindOrder(ctx, "o2")
	assert.False(t, o2.IsLoaded, "locked row untouched")
}

func TestDuplicateOrderResetsProgress(t *testing.T) {
	f := newOrderServiceFixture(t, testOrder("o1", func(o *entities.Order) {
		o.Status = constants.StatusDelivered
		o.IsDelivered = true
		o.IsLoaded = true
		o.IsLocked = true
		o.StatusReason = null.StringFrom("was late once")
	}))
	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})

	clone, err := f.svc.DuplicateOrder(ctx, "o1")
	require.NoError(t, err)
	assert.NotEqual(t, "o1", clone.ID)
	assert.Contains(t, clone.OrderNumber, "ORD-o1-COPY-")
	assert.Equal(t, constants.StatusDispatched, clone.Status)
	assert.False(t, clone.IsDelivered)
	assert.False(t, clone.IsLocked)
	assert.False(t, clone.StatusReason.Valid)
}

func TestBulkDeleteCleansUpImages(t *testing.T) {
	f := newOrderServiceFixture(t, testOrder("o1"), testOrder("o2"))
	f.photos.photos["o1"] = []entities.OrderPhoto{{OrderID: "o1", PublicID: "pub-1"}}
	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})

	result, err := f.svc.BulkDelete(ctx, dto.BulkDeleteDTO{OrderIDs: []string{"o1", "o2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, []string{"pub-1"}, f.images.destroyed)
}

func TestArchiveDeliveredIsIdempotent(t *testing.T) {
	f := newOrderServiceFixture(t,
		testOrder("o1", func(o *entities.Order) {
			o.Status = constants.StatusDelivered
			o.IsDelivered = true
			o.IsLocked = true
		}),
		testOrder("o2"),
	)
	ctx := ctxWithActor(&entities.User{ID: "a1", Role: constants.RoleAdmin, IsActive: true})

	archived, err := f.svc.ArchiveDelivered(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, archived)

	archived, err = f.svc.ArchiveDelivered(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, archived, "second pass archives nothing")
}
