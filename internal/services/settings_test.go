package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/contextkeys"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/eventbus"
)

type fakeSettingsRepo struct {
	values   map[string]json.RawMessage
	getCalls int
}

func (f *fakeSettingsRepo) GetAll(ctx context.Context) ([]entities.AppSetting, error) {
	f.getCalls++
	rows := make([]entities.AppSetting, 0, len(f.values))
	for k, v := range f.values {
		rows = append(rows, entities.AppSetting{Key: k, Value: v})
	}
	return rows, nil
}

func (f *fakeSettingsRepo) Get(ctx context.Context, key string) (*entities.AppSetting, error) {
	value, ok := f.values[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &entities.AppSetting{Key: key, Value: value}, nil
}

func (f *fakeSettingsRepo) Upsert(ctx context.Context, key string, value json.RawMessage, updatedBy null.String) error {
	f.values[key] = value
	return nil
}

type fakeNotifier struct {
	NotificationServiceInterface
	broadcasts []string
}

func (f *fakeNotifier) NotifyAllActive(ctx context.Context, title, message, notifType string) error {
	f.broadcasts = append(f.broadcasts, notifType)
	return nil
}

func adminCtx() context.Context {
	actor := &entities.User{ID: "u-admin", FullName: "Admin", Role: constants.RoleAdmin, IsActive: true}
	return context.WithValue(context.Background(), contextkeys.ActorKey, actor)
}

func newTestSettingsService(repo *fakeSettingsRepo, notifier *fakeNotifier) *SettingsService {
	svc := NewSettingsService(repo, notifier, authz.NewGatekeeper(), eventbus.New(zap.NewNop()), time.Minute, zap.NewNop())
	return svc
}

func TestSettingsSnapshotCachesUntilTTL(t *testing.T) {
	repo := &fakeSettingsRepo{values: map[string]json.RawMessage{
		SettingCurrentWeek: json.RawMessage(`2`),
	}}
	svc := newTestSettingsService(repo, &fakeNotifier{})

	current := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	ctx := adminCtx()
	assert.Equal(t, 2, svc.CurrentWeek(ctx))
	assert.Equal(t, 2, svc.CurrentWeek(ctx))
	assert.Equal(t, 1, repo.getCalls, "second read served from the snapshot")

	current = current.Add(61 * time.Second)
	assert.Equal(t, 2, svc.CurrentWeek(ctx))
	assert.Equal(t, 2, repo.getCalls, "expired snapshot reloads")
}

func TestSettingsSetWritesThroughAndReloads(t *testing.T) {
	repo := &fakeSettingsRepo{values: map[string]json.RawMessage{
		SettingDefaultPayRate: json.RawMessage(`350`),
	}}
	svc := newTestSettingsService(repo, &fakeNotifier{})
	ctx := adminCtx()

	assert.InDelta(t, 350.0, svc.DefaultPayRate(ctx), 0.001)

	require.NoError(t, svc.Set(ctx, SettingDefaultPayRate, json.RawMessage(`425`)))
	assert.InDelta(t, 425.0, svc.DefaultPayRate(ctx), 0.001, "write-through is visible immediately")
}

func TestSettingsSetRequiresAdmin(t *testing.T) {
	repo := &fakeSettingsRepo{values: map[string]json.RawMessage{}}
	svc := newTestSettingsService(repo, &fakeNotifier{})

	driver := &entities.User{ID: "u-driver", Role: constants.RoleDriver, IsActive: true}
	ctx := context.WithValue(context.Background(), contextkeys.ActorKey, driver)

	err := svc.Set(ctx, SettingDefaultPayRate, json.RawMessage(`1`))
	assert.Error(t, err)
}

func TestRotateWeekFlipsAndNotifies(t *testing.T) {
	repo := &fakeSettingsRepo{values: map[string]json.RawMessage{
		SettingCurrentWeek: json.RawMessage(`1`),
	}}
	notifier := &fakeNotifier{}
	svc := newTestSettingsService(repo, notifier)
	ctx := adminCtx()

	previous, current, err := svc.RotateWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, previous)
	assert.Equal(t, 2, current)
	assert.Equal(t, []string{constants.NotificationWeekRotation}, notifier.broadcasts)

	previous, current, err = svc.RotateWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, previous)
	assert.Equal(t, 1, current, "rotation flips back")
}

func TestRotateWeekDefaultsWhenWeekUnset(t *testing.T) {
	repo := &fakeSettingsRepo{values: map[string]json.RawMessage{}}
	notifier := &fakeNotifier{}
	svc := newTestSettingsService(repo, notifier)

	previous, current, err := svc.RotateWeek(adminCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, previous, "missing current_week counts as week 1")
	assert.Equal(t, 2, current)
	assert.Equal(t, []string{constants.NotificationWeekRotation}, notifier.broadcasts)
}

func TestRotateWeekReadsStoreNotSnapshot(t *testing.T) {
	repo := &fakeSettingsRepo{values: map[string]json.RawMessage{
		SettingCurrentWeek: json.RawMessage(`1`),
	}}
	svc := newTestSettingsService(repo, &fakeNotifier{})
	ctx := adminCtx()

	// Warm the snapshot, then change the stored week behind its back.
	assert.Equal(t, 1, svc.CurrentWeek(ctx))
	repo.values[SettingCurrentWeek] = json.RawMessage(`2`)

	previous, current, err := svc.RotateWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, previous, "flip starts from the stored value")
	assert.Equal(t, 1, current)
}

func TestGetUnknownSettingIsNotFound(t *testing.T) {
	repo := &fakeSettingsRepo{values: map[string]json.RawMessage{}}
	svc := newTestSettingsService(repo, &fakeNotifier{})

	_, err := svc.Get(adminCtx(), "missing_key")
	assert.Error(t, err)
}
