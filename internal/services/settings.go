package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/events"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/eventbus"
)

// Well-known setting keys.
const (
	SettingCurrentWeek       = "current_week"
	SettingDefaultPayRate    = "default_pay_rate"
	SettingContainerTypes    = "container_types"
	SettingMarkets           = "markets"
	SettingPodiumMessageTmpl = "podium_message_template"
)

type SettingsServiceInterface interface {
	GetAll(ctx context.Context) (map[string]json.RawMessage, error)
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	CurrentWeek(ctx context.Context) int
	DefaultPayRate(ctx context.Context) float64
	RotateWeek(ctx context.Context) (previous, current int, err error)
	Invalidate()
}

// settingsSnapshot is the immutable view swapped in atomically on reload.
type settingsSnapshot struct {
	values   map[string]json.RawMessage
	loadedAt time.Time
}

type SettingsService struct {
	settingsRepo        repositories.SettingsRepositoryInterface
	notificationService NotificationServiceInterface
	gatekeeper          *authz.Gatekeeper
	bus                 *eventbus.Bus
	logger              *zap.Logger

	ttl      time.Duration
	now      func() time.Time
	snapshot atomic.Pointer[settingsSnapshot]
	reloadMu chan struct{}
}

func NewSettingsService(
	settingsRepo repositories.SettingsRepositoryInterface,
	notificationService NotificationServiceInterface,
	gatekeeper *authz.Gatekeeper,
	bus *eventbus.Bus,
	ttl time.Duration,
	logger *zap.Logger,
) *SettingsService {
	s := &SettingsService{
		settingsRepo:        settingsRepo,
		notificationService: notificationService,
		gatekeeper:          gatekeeper,
		bus:                 bus,
		logger:              logger,
		ttl:                 ttl,
		now:                 time.Now,
		reloadMu:            make(chan struct{}, 1),
	}
	s.reloadMu <- struct{}{}
	return s
}

// snapshotFor returns a fresh-enough snapshot, reloading from the database
// when the TTL has lapsed. Concurrent readers keep serving the stale
// snapshot while one goroutine reloads.
func (s *SettingsService) snapshotFor(ctx context.Context) (*settingsSnapshot, error) {
	snap := s.snapshot.Load()
	if snap != nil && s.now().Sub(snap.loadedAt) < s.ttl {
		return snap, nil
	}

	select {
	case token := <-s.reloadMu:
		defer func() { s.reloadMu <- token }()
		// Another goroutine may have reloaded while we waited.
		if snap = s.snapshot.Load(); snap != nil && s.now().Sub(snap.loadedAt) < s.ttl {
			return snap, nil
		}
		fresh, err := s.load(ctx)
		if err != nil {
			if snap != nil {
				s.logger.Warn("settings reload failed, serving stale snapshot", zap.Error(err))
				return snap, nil
			}
			return nil, err
		}
		s.snapshot.Store(fresh)
		return fresh, nil
	default:
		// A reload is in flight; fall back to whatever we have.
		if snap != nil {
			return snap, nil
		}
		token := <-s.reloadMu
		defer func() { s.reloadMu <- token }()
		if snap = s.snapshot.Load(); snap != nil {
			return snap, nil
		}
		fresh, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.snapshot.Store(fresh)
		return fresh, nil
	}
}

func (s *SettingsService) load(ctx context.Context) (*settingsSnapshot, error) {
	rows, err := s.settingsRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return &settingsSnapshot{values: values, loadedAt: s.now()}, nil
}

func (s *SettingsService) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	snap, err := s.snapshotFor(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(snap.values))
	for k, v := range snap.values {
		out[k] = v
	}
	return out, nil
}

func (s *SettingsService) Get(ctx context.Context, key string) (json.RawMessage, error) {
	snap, err := s.snapshotFor(ctx)
	if err != nil {
		return nil, err
	}
	value, ok := snap.values[key]
	if !ok {
		return nil, fmt.Errorf("setting %q: %w", key, apperrors.ErrNotFound)
	}
	return value, nil
}

// Set writes through to the database and reloads immediately so the next
// read sees the new value regardless of TTL.
func (s *SettingsService) Set(ctx context.Context, key string, value json.RawMessage) error {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return err
	}
	if !s.gatekeeper.Can(actor, authz.SettingsManage) {
		return apperrors.ErrForbidden
	}
	if err := s.settingsRepo.Upsert(ctx, key, value, null.StringFrom(actor.ID)); err != nil {
		return err
	}
	s.Invalidate()
	_, err = s.snapshotFor(ctx)
	return err
}

// Invalidate drops the snapshot so the next read reloads.
func (s *SettingsService) Invalidate() {
	s.snapshot.Store(nil)
}

func (s *SettingsService) CurrentWeek(ctx context.Context) int {
	week := 1
	if raw, err := s.Get(ctx, SettingCurrentWeek); err == nil {
		var parsed int
		if json.Unmarshal(raw, &parsed) == nil && (parsed == 1 || parsed == 2) {
			week = parsed
		}
	}
	return week
}

func (s *SettingsService) DefaultPayRate(ctx context.Context) float64 {
	var rate float64
	if raw, err := s.Get(ctx, SettingDefaultPayRate); err == nil {
		_ = json.Unmarshal(raw, &rate)
	}
	return rate
}

// RotateWeek flips the scheduling epoch between 1 and 2 and tells every
// active user about it. Notification failures do not roll the flip back.
func (s *SettingsService) RotateWeek(ctx context.Context) (int, int, error) {
	actor, err := actorFromCtx(ctx)
	if err != nil {
		return 0, 0, err
	}
	if !s.gatekeeper.Can(actor, authz.SettingsManage) {
		return 0, 0, apperrors.ErrForbidden
	}

	// Read the week straight from the store so the flip never starts from
	// a TTL-stale snapshot. A missing key means week 1.
	previous := 1
	if row, err := s.settingsRepo.Get(ctx, SettingCurrentWeek); err == nil {
		var parsed int
		if json.Unmarshal(row.Value, &parsed) == nil && (parsed == 1 || parsed == 2) {
			previous = parsed
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, 0, err
	}
	current := 3 - previous

	raw, _ := json.Marshal(current)
	if err := s.settingsRepo.Upsert(ctx, SettingCurrentWeek, raw, null.StringFrom(actor.ID)); err != nil {
		return 0, 0, err
	}
	s.Invalidate()

	message := fmt.Sprintf("Scheduling week rotated to week %d", current)
	if err := s.notificationService.NotifyAllActive(ctx, "Week rotation", message, constants.NotificationWeekRotation); err != nil {
		s.logger.Error("week rotation notification failed", zap.Error(err))
	}
	s.bus.Publish(ctx, events.WeekRotatedEvent{PreviousWeek: previous, CurrentWeek: current, Actor: actor})

	return previous, current, nil
}
