package authz

import (
	"errors"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
)

func admin() *entities.User {
	return &entities.User{ID: "u-admin", Role: constants.RoleAdmin}
}

func driver(id string) *entities.User {
	return &entities.User{ID: id, Role: constants.RoleDriver}
}

func TestCanViewOrder(t *testing.T) {
	g := NewGatekeeper()
	assigned := &entities.Order{DriverID: null.StringFrom("d1")}
	foreign := &entities.Order{DriverID: null.StringFrom("d2")}
	unassigned := &entities.Order{}

	assert.True(t, g.CanViewOrder(admin(), foreign))
	assert.True(t, g.CanViewOrder(&entities.User{Role: constants.RoleDispatcher}, foreign))
	assert.True(t, g.CanViewOrder(driver("d1"), assigned))
	assert.False(t, g.CanViewOrder(driver("d1"), foreign))
	assert.False(t, g.CanViewOrder(driver("d1"), unassigned))
	assert.False(t, g.CanViewOrder(nil, assigned))
}

func TestCanEditOrder(t *testing.T) {
	g := NewGatekeeper()
	assigned := &entities.Order{DriverID: null.StringFrom("d1")}

	assert.True(t, g.CanEditOrder(admin(), assigned))
	assert.True(t, g.CanEditOrder(driver("d1"), assigned))
	assert.False(t, g.CanEditOrder(driver("d2"), assigned))
	assert.False(t, g.CanEditOrder(&entities.User{Role: constants.RoleDispatcher}, assigned))
}

func TestFilterOrderFieldsAdminPassthrough(t *testing.T) {
	g := NewGatekeeper()
	updates := map[string]interface{}{"driver_pay": 425.0, "is_loaded": true}

	filtered, err := g.FilterOrderFields(admin(), updates)
	require.NoError(t, err)
	assert.Equal(t, updates, filtered)
}

func TestFilterOrderFieldsDriver(t *testing.T) {
	g := NewGatekeeper()

	filtered, err := g.FilterOrderFields(driver("d1"), map[string]interface{}{"is_loaded": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"is_loaded": true}, filtered)

	_, err = g.FilterOrderFields(driver("d1"), map[string]interface{}{"driver_pay": 999.0})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = g.FilterOrderFields(driver("d1"), map[string]interface{}{"is_loaded": true, "miles": 12.0})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden), "one bad field rejects the whole request")
}

func TestFilterOrderFieldsEmptyIntersection(t *testing.T) {
	g := NewGatekeeper()

	_, err := g.FilterOrderFields(driver("d1"), map[string]interface{}{})
	var verr *apperrors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestCanCapabilities(t *testing.T) {
	g := NewGatekeeper()

	assert.True(t, g.Can(admin(), UsersManage))
	assert.True(t, g.Can(&entities.User{Role: constants.RoleDispatcher}, DashboardView))
	assert.False(t, g.Can(&entities.User{Role: constants.RoleDispatcher}, UsersManage))
	assert.False(t, g.Can(driver("d1"), OrdersCreate))
	assert.False(t, g.Can(&entities.User{Role: "intern"}, DashboardView))
	assert.False(t, g.Can(nil, DashboardView))
}
