package authz

import (
	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
)

// Gatekeeper is a stateless container for the authorization checks.
type Gatekeeper struct{}

func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{}
}

// Can reports whether the actor holds an operation-level capability.
func (g *Gatekeeper) Can(actor *entities.User, capability string) bool {
	if actor == nil {
		return false
	}
	return roleCapabilities[actor.Role][capability]
}

// CanViewOrder: admins and dispatchers see every order, drivers only their
// own assignments.
func (g *Gatekeeper) CanViewOrder(actor *entities.User, order *entities.Order) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case constants.RoleAdmin, constants.RoleDispatcher:
		return true
	case constants.RoleDriver:
		return order.DriverID.Valid && order.DriverID.String == actor.ID
	}
	return false
}

// CanEditOrder reports whether the actor may mutate the order at all. Field
// level restrictions are applied separately by FilterOrderFields.
func (g *Gatekeeper) CanEditOrder(actor *entities.User, order *entities.Order) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case constants.RoleAdmin:
		return true
	case constants.RoleDriver:
		return order.DriverID.Valid && order.DriverID.String == actor.ID
	}
	return false
}

// FilterOrderFields intersects a requested field update with the actor's
// allowed set. The whole request is rejected if any field falls outside the
// set, and an update that intersects down to nothing is a validation error.
func (g *Gatekeeper) FilterOrderFields(actor *entities.User, updates map[string]interface{}) (map[string]interface{}, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}
	allowed, known := editableOrderFields[actor.Role]
	if !known {
		return nil, apperrors.ErrForbidden
	}
	if allowed == nil {
		return updates, nil
	}

	filtered := make(map[string]interface{}, len(updates))
	for field, value := range updates {
		if !allowed[field] {
			return nil, apperrors.ErrForbidden
		}
		filtered[field] = value
	}
	if len(filtered) == 0 {
		return nil, apperrors.NewValidationError("no permitted fields to update")
	}
	return filtered, nil
}
