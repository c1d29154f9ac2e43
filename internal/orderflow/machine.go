// Package orderflow holds the order status state machine. The six boolean
// progress markers are the source of truth; the textual status is always
// derived from them, never set directly.
package orderflow

import (
	"strings"

	"github.com/aarondl/null/v8"

	"delivery-system/internal/entities"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
)

// Flags is the checkbox snapshot the status derivation runs on.
type Flags struct {
	IsDispatched bool
	IsLoaded     bool
	IsNotified   bool
	IsDelayed    bool
	IsCancelled  bool
	IsDelivered  bool
}

// FlagsOf extracts the checkbox snapshot from an order.
func FlagsOf(o *entities.Order) Flags {
	return Flags{
		IsDispatched: o.IsDispatched,
		IsLoaded:     o.IsLoaded,
		IsNotified:   o.IsNotified,
		IsDelayed:    o.IsDelayed,
		IsCancelled:  o.IsCancelled,
		IsDelivered:  o.IsDelivered,
	}
}

// DeriveStatus folds the checkbox flags into a single status by fixed
// priority: delivered > cancelled > delayed > loaded > dispatched.
// is_notified never influences the status. With nothing set the order is
// back at "dispatched", the scheduling baseline.
func DeriveStatus(f Flags) string {
	switch {
	case f.IsDelivered:
		return constants.StatusDelivered
	case f.IsCancelled:
		return constants.StatusCancelled
	case f.IsDelayed:
		return constants.StatusDelayed
	case f.IsLoaded:
		return constants.StatusLoaded
	default:
		return constants.StatusDispatched
	}
}

// Change is the outcome of applying one checkbox transition.
type Change struct {
	Field      string
	Value      bool
	FromStatus string
	ToStatus   string
}

// ApplyCheckbox mutates the order in place for one checkbox transition and
// reports the resulting status change.
//
// Rules, in order:
//   - a locked order rejects every transition, including re-applying the
//     same value (idempotent writes are still rejected once locked)
//   - checking is_delayed or is_cancelled requires a non-empty reason
//   - unchecking a flag only clears it; the status is re-derived from the
//     remaining flags
//   - checking is_delivered locks the order
func ApplyCheckbox(o *entities.Order, field string, value bool, reason string) (Change, error) {
	if !constants.IsCheckboxField(field) {
		return Change{}, apperrors.NewValidationError("unknown status field: %s", field)
	}
	if o.IsLocked {
		return Change{}, apperrors.ErrOrderLocked
	}

	reason = strings.TrimSpace(reason)
	if value && constants.StatusNeedsReason(statusForField(field)) && reason == "" {
		return Change{}, apperrors.NewValidationError("a reason is required when marking an order %s", statusForField(field))
	}

	ch := Change{Field: field, Value: value, FromStatus: o.Status}

	o.SetCheckbox(field, value)
	o.Status = DeriveStatus(FlagsOf(o))

	switch field {
	case constants.FieldIsDelayed, constants.FieldIsCancelled:
		if value {
			o.StatusReason = null.StringFrom(reason)
		} else if !o.IsDelayed && !o.IsCancelled {
			o.StatusReason = null.String{}
		}
	}
	if field == constants.FieldIsDelivered && value {
		o.IsLocked = true
	}

	ch.ToStatus = o.Status
	return ch, nil
}

// statusForField maps a checkbox column to the status it asserts.
func statusForField(field string) string {
	return strings.TrimPrefix(field, "is_")
}
