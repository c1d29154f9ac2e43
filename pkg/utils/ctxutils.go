package utils

import (
	"context"

	"delivery-system/pkg/contextkeys"
	apperrors "delivery-system/pkg/errors"
)

// GetUserIDFromCtx extracts the authenticated user's id placed into the
// request context by the auth middleware.
func GetUserIDFromCtx(ctx context.Context) (string, error) {
	id, ok := ctx.Value(contextkeys.UserIDKey).(string)
	if !ok || id == "" {
		return "", apperrors.ErrUserNotFoundInContext
	}
	return id, nil
}
