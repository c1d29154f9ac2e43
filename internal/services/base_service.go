package services

import (
	"context"

	"delivery-system/internal/entities"
	"delivery-system/pkg/contextkeys"
	apperrors "delivery-system/pkg/errors"
)

// actorFromCtx pulls the resolved user profile the auth middleware placed
// into the request context.
func actorFromCtx(ctx context.Context) (*entities.User, error) {
	actor, ok := ctx.Value(contextkeys.ActorKey).(*entities.User)
	if !ok || actor == nil {
		return nil, apperrors.ErrUserNotFoundInContext
	}
	return actor, nil
}
