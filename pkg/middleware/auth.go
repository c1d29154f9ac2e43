package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"delivery-system/internal/entities"
	"delivery-system/pkg/contextkeys"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/service"
	"delivery-system/pkg/utils"
)

// ActorResolver turns a token subject into a full user profile. The auth
// service backs it with a cached lookup.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID string) (*entities.User, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	resolver   ActorResolver
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, resolver ActorResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		resolver:   resolver,
		logger:     logger,
	}
}

// Auth validates the bearer token, resolves the actor profile and stores
// both the user id and the profile in the request context.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Warn("auth: empty Authorization header")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("auth: malformed Authorization header")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("auth: token validation failed", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}
		if claims.IsRefreshToken {
			m.logger.Warn("auth: refresh token used on a protected route")
			return utils.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
		}

		actor, err := m.resolver.ResolveActor(c.Request().Context(), claims.UserID)
		if err != nil {
			m.logger.Warn("auth: actor resolution failed", zap.String("userID", claims.UserID), zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}
		if !actor.IsActive {
			return utils.ErrorResponse(c, apperrors.ErrUserInactive, m.logger)
		}

		ctx := context.WithValue(c.Request().Context(), contextkeys.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, contextkeys.ActorKey, actor)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
