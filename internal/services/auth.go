package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/service"
)

const actorCacheTTL = 5 * time.Minute

func actorCacheKey(userID string) string {
	return "actor:" + userID
}

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, *entities.User, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error)
	Me(ctx context.Context) (*entities.User, error)
	ResolveActor(ctx context.Context, userID string) (*entities.User, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, *entities.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrUserInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		return nil, nil, err
	}
	pair := &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
	}
	return pair, user, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	user, err := s.userRepo.FindUser(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
	}, nil
}

func (s *AuthService) Me(ctx context.Context) (*entities.User, error) {
	return actorFromCtx(ctx)
}

// ResolveActor fetches the user profile behind a token, serving from the
// cache when it can. A cache miss or a broken payload falls through to the
// database.
func (s *AuthService) ResolveActor(ctx context.Context, userID string) (*entities.User, error) {
	key := actorCacheKey(userID)
	if cached, err := s.cacheRepo.Get(ctx, key); err == nil && cached != "" {
		var user entities.User
		if err := json.Unmarshal([]byte(cached), &user); err == nil {
			return &user, nil
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("actor cache read failed", zap.String("userID", userID), zap.Error(err))
	}

	user, err := s.userRepo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		if err := s.cacheRepo.Set(ctx, key, string(payload), actorCacheTTL); err != nil {
			s.logger.Warn("actor cache write failed", zap.String("userID", userID), zap.Error(err))
		}
	}
	return user, nil
}
