package services

import (
	"context"
	"crowdx-backend/internal/apperr"
	"crowdx-backend/internal/models"
	"crowdx-backend/internal/utils"
	"errors"
	"time"

	"go.uber.org/zap"
)

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthService turns credentials into tokens and tokens into users.
type AuthService struct {
	users    *UserService
	jwt      *utils.JWTManager
	denylist *Denylist
	log      *zap.Logger
}

func NewAuthService(users *UserService, jwt *utils.JWTManager, denylist *Denylist, log *zap.Logger) *AuthService {
	return &AuthService{users: users, jwt: jwt, denylist: denylist, log: log}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, *models.User, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	access, accessClaims, err := s.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, nil, err
	}
	refresh, refreshClaims, err := s.jwt.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, user, nil
}

// Refresh issues a new access token. The refresh token itself is returned
// unchanged and keeps its original expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthenticated("token is invalid or expired")
	}
	if err := s.checkDenylist(ctx, claims); err != nil {
		return nil, err
	}
	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	access, accessClaims, err := s.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:           access,
		Refresh:          refreshToken,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticate resolves an access token to exactly one active user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, *utils.Claims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return nil, nil, apperr.Unauthenticated("token is invalid or expired")
	}
	if err := s.checkDenylist(ctx, claims); err != nil {
		return nil, nil, err
	}
	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// Verify checks signature, expiry and revocation of either token type.
func (s *AuthService) Verify(ctx context.Context, token string) error {
	claims, err := s.jwt.ParseAny(token)
	if err != nil {
		return apperr.Unauthenticated("token is invalid or expired")
	}
	return s.checkDenylist(ctx, claims)
}

// Logout revokes the access token described by accessClaims and, when
// given, a refresh token belonging to the same user. Nothing is revoked
// unless the refresh token is valid and owned by the caller.
func (s *AuthService) Logout(ctx context.Context, accessClaims *utils.Claims, refreshToken string) error {
	var refreshClaims *utils.Claims
	if refreshToken != "" {
		var err error
		refreshClaims, err = s.jwt.ParseRefreshToken(refreshToken)
		if err != nil {
			return apperr.Validation("refresh token is invalid or expired")
		}
		if refreshClaims.UserID != accessClaims.UserID {
			return apperr.ErrPermissionDenied
		}
	}

	if err := s.denylist.Add(ctx, accessClaims.ID, time.Until(accessClaims.ExpiresAt.Time)); err != nil {
		return err
	}
	if refreshClaims == nil {
		return nil
	}
	return s.denylist.Add(ctx, refreshClaims.ID, time.Until(refreshClaims.ExpiresAt.Time))
}

func (s *AuthService) checkDenylist(ctx context.Context, claims *utils.Claims) error {
	revoked, err := s.denylist.IsDenylisted(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return apperr.Unauthenticated("token has been revoked")
	}
	return nil
}

func (s *AuthService) activeUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("user not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthenticated("user is inactive")
	}
	return user, nil
}
