package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var ErrWrongTokenType = errors.New("token has wrong type")

// Claims is the payload of both access and refresh tokens.
type Claims struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager issues and parses HS256 tokens. Access and refresh tokens are
// signed with separate secrets and carry their type in the claims.
type JWTManager struct {
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	now func() time.Time
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	if refreshSecret == "" {
		refreshSecret = accessSecret
	}
	return &JWTManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *JWTManager) GenerateAccessToken(userID uint, username string) (string, *Claims, error) {
	return m.generate(userID, username, AccessToken, m.AccessTTL, m.accessSecret)
}

func (m *JWTManager) GenerateRefreshToken(userID uint, username string) (string, *Claims, error) {
	return m.generate(userID, username, RefreshToken, m.RefreshTTL, m.refreshSecret)
}

func (m *JWTManager) ParseAccessToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, AccessToken, m.accessSecret)
}

func (m *JWTManager) ParseRefreshToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, RefreshToken, m.refreshSecret)
}

// ParseAny accepts either token type, trying the access secret first.
func (m *JWTManager) ParseAny(tokenString string) (*Claims, error) {
	claims, err := m.ParseAccessToken(tokenString)
	if err == nil {
		return claims, nil
	}
	if refreshClaims, refreshErr := m.ParseRefreshToken(tokenString); refreshErr == nil {
		return refreshClaims, nil
	}
	return nil, err
}

func (m *JWTManager) generate(userID uint, username string, typ TokenType, ttl time.Duration, secret []byte) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (m *JWTManager) parse(tokenString string, want TokenType, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func ExtractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is required")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", fmt.Errorf("bearer token not found")
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if token == "" {
		return "", fmt.Errorf("bearer token not found")
	}
	return token, nil
}
