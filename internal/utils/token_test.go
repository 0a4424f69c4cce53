package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager("access_secret", "refresh_secret", time.Hour, 12*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, issued, err := m.GenerateAccessToken(7, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshTokenLifetime(t *testing.T) {
	m := newTestManager()

	token, _, err := m.GenerateRefreshToken(7, "alice")
	require.NoError(t, err)

	claims, err := m.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseRejects(t *testing.T) {
	m := newTestManager()

	access, _, _ := m.GenerateAccessToken(1, "alice")
	refresh, _, _ := m.GenerateRefreshToken(1, "alice")
	expired, _, _ := m.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).GenerateAccessToken(1, "alice")
	foreign, _, _ := NewJWTManager("other", "other", time.Hour, time.Hour).GenerateAccessToken(1, "alice")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1, "token_type": "access", "exp": time.Now().Add(time.Hour).Unix()})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	// Payload of another user's token under the original signature.
	other, _, _ := m.GenerateAccessToken(2, "mallory")
	parts, otherParts := strings.Split(access, "."), strings.Split(other, ".")
	tampered := parts[0] + "." + otherParts[1] + "." + parts[2]

	tests := []struct {
		name  string
		token string
		parse func(string) (*Claims, error)
	}{
		{"expired access", expired, m.ParseAccessToken},
		{"tampered signature", tampered, m.ParseAccessToken},
		{"foreign secret", foreign, m.ParseAccessToken},
		{"alg none", noneToken, m.ParseAccessToken},
		{"refresh presented as access", refresh, m.ParseAccessToken},
		{"access presented as refresh", access, m.ParseRefreshToken},
		{"garbage", "not.a.token", m.ParseAccessToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tt.parse(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestParseAny(t *testing.T) {
	m := newTestManager()

	refresh, _, _ := m.GenerateRefreshToken(3, "bob")
	claims, err := m.ParseAny(refresh)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, claims.TokenType)

	_, err = m.ParseAny("nope")
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr string
	}{
		{"missing", "", "", "authorization header is required"},
		{"wrong scheme", "Token abc", "", "bearer token not found"},
		{"empty bearer", "Bearer ", "", "bearer token not found"},
		{"ok", "Bearer abc.def.ghi", "abc.def.ghi", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}

			got, err := ExtractToken(c)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
