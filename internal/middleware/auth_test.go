package middleware

import (
	"context"
	"crowdx-backend/internal/database"
	"crowdx-backend/internal/services"
	"crowdx-backend/internal/utils"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authFixture struct {
	auth   *services.AuthService
	jwt    *utils.JWTManager
	userID uint
}

func setupAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	users := services.NewUserService(db, nil, zap.NewNop())
	users.HashCost = bcrypt.MinCost
	u, err := users.Register(context.Background(), services.RegisterInput{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	jwtManager := utils.NewJWTManager("test_secret", "", time.Hour, 12*time.Hour)
	return &authFixture{
		auth:   services.NewAuthService(users, jwtManager, services.NewDenylist(nil), zap.NewNop()),
		jwt:    jwtManager,
		userID: u.ID,
	}
}

func whoAmI(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"username": ""})
		return
	}
	_, hasClaims := CurrentClaims(c)
	c.JSON(http.StatusOK, gin.H{"username": user.Username, "claims": hasClaims})
}

func TestAuthMiddleware(t *testing.T) {
	f := setupAuthFixture(t)

	access, _, err := f.jwt.GenerateAccessToken(f.userID, "alice")
	require.NoError(t, err)
	refresh, _, err := f.jwt.GenerateRefreshToken(f.userID, "alice")
	require.NoError(t, err)
	expired, _, err := f.jwt.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).GenerateAccessToken(f.userID, "alice")
	require.NoError(t, err)
	unknown, _, err := f.jwt.GenerateAccessToken(f.userID+100, "nobody")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", AuthMiddleware(f.auth), whoAmI)

	tests := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{"valid access token", "Bearer " + access, http.StatusOK},
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"unknown user", "Bearer " + unknown, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.expectedCode == http.StatusOK {
				assert.Equal(t, "alice", body["username"])
				assert.Equal(t, true, body["claims"])
			} else {
				assert.Equal(t, float64(http.StatusUnauthorized), body["status"])
				assert.Nil(t, body["data"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	f := setupAuthFixture(t)

	access, _, err := f.jwt.GenerateAccessToken(f.userID, "alice")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/maybe", OptionalAuth(f.auth), whoAmI)

	tests := []struct {
		name         string
		header       string
		expectedCode int
		expectedUser string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"authenticated", "Bearer " + access, http.StatusOK, "alice"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/maybe", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedUser, body["username"])
			}
		})
	}
}
