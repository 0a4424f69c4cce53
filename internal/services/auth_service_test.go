package services

import (
	"context"
	"crowdx-backend/internal/apperr"
	"crowdx-backend/internal/utils"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestAuthService(t *testing.T, db *gorm.DB, rdb *redis.Client) (*AuthService, *UserService, *utils.JWTManager) {
	t.Helper()
	users := newTestUserService(db, rdb)
	jwtManager := utils.NewJWTManager("access-secret", "refresh-secret", time.Hour, 12*time.Hour)
	return NewAuthService(users, jwtManager, NewDenylist(rdb), zap.NewNop()), users, jwtManager
}

func TestLoginThenAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	_, rdb := setupTestRedis(t)
	auth, users, _ := newTestAuthService(t, db, rdb)
	ctx := context.Background()

	alice := mustRegister(t, users, "alice")

	pair, user, err := auth.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.WithinDuration(t, time.Now().Add(time.Hour), pair.AccessExpiresAt, 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), pair.RefreshExpiresAt, 5*time.Second)

	resolved, claims, err := auth.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "alice", resolved.Username)
	assert.Equal(t, alice.ID, claims.UserID)

	stored, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := setupTestDB(t)
	auth, users, _ := newTestAuthService(t, db, nil)

	mustRegister(t, users, "alice")

	_, _, err := auth.Login(context.Background(), "alice", "wrong-pass")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	db := setupTestDB(t)
	auth, users, jwtManager := newTestAuthService(t, db, nil)
	ctx := context.Background()

	alice := mustRegister(t, users, "alice")
	ghost := mustRegister(t, users, "ghost")

	past := jwtManager.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, _, err := past.GenerateAccessToken(alice.ID, alice.Username)
	require.NoError(t, err)

	refresh, _, err := jwtManager.GenerateRefreshToken(alice.ID, alice.Username)
	require.NoError(t, err)

	foreign := utils.NewJWTManager("someone-else", "", time.Hour, time.Hour)
	forged, _, err := foreign.GenerateAccessToken(alice.ID, alice.Username)
	require.NoError(t, err)

	ghostToken, _, err := jwtManager.GenerateAccessToken(ghost.ID, ghost.Username)
	require.NoError(t, err)
	require.NoError(t, users.Delete(ctx, ghost.ID))

	valid, _, err := jwtManager.GenerateAccessToken(alice.ID, alice.Username)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"refresh token", refresh},
		{"foreign signature", forged},
		{"tampered", valid[:len(valid)-4] + "AAAA"},
		{"deleted user", ghostToken},
		{"garbage", "not.a.token"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := auth.Authenticate(ctx, tt.token)
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
		})
	}
}

func TestRefresh(t *testing.T) {
	db := setupTestDB(t)
	auth, users, _ := newTestAuthService(t, db, nil)
	ctx := context.Background()

	mustRegister(t, users, "alice")
	pair, _, err := auth.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	refreshed, err := auth.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, pair.Refresh, refreshed.Refresh)
	assert.Equal(t, pair.RefreshExpiresAt, refreshed.RefreshExpiresAt)

	user, _, err := auth.Authenticate(ctx, refreshed.Access)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = auth.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerify(t *testing.T) {
	db := setupTestDB(t)
	auth, users, _ := newTestAuthService(t, db, nil)
	ctx := context.Background()

	mustRegister(t, users, "alice")
	pair, _, err := auth.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	assert.NoError(t, auth.Verify(ctx, pair.Access))
	assert.NoError(t, auth.Verify(ctx, pair.Refresh))
	assert.ErrorIs(t, auth.Verify(ctx, "junk"), apperr.ErrUnauthenticated)
}

func TestLogoutDenylistsTokens(t *testing.T) {
	db := setupTestDB(t)
	mr, rdb := setupTestRedis(t)
	auth, users, _ := newTestAuthService(t, db, rdb)
	ctx := context.Background()

	mustRegister(t, users, "alice")
	pair, _, err := auth.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)

	_, claims, err := auth.Authenticate(ctx, pair.Access)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, claims, pair.Refresh))
	assert.True(t, mr.Exists(denylistPrefix+claims.ID))
	assert.True(t, mr.TTL(denylistPrefix+claims.ID) > 0)

	_, _, err = auth.Authenticate(ctx, pair.Access)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = auth.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.ErrorIs(t, auth.Verify(ctx, pair.Access), apperr.ErrUnauthenticated)
}

func TestLogoutRejectsOtherUsersRefreshToken(t *testing.T) {
	db := setupTestDB(t)
	mr, rdb := setupTestRedis(t)
	auth, users, _ := newTestAuthService(t, db, rdb)
	ctx := context.Background()

	mustRegister(t, users, "alice")
	mustRegister(t, users, "bob")
	alicePair, _, err := auth.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)
	bobPair, _, err := auth.Login(ctx, "bob", "s3cret-pass")
	require.NoError(t, err)

	_, claims, err := auth.Authenticate(ctx, alicePair.Access)
	require.NoError(t, err)

	err = auth.Logout(ctx, claims, bobPair.Refresh)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	err = auth.Logout(ctx, claims, "not-a-token")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// A rejected logout leaves every token usable.
	assert.False(t, mr.Exists(denylistPrefix+claims.ID))
	_, _, err = auth.Authenticate(ctx, alicePair.Access)
	assert.NoError(t, err)
	_, err = auth.Refresh(ctx, bobPair.Refresh)
	assert.NoError(t, err)
}

func TestLogoutWithoutRedis(t *testing.T) {
	db := setupTestDB(t)
	auth, users, _ := newTestAuthService(t, db, nil)
	ctx := context.Background()

	mustRegister(t, users, "alice")
	pair, _, err := auth.Login(ctx, "alice", "s3cret-pass")
	require.NoError(t, err)
	_, claims, err := auth.Authenticate(ctx, pair.Access)
	require.NoError(t, err)

	assert.ErrorIs(t, auth.Logout(ctx, claims, ""), ErrRevocationUnavailable)
}
