package auth

import (
	"context"
	"database/sql"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridgefriend/internal/config"
	"fridgefriend/internal/redis"
	"fridgefriend/internal/storage"
)

func TestAuthIssueValidateRevoke(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	insertUser(t, db, 1)

	svc := NewService(db, nil, time.Hour, nil)
	ctx := context.Background()
	token, err := svc.IssueToken(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)

	require.NoError(t, svc.RevokeToken(ctx, token))
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token2, err := svc.IssueToken(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, svc.RevokeUserTokens(ctx, 1))
	_, err = svc.ValidateToken(ctx, token2)
	assert.Error(t, err)
}

func TestAuthValidateExpiredToken(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	insertUser(t, db, 2)

	svc := NewService(db, nil, 10*time.Millisecond, nil)
	token, err := svc.IssueToken(context.Background(), 2)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_tokens WHERE token = ?`, token).Scan(&count))
	assert.Zero(t, count, "expired token not purged")
}

func TestAuthValidateRequiresToken(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db, nil, time.Hour, nil)
	_, err := svc.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenRequired)
	_, err = svc.IssueToken(context.Background(), 0)
	assert.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db, nil, time.Hour, nil)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, " alice ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	got, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.RegisterUser(ctx, "", "x")
	assert.ErrorIs(t, err, ErrCredentialsRequired)
	_, err = svc.RegisterUser(ctx, "alice", "again")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, user.ID), sql.ErrNoRows)
}

func TestAuthTokenCacheUsesRedis(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	insertUser(t, db, 10)

	cacheClient, cleanup := newRedisCacheClient(t)
	defer cleanup()

	svc := NewService(db, cacheClient, time.Hour, nil)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, 10)
	require.NoError(t, err)

	got, err := cacheClient.Raw().Get(ctx, redisTokenPrefix+token).Result()
	require.NoError(t, err)
	assert.Equal(t, "10", got)

	_, _ = db.Exec(`DELETE FROM user_tokens WHERE token = ?`, token)
	userID, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(10), userID)

	require.NoError(t, svc.RevokeToken(ctx, token))
	_, err = cacheClient.Raw().Get(ctx, redisTokenPrefix+token).Result()
	assert.Error(t, err, "expected redis key deleted")
	_, err = svc.ValidateToken(ctx, token)
	assert.Error(t, err)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db, "sqlite3"))
	return db
}

func insertUser(t *testing.T, db *sql.DB, id int64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, '', ?)`,
		id, "user_"+strconv.FormatInt(id, 10), time.Now().UTC())
	require.NoError(t, err)
}

func newRedisCacheClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed auth tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	cfg := &config.Config{
		Redis: config.RedisConfig{Enabled: true, Host: host, Port: port},
	}
	client, err := redis.NewRedisClient(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Raw().FlushDB(ctx).Err())
	return client, func() { client.Close() }
}
