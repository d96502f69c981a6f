package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	AccountsListKey = "accounts:list"
	AccountsListTTL = 10 * time.Second
)

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every cache
// call below degrades to a miss or a no-op.
func Init(addr, password string, db int) error {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return err
	}
	client = c
	return nil
}

// GetClient returns the Redis client, or nil when Redis is not in use
func GetClient() *redis.Client {
	return client
}

// Close releases the connection pool
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// Ping reports Redis health. A disabled cache is healthy.
func Ping(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Ping(ctx).Err()
}

// GetCachedAccounts returns the cached account list JSON
func GetCachedAccounts(ctx context.Context) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, AccountsListKey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheAccounts stores the account list JSON for AccountsListTTL
func CacheAccounts(ctx context.Context, data []byte) {
	if client == nil {
		return
	}
	client.Set(ctx, AccountsListKey, data, AccountsListTTL)
}

// InvalidateAccounts drops the cached account list after a balance change
func InvalidateAccounts(ctx context.Context) {
	if client == nil {
		return
	}
	client.Del(ctx, AccountsListKey)
}
