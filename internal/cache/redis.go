package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DashboardKey = "ledger:dashboard"
	dashboardTTL = 2 * time.Minute
)

var client *redis.Client

// Init initializes the Redis connection. On failure the package falls back
// to in-process state.
func Init(addr, password string, db int) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client, nil when Redis is unavailable.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// GetCachedDashboard returns the cached dashboard JSON if available
func GetCachedDashboard(ctx context.Context) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, DashboardKey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheDashboard caches the dashboard JSON for 2 minutes
func CacheDashboard(ctx context.Context, data []byte) {
	if client == nil {
		return
	}
	client.Set(ctx, DashboardKey, data, dashboardTTL)
}

// InvalidateLedger drops cached projections after any ledger write
func InvalidateLedger(ctx context.Context) {
	if client == nil {
		return
	}
	client.Del(ctx, DashboardKey)
}
