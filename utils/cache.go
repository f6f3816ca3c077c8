// File: utils/cache.go
package utils

import (
	"context"
	"time"

	"medibot/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SessionCacheClient is the Redis client backing the session store. It stays
// nil when Redis is unreachable at startup; the session store then runs on
// its in-process fallback with reduced durability.
var SessionCacheClient *redis.Client

// InitSessionCache connects the Redis session client. Unlike a hard
// dependency this never aborts the process: the dialogue engine must keep
// answering even without durable sessions.
func InitSessionCache() *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		GetLogger().Warn("Redis unreachable, session store will use in-process fallback",
			zap.String("addr", config.AppConfig.RedisAddr), zap.Error(err))
		return nil
	}
	SessionCacheClient = client
	return client
}

// GetSessionCacheClient returns the Redis session client, or nil when the
// store is running degraded.
func GetSessionCacheClient() *redis.Client {
	return SessionCacheClient
}
