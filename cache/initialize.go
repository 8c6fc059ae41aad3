package cache

import (
	"os"

	"github.com/umakantv/go-utils/cache"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// InitializeCache creates the response cache. The memory backend is the
// default; set CACHE_TYPE=redis to share the cache between restarts.
func InitializeCache(cacheType, redisAddr string) cache.Cache {
	c, err := cache.New(cache.Config{
		Type:          cacheType,
		RedisAddr:     redisAddr,
		RedisPassword: "",
		RedisDB:       0,
	})
	if err != nil {
		logger.Error("Failed to initialize cache:", zap.Error(err))
		os.Exit(1)
	}
	return c
}
