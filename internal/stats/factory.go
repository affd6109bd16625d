package stats

import "github.com/matst80/retls/internal/obs"

// NewStore creates either an in-memory or Redis-backed store based on
// configuration.
func NewStore(redisAddr, redisPassword string, redisDB int) (Store, error) {
	if redisAddr == "" {
		obs.Info("stats.backend", obs.Fields{"type": "in-memory"})
		return newMemoryStore(), nil
	}
	obs.Info("stats.backend", obs.Fields{"type": "redis", "addr": redisAddr})
	return newRedisStore(redisAddr, redisPassword, redisDB)
}
