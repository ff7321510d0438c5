package hub

import (
	"github.com/redis/go-redis/v9"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/config"
)

// ConnectRedis builds the relay client. Returns nil when no address is
// configured; the hub runs standalone in that case.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
