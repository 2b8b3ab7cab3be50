package services

import (
	"context"
	"fmt"
	"strings"

	appContext "github.com/alphabatem/common/context"
	"github.com/nesivarusta/nvu_api/config"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// RedisService is only connected when the rate limiter is configured to share
// its windows through Redis.
type RedisService struct {
	appContext.DefaultService
	redis *redis.Client
}

const REDIS_SVC = "redis_svc"

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	if strings.EqualFold(viper.GetString(config.RateLimitStore), "redis") {
		svc.initRedisClient()
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis != nil {
		ctx := context.Background()
		_, err := svc.redis.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.WithField("addr", svc.redis.Options().Addr).Info("Connected to Redis")
	}
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		svc.redis.Close()
	}
}

func (svc *RedisService) initRedisClient() {
	svc.redis = redis.NewClient(&redis.Options{
		Addr:     viper.GetString(config.RedisAddr),
		Password: viper.GetString(config.RedisPassword),
		DB:       viper.GetInt(config.RedisDB),
	})
}

// GetClient returns nil when Redis is not in use.
func (svc *RedisService) GetClient() *redis.Client {
	return svc.redis
}
