package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/bistro/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyRatingSubmit = "bistro:rating:submit:%s"

// RatingLimiter throttles rating submissions per caller. A nil limiter
// allows everything.
type RatingLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewRatingLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*RatingLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.RatingRate <= 0 || limitCfg.RatingBurst <= 0 {
		return nil, errors.New("rating rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				// redis may come up after us; Allow fails open meanwhile
				log.Warn("rate limit redis unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return newRatingLimiter(client, limitCfg.RatingRate, limitCfg.RatingBurst), nil
}

func newRatingLimiter(client redis.Scripter, rate float64, burst int) *RatingLimiter {
	return &RatingLimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}
}

func (l *RatingLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow consumes one token for caller, usually the user id or client IP.
func (l *RatingLimiter) Allow(ctx context.Context, caller string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	caller = strings.TrimSpace(caller)
	if caller == "" {
		caller = "anonymous"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyRatingSubmit, caller), l.rate, l.burst)
}
