package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"feargreed-bot/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const lastPriceKeyPrefix = "last_price:"

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisPriceStore mirrors last known prices into Redis without expiry.
type RedisPriceStore struct {
	client RedisClient
	tracer trace.Tracer
}

func NewRedisPriceStore(client RedisClient, tracer trace.Tracer) *RedisPriceStore {
	return &RedisPriceStore{client: client, tracer: tracer}
}

func (s *RedisPriceStore) SaveLastPrice(ctx context.Context, instrument domain.Instrument, price float64) error {
	ctx, span := s.tracer.Start(ctx, "price-store.save")
	defer span.End()

	value := strconv.FormatFloat(price, 'f', -1, 64)
	return s.client.Set(ctx, lastPriceKeyPrefix+string(instrument), value, 0).Err()
}

func (s *RedisPriceStore) LoadLastPrices(ctx context.Context) (map[domain.Instrument]float64, error) {
	ctx, span := s.tracer.Start(ctx, "price-store.load")
	defer span.End()

	out := make(map[domain.Instrument]float64, len(domain.Instruments))
	for _, inst := range domain.Instruments {
		raw, err := s.client.Get(ctx, lastPriceKeyPrefix+string(inst)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load last price for %s: %w", inst, err)
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parse stored price for %s: %w", inst, err)
		}
		out[inst] = price
	}
	return out, nil
}
