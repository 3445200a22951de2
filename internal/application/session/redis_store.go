package session

import (
	"context"
	"time"

	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/database/redis"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

const backendRedis = "redis"

// RedisStore keeps sessions in Redis under prefix+id.  Every save refreshes
// the ttl.
type RedisStore struct {
	cache   redis.Cache
	ttl     time.Duration
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// RedisStoreOptions configures NewRedisStore.
type RedisStoreOptions struct {
	Prefix  string
	TTL     time.Duration
	Codec   string // "json" or "msgpack"
	Logger  logging.Logger
	Metrics *prometheus.AppMetrics
}

// NewRedisStore builds a store on top of client.
func NewRedisStore(client *redis.Client, opts RedisStoreOptions) (*RedisStore, error) {
	serializer, err := redis.SerializerFor(opts.Codec)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = prometheus.NewNoopMetrics()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = -1
	}
	cache := redis.NewRedisCache(client, opts.Logger,
		redis.WithPrefix(opts.Prefix),
		redis.WithSerializer(serializer),
		redis.WithDefaultTTL(ttl))
	return &RedisStore{cache: cache, ttl: ttl, logger: opts.Logger, metrics: opts.Metrics}, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (st *domain.State, err error) {
	start := time.Now()
	defer func() { prometheus.RecordSessionOp(s.metrics, backendRedis, "load", err, time.Since(start)) }()

	var rec stateRecord
	if err = s.cache.Get(ctx, id, &rec); err != nil {
		if apperrors.Is(err, redis.ErrCacheMiss) {
			return nil, ErrSessionNotFound.WithDetail(id)
		}
		if apperrors.IsCode(err, apperrors.ErrCodeSerialization) {
			s.logger.WithContext(ctx).Warn("discarding unreadable session", logging.String("session_id", id), logging.Err(err))
			return nil, ErrSessionNotFound.WithDetail(id).WithCause(err)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to load session")
	}
	st, err = fromRecord(&rec)
	if err != nil {
		s.logger.WithContext(ctx).Warn("discarding unreadable session", logging.String("session_id", id), logging.Err(err))
		return nil, ErrSessionNotFound.WithDetail(id).WithCause(err)
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, state *domain.State) (err error) {
	if id == "" {
		return apperrors.InvalidParam("session id is required")
	}
	start := time.Now()
	defer func() { prometheus.RecordSessionOp(s.metrics, backendRedis, "save", err, time.Since(start)) }()

	rec, err := toRecord(state)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, id, rec, s.ttl)
}

func (s *RedisStore) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { prometheus.RecordSessionOp(s.metrics, backendRedis, "delete", err, time.Since(start)) }()
	return s.cache.Delete(ctx, id)
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}
