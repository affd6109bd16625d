package stats

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/matst80/retls/internal/obs"
	"github.com/redis/go-redis/v9"
)

// Redis keys shared by every relay instance pointing at the same Redis.
const (
	keyActive           = "retls:active"
	keyTotal            = "retls:total"
	keyFailures         = "retls:failures"
	keyTimeouts         = "retls:timeouts"
	keyBytesFromClient  = "retls:bytes_from_client"
	keyBytesFromBackend = "retls:bytes_from_backend"
)

// redisStore aggregates counters across a fleet of relays. Readiness flags
// stay process-local since they describe this instance only.
type redisStore struct {
	client *redis.Client

	mu      sync.Mutex
	ready   bool
	closing bool
}

func newRedisStore(addr, password string, db int) (*redisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &redisStore{client: rdb}, nil
}

var _ Store = (*redisStore)(nil)

func (r *redisStore) incr(key string, delta int64) {
	if err := r.client.IncrBy(context.Background(), key, delta).Err(); err != nil {
		obs.Error("redis.incr", obs.Fields{"err": err.Error(), "key": key})
	}
}

func (r *redisStore) ConnOpened() {
	r.incr(keyActive, 1)
	r.incr(keyTotal, 1)
}

func (r *redisStore) ConnClosed(fromClient, fromBackend int64) {
	r.incr(keyActive, -1)
	if fromClient > 0 {
		r.incr(keyBytesFromClient, fromClient)
	}
	if fromBackend > 0 {
		r.incr(keyBytesFromBackend, fromBackend)
	}
}

func (r *redisStore) Failure(stage string) {
	r.incr(keyFailures, 1)
	if stage == "connect_timeout" {
		r.incr(keyTimeouts, 1)
	}
}

func (r *redisStore) Snapshot() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	vals, err := r.client.MGet(ctx, keyActive, keyTotal, keyFailures, keyTimeouts, keyBytesFromClient, keyBytesFromBackend).Result()
	if err != nil {
		obs.Error("redis.snapshot", obs.Fields{"err": err.Error()})
		return Stats{Now: time.Now().UTC().Format(time.RFC3339)}
	}
	get := func(i int) int64 {
		if i >= len(vals) || vals[i] == nil {
			return 0
		}
		s, ok := vals[i].(string)
		if !ok {
			return 0
		}
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	}
	return Stats{
		Active:           get(0),
		Total:            get(1),
		Failures:         get(2),
		Timeouts:         get(3),
		BytesFromClient:  get(4),
		BytesFromBackend: get(5),
		Now:              time.Now().UTC().Format(time.RFC3339),
	}
}

func (r *redisStore) SetReady(v bool)   { r.mu.Lock(); r.ready = v; r.mu.Unlock() }
func (r *redisStore) SetClosing(v bool) { r.mu.Lock(); r.closing = v; r.mu.Unlock() }
func (r *redisStore) Ready() bool       { r.mu.Lock(); defer r.mu.Unlock(); return r.ready }
func (r *redisStore) Closing() bool     { r.mu.Lock(); defer r.mu.Unlock(); return r.closing }
