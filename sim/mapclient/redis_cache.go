package mapclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the optional shared cache tier. A Dual Driver
// comparison run wires both Kernels' Clients at the same Addr so FCFS
// and Optimal share OSRM lookups instead of issuing duplicate requests.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // 0 disables expiry
}

// redisTier is a shared, network-backed cache consulted before the
// in-process FIFO cache misses through to OSRM. It is best-effort: a
// Redis read error is treated as a cache miss and a write error is
// ignored, without logging, rather than failing the lookup.
type redisTier struct {
	client *redis.Client
	ttl    time.Duration
}

// WithRedis adds a shared Redis cache tier in front of OSRM lookups.
func WithRedis(ctx context.Context, opts RedisOptions) Option {
	return func(c *Client) {
		client := redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Password:     opts.Password,
			DB:           opts.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return
		}
		c.remote = &redisTier{client: client, ttl: opts.TTL}
	}
}

func (r *redisTier) get(ctx context.Context, key string) (routeResult, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return routeResult{}, false
	}
	var rr routeResult
	if err := json.Unmarshal(raw, &rr); err != nil {
		return routeResult{}, false
	}
	return rr, true
}

func (r *redisTier) put(ctx context.Context, key string, rr routeResult) {
	raw, err := json.Marshal(rr)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err()
}

const redisKeyPrefix = "carpoolsim:route:"

// Close releases the Redis connection, if one was configured.
func (c *Client) Close() error {
	if c.remote == nil {
		return nil
	}
	if err := c.remote.client.Close(); err != nil {
		return fmt.Errorf("mapclient: close redis client: %w", err)
	}
	return nil
}
