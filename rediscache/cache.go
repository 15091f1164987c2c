// Package rediscache caches solver results in Redis, keyed by the digest
// of the solved snapshot.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/timpalpant/go-spne"
)

const keyPrefix = "spne:solution:"

type Params struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache stores solutions as JSON in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, params Params) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     params.Addr,
		Password: params.Password,
		DB:       params.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", params.Addr)
	}

	glog.Infof("Connected to Redis solution cache at %s", params.Addr)
	return &Cache{client: client, ttl: params.TTL}, nil
}

// Get returns the cached solution for the given snapshot digest.
// The second return value is false on a cache miss.
func (c *Cache) Get(ctx context.Context, digest string) (*spne.Solution, bool, error) {
	buf, err := c.client.Get(ctx, keyPrefix+digest).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrapf(err, "reading solution %s", digest)
	}

	var sol spne.Solution
	if err := json.Unmarshal(buf, &sol); err != nil {
		return nil, false, errors.Wrapf(err, "decoding solution %s", digest)
	}

	return &sol, true, nil
}

// Set caches the solution for the given snapshot digest.
func (c *Cache) Set(ctx context.Context, digest string, sol *spne.Solution) error {
	buf, err := json.Marshal(sol)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, keyPrefix+digest, buf, c.ttl).Err()
}

// Close implements io.Closer.
func (c *Cache) Close() error {
	return c.client.Close()
}
