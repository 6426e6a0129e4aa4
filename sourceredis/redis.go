// Package sourceredis loads configuration from a Redis hash.
//
// Every field of the hash becomes one property: HSET app:config server.port 9090
// yields server.port=9090.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	source := sourceredis.New(client, "app:config", sourceredis.Options{})
//	sources, err := propbind.NewLoader().WithSource(source).Load(ctx)
package sourceredis

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azhovan/propbind"
	"github.com/redis/go-redis/v9"
)

// ErrHashNotFound is returned for a missing or empty hash when Options.Required is set.
var ErrHashNotFound = errors.New("sourceredis: hash not found")

// HashReader is the subset of the Redis client the source needs.
// *redis.Client and *redis.ClusterClient satisfy it.
type HashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// Options configures Redis source behavior.
type Options struct {
	// Required: if true, a missing hash is an error. Default: false (empty layer).
	Required bool
}

type redisSource struct {
	client HashReader
	key    string
	opts   Options
}

// New creates a source reading the hash stored at key.
func New(client HashReader, key string, opts Options) propbind.Source {
	return &redisSource{client: client, key: key, opts: opts}
}

func (r *redisSource) Load(ctx context.Context) (map[string]any, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read redis hash %s: %w", r.key, err)
	}

	if len(fields) == 0 {
		if r.opts.Required {
			return nil, fmt.Errorf("%w: %s", ErrHashNotFound, r.key)
		}
		return make(map[string]any), nil
	}

	result := make(map[string]any, len(fields))
	for field, value := range fields {
		result[field] = value
	}
	return result, nil
}

func (r *redisSource) Name() string {
	return "redis:" + r.key
}
