// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package redis implements a store backend on top of a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	name          = "redis"
	pingTimeout   = 5 * time.Second
	DefaultPrefix = "parking-memo:"
)

// Config holds the connection settings of the Redis backend.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Backend stores every entry as a plain string key below a common prefix.
type Backend struct {
	client *goredis.Client
	prefix string
}

// New connects to the Redis server and verifies the connection with a ping.
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultPrefix
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Backend{client: client, prefix: config.KeyPrefix}, nil
}

func (b *Backend) Name() string {
	return name
}

// Write sets all entries atomically in a MULTI/EXEC block.
func (b *Backend) Write(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]any, 0, len(entries)*2)
	for key, value := range entries {
		values = append(values, b.prefix+key, value)
	}
	_, err := b.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.MSet(ctx, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write entries: %w", err)
	}
	return nil
}

func (b *Backend) Read(ctx context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = b.prefix + key
	}
	values, err := b.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	for i, value := range values {
		if str, ok := value.(string); ok {
			result[keys[i]] = str
		}
	}
	return result, nil
}

func (b *Backend) Close() error {
	return b.client.Close()
}
