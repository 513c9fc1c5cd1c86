// Copyright 2026 The Workflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache holds Redis cache-aside decorators over the primary stores.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/observability/logger"
	"github.com/workflowhq/workflow/internal/query"
)

const (
	translationKeyPrefix  = "translation:"
	translationListKeys   = "translations:lists"
	translationListPrefix = "translations:list:"
)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// TranslationCache caches translation reads in Redis. Every write goes to
// the wrapped repository first and then drops the affected keys.
type TranslationCache struct {
	repo     i18n.Repository
	redis    *redis.Client
	ttl      time.Duration
	observer Observer
}

// Observer is told about every cache lookup.
type Observer interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)  {}
func (nopObserver) CacheMiss(string) {}

const cacheName = "translations"

// NewTranslationCache wraps repo with a Redis cache.
func NewTranslationCache(repo i18n.Repository, client *redis.Client, ttl time.Duration) *TranslationCache {
	return &TranslationCache{repo: repo, redis: client, ttl: ttl, observer: nopObserver{}}
}

// WithObserver reports hits and misses to o.
func (c *TranslationCache) WithObserver(o Observer) *TranslationCache {
	c.observer = o
	return c
}

func translationKey(id int64) string {
	return fmt.Sprintf("%s%d", translationKeyPrefix, id)
}

// GetByID gets a translation with caching
func (c *TranslationCache) GetByID(ctx context.Context, id int64) (*i18n.Translation, error) {
	key := translationKey(id)

	if cached, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var t i18n.Translation
		if err := json.Unmarshal(cached, &t); err == nil {
			c.observer.CacheHit(cacheName)
			return &t, nil
		}
	}
	c.observer.CacheMiss(cacheName)

	t, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, t)
	return t, nil
}

// List lists translations with caching. Each distinct filter is its own key.
func (c *TranslationCache) List(ctx context.Context, spec query.Spec) ([]*i18n.Translation, error) {
	key := translationListPrefix + spec.String()

	if cached, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var list []*i18n.Translation
		if err := json.Unmarshal(cached, &list); err == nil {
			c.observer.CacheHit(cacheName)
			return list, nil
		}
	}
	c.observer.CacheMiss(cacheName)

	list, err := c.repo.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	if c.store(ctx, key, list) {
		c.redis.SAdd(ctx, translationListKeys, key)
	}
	return list, nil
}

// Create creates a translation and invalidates list caches
func (c *TranslationCache) Create(ctx context.Context, t *i18n.Translation) error {
	if err := c.repo.Create(ctx, t); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Update updates a translation and invalidates its caches
func (c *TranslationCache) Update(ctx context.Context, t *i18n.Translation) error {
	if err := c.repo.Update(ctx, t); err != nil {
		return err
	}
	c.invalidate(ctx, translationKey(t.ID))
	return nil
}

// Delete deletes a translation and invalidates its caches
func (c *TranslationCache) Delete(ctx context.Context, id int64) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, translationKey(id))
	return nil
}

func (c *TranslationCache) store(ctx context.Context, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache write failed", logger.Component("cache"), logger.Error(err))
		return false
	}
	return true
}

// invalidate drops keys and every cached listing.
func (c *TranslationCache) invalidate(ctx context.Context, keys ...string) {
	lists, err := c.redis.SMembers(ctx, translationListKeys).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "cache invalidation failed", logger.Component("cache"), logger.Error(err))
	}
	keys = append(keys, lists...)
	keys = append(keys, translationListKeys)
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", logger.Component("cache"), logger.Error(err))
	}
}
