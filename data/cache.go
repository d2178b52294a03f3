// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Cache is a time-to-live cache keyed by operation and parameters. Entries
// disappear after their ttl elapses; there is no negative caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type cacheEntry struct {
	expires time.Time
	payload []byte
}

// TieredCache keeps lz4-compressed entries in a local LRU and optionally
// mirrors them to a shared redis instance with a matching TTL.
type TieredCache struct {
	local *lru.Cache
	rdb   *redis.Client
}

// NewMemoryCache creates a purely local cache holding up to size entries.
func NewMemoryCache(size int) (*TieredCache, error) {
	local, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &TieredCache{local: local}, nil
}

// NewCacheFromConfig creates a cache per viper settings: cache.local_size
// bounds the in-process LRU and cache.redis enables the shared tier at
// cache.redis_url.
func NewCacheFromConfig() (*TieredCache, error) {
	size := viper.GetInt("cache.local_size")
	if size == 0 {
		size = 1024
	}

	cache, err := NewMemoryCache(size)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not create LRU cache")
		return nil, err
	}

	if viper.GetBool("cache.redis") {
		opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Stack().Err(err).Msg("could not parse redis URL")
			return nil, err
		}
		cache.rdb = redis.NewClient(opt)
	}

	return cache, nil
}

func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.local.Get(key); ok {
		entry := v.(*cacheEntry)
		if time.Now().Before(entry.expires) {
			val, err := decompress(entry.payload)
			if err != nil {
				log.Warn().Stack().Err(err).Str("Key", key).Msg("could not decompress cache entry")
				return nil, false
			}
			return val, true
		}
		c.local.Remove(key)
	}

	if c.rdb != nil {
		compressed, err := c.rdb.Get(ctx, key).Bytes()
		if err != nil {
			return nil, false
		}
		val, err := decompress(compressed)
		if err != nil {
			log.Warn().Stack().Err(err).Str("Key", key).Msg("could not decompress redis cache entry")
			return nil, false
		}
		return val, true
	}

	return nil, false
}

func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	compressed, err := compress(value)
	if err != nil {
		log.Warn().Stack().Err(err).Str("Key", key).Msg("could not compress cache entry")
		return
	}

	c.local.Add(key, &cacheEntry{
		expires: time.Now().Add(ttl),
		payload: compressed,
	})

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, compressed, ttl).Err(); err != nil {
			log.Warn().Stack().Err(err).Str("Key", key).Msg("could not write cache entry to redis")
		}
	}
}

func compress(in []byte) ([]byte, error) {
	r := bytes.NewReader(in)
	w := &bytes.Buffer{}
	zw := lz4.NewWriter(w)
	_, err := io.Copy(zw, r)
	if err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func decompress(in []byte) ([]byte, error) {
	r := bytes.NewReader(in)
	w := &bytes.Buffer{}
	zr := lz4.NewReader(r)
	_, err := io.Copy(w, zr)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
