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
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	defaultPriceTTL   = 60 * time.Second
	defaultInfoTTL    = time.Hour
	defaultHistoryTTL = time.Hour
)

// Manager wraps a Provider with a TTL cache. Quotes are cached briefly;
// metadata and history for longer. There is no retry or backoff: a provider
// failure is returned to the caller, who decides whether to degrade.
type Manager struct {
	provider Provider
	cache    Cache

	priceTTL   time.Duration
	infoTTL    time.Duration
	historyTTL time.Duration
}

// NewManager creates a manager around provider using cache for storage.
// TTLs default to 60s for quotes and 1h for metadata and history; override
// with cache.price_ttl, cache.info_ttl, and cache.history_ttl.
func NewManager(provider Provider, cache Cache) *Manager {
	m := &Manager{
		provider:   provider,
		cache:      cache,
		priceTTL:   defaultPriceTTL,
		infoTTL:    defaultInfoTTL,
		historyTTL: defaultHistoryTTL,
	}

	if ttl := viper.GetDuration("cache.price_ttl"); ttl > 0 {
		m.priceTTL = ttl
	}
	if ttl := viper.GetDuration("cache.info_ttl"); ttl > 0 {
		m.infoTTL = ttl
	}
	if ttl := viper.GetDuration("cache.history_ttl"); ttl > 0 {
		m.historyTTL = ttl
	}

	return m
}

// CurrentPrice returns the latest quote for symbol, served from cache when
// fresh.
func (m *Manager) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(symbol)
	key := fmt.Sprintf("price:%s", symbol)

	if raw, ok := m.cache.Get(ctx, key); ok {
		if price, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return price, nil
		}
	}

	price, err := m.provider.CurrentPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}

	m.cache.Set(ctx, key, []byte(strconv.FormatFloat(price, 'f', -1, 64)), m.priceTTL)
	return price, nil
}

// Info returns company metadata for symbol, served from cache when fresh.
func (m *Manager) Info(ctx context.Context, symbol string) (*SecurityInfo, error) {
	symbol = strings.ToUpper(symbol)
	key := fmt.Sprintf("info:%s", symbol)

	if raw, ok := m.cache.Get(ctx, key); ok {
		info := &SecurityInfo{}
		if err := json.Unmarshal(raw, info); err == nil {
			return info, nil
		}
		log.Warn().Str("Key", key).Msg("discarding unreadable cached info entry")
	}

	info, err := m.provider.Info(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(info); err == nil {
		m.cache.Set(ctx, key, raw, m.infoTTL)
	}
	return info, nil
}

// History returns OHLCV bars for symbol, served from cache when fresh. The
// cache key covers the full request parameters.
func (m *Manager) History(ctx context.Context, symbol string, period string, interval string) ([]*Eod, error) {
	symbol = strings.ToUpper(symbol)
	key := fmt.Sprintf("history:%s:%s:%s", symbol, period, interval)

	if raw, ok := m.cache.Get(ctx, key); ok {
		history := []*Eod{}
		if err := json.Unmarshal(raw, &history); err == nil {
			return history, nil
		}
		log.Warn().Str("Key", key).Msg("discarding unreadable cached history entry")
	}

	history, err := m.provider.History(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(history); err == nil {
		m.cache.Set(ctx, key, raw, m.historyTTL)
	}
	return history, nil
}

// DailyReturns derives the daily fractional price changes over period from
// closing prices. The returned dates identify the trading day each return
// belongs to (the later of the two bars).
func (m *Manager) DailyReturns(ctx context.Context, symbol string, period string) ([]time.Time, []float64, error) {
	history, err := m.History(ctx, symbol, period, IntervalDaily)
	if err != nil {
		return nil, nil, err
	}

	if len(history) < 2 {
		return nil, nil, nil
	}

	dates := make([]time.Time, 0, len(history)-1)
	returns := make([]float64, 0, len(history)-1)
	for idx := 1; idx < len(history); idx++ {
		prev := history[idx-1].Close
		if prev == 0 {
			continue
		}
		dates = append(dates, history[idx].Date)
		returns = append(returns, history[idx].Close/prev-1.0)
	}

	return dates, returns, nil
}
