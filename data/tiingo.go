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
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

type tiingo struct {
	apikey string
}

type tiingoJSONResponse struct {
	Date        string  `json:"date"`
	Close       float64 `json:"close"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Open        float64 `json:"open"`
	Volume      int64   `json:"volume"`
	AdjClose    float64 `json:"adjClose"`
	AdjHigh     float64 `json:"adjHigh"`
	AdjLow      float64 `json:"adjLow"`
	AdjOpen     float64 `json:"adjOpen"`
	AdjVolume   int64   `json:"adjVolume"`
	DivCash     float64 `json:"divCash"`
	SplitFactor float64 `json:"splitFactor"`
}

type tiingoMetaResponse struct {
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
}

type tiingoFundamentalsResponse struct {
	Date          string  `json:"date"`
	MarketCap     float64 `json:"marketCap"`
	PERatio       float64 `json:"peRatio"`
	DividendYield float64 `json:"dividendYield"`
}

var tiingoAPI = "https://api.tiingo.com"

// NewTiingo creates a new Tiingo market data provider
func NewTiingo(key string) Provider {
	return &tiingo{
		apikey: key,
	}
}

// CurrentPrice returns the most recent closing price for symbol.
func (t *tiingo) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(symbol)
	subLog := log.With().Str("Symbol", symbol).Str("Provider", "tiingo").Logger()

	url := fmt.Sprintf("%s/tiingo/daily/%s/prices?token=%s", tiingoAPI, symbol, t.apikey)
	body, err := t.request(ctx, url)
	if err != nil {
		subLog.Warn().Stack().Err(err).Msg("tiingo price request failed")
		return 0, err
	}

	prices := []tiingoJSONResponse{}
	if err := json.Unmarshal(body, &prices); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not unmarshal tiingo price response")
		return 0, err
	}

	if len(prices) == 0 {
		return 0, ErrNoQuote
	}

	return prices[len(prices)-1].Close, nil
}

// Info returns company metadata for symbol. Fundamental measures are merged
// in from the fundamentals endpoint; a failure there degrades to zero values
// rather than failing the whole call.
func (t *tiingo) Info(ctx context.Context, symbol string) (*SecurityInfo, error) {
	symbol = strings.ToUpper(symbol)
	subLog := log.With().Str("Symbol", symbol).Str("Provider", "tiingo").Logger()

	url := fmt.Sprintf("%s/tiingo/daily/%s?token=%s", tiingoAPI, symbol, t.apikey)
	body, err := t.request(ctx, url)
	if err != nil {
		subLog.Warn().Stack().Err(err).Msg("tiingo meta request failed")
		return nil, err
	}

	meta := tiingoMetaResponse{}
	if err := json.Unmarshal(body, &meta); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not unmarshal tiingo meta response")
		return nil, err
	}

	info := &SecurityInfo{
		Symbol:   symbol,
		LongName: meta.Name,
		Sector:   meta.Sector,
		Industry: meta.Industry,
	}

	url = fmt.Sprintf("%s/tiingo/fundamentals/%s/daily?token=%s", tiingoAPI, symbol, t.apikey)
	body, err = t.request(ctx, url)
	if err != nil {
		subLog.Warn().Stack().Err(err).Msg("tiingo fundamentals request failed; continuing with metadata only")
		return info, nil
	}

	fundamentals := []tiingoFundamentalsResponse{}
	if err := json.Unmarshal(body, &fundamentals); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not unmarshal tiingo fundamentals response")
		return info, nil
	}

	if len(fundamentals) > 0 {
		latest := fundamentals[len(fundamentals)-1]
		info.MarketCap = latest.MarketCap
		info.PERatio = latest.PERatio
		info.DividendYield = latest.DividendYield
	}

	return info, nil
}

// History returns OHLCV bars for symbol over the named look-back period at
// the requested interval.
func (t *tiingo) History(ctx context.Context, symbol string, period string, interval string) ([]*Eod, error) {
	symbol = strings.ToUpper(symbol)
	subLog := log.With().Str("Symbol", symbol).Str("Period", period).Str("Interval", interval).Str("Provider", "tiingo").Logger()

	now := time.Now()
	begin, err := periodStart(period, now)
	if err != nil {
		return nil, err
	}

	freq, err := resampleFrequency(interval)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s&resampleFreq=%s&token=%s",
		tiingoAPI, symbol, begin.Format("2006-01-02"), now.Format("2006-01-02"), freq, t.apikey)
	body, err := t.request(ctx, url)
	if err != nil {
		subLog.Warn().Stack().Err(err).Msg("tiingo history request failed")
		return nil, err
	}

	prices := []tiingoJSONResponse{}
	if err := json.Unmarshal(body, &prices); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not unmarshal tiingo history response")
		return nil, err
	}

	history := make([]*Eod, 0, len(prices))
	for _, bar := range prices {
		date, err := time.Parse(time.RFC3339, bar.Date)
		if err != nil {
			subLog.Warn().Stack().Err(err).Str("Date", bar.Date).Msg("could not parse date in tiingo history response")
			continue
		}
		history = append(history, &Eod{
			Date:   date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	return history, nil
}

func (t *tiingo) request(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatusCode, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
