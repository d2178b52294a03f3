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
	"time"
)

// SecurityInfo holds static company metadata for a ticker symbol.
type SecurityInfo struct {
	Symbol        string  `json:"symbol"`
	LongName      string  `json:"longName"`
	Sector        string  `json:"sector"`
	Industry      string  `json:"industry"`
	MarketCap     float64 `json:"marketCap"`
	PERatio       float64 `json:"peRatio"`
	DividendYield float64 `json:"dividendYield"`
}

// Eod is a single bar of an OHLCV time series.
type Eod struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Provider interface for retrieving quotes, company metadata, and price history
type Provider interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	Info(ctx context.Context, symbol string) (*SecurityInfo, error)
	History(ctx context.Context, symbol string, period string, interval string) ([]*Eod, error)
}

const (
	Period1d  = "1d"
	Period5d  = "5d"
	Period1mo = "1mo"
	Period3mo = "3mo"
	Period6mo = "6mo"
	Period1y  = "1y"
	Period2y  = "2y"
	Period5y  = "5y"
	PeriodMax = "max"
)

const (
	IntervalDaily   = "1d"
	IntervalWeekly  = "1wk"
	IntervalMonthly = "1mo"
)

// periodStart converts a named look-back period into a start date relative
// to now.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case Period1d:
		return now.AddDate(0, 0, -1), nil
	case Period5d:
		return now.AddDate(0, 0, -5), nil
	case Period1mo:
		return now.AddDate(0, -1, 0), nil
	case Period3mo:
		return now.AddDate(0, -3, 0), nil
	case Period6mo:
		return now.AddDate(0, -6, 0), nil
	case Period1y:
		return now.AddDate(-1, 0, 0), nil
	case Period2y:
		return now.AddDate(-2, 0, 0), nil
	case Period5y:
		return now.AddDate(-5, 0, 0), nil
	case PeriodMax:
		return time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, ErrUnsupportedPeriod
}

// resampleFrequency maps a bar interval onto the provider's resample
// frequency parameter.
func resampleFrequency(interval string) (string, error) {
	switch interval {
	case IntervalDaily, "":
		return "daily", nil
	case IntervalWeekly:
		return "weekly", nil
	case IntervalMonthly:
		return "monthly", nil
	}
	return "", ErrUnsupportedInterval
}
