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

package data_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/paper-trade/pt-api/data"
)

// countingProvider records how often each operation reaches the provider.
type countingProvider struct {
	price        float64
	info         *data.SecurityInfo
	bars         []*data.Eod
	priceCalls   int
	infoCalls    int
	historyCalls int
}

func (c *countingProvider) CurrentPrice(_ context.Context, _ string) (float64, error) {
	c.priceCalls++
	return c.price, nil
}

func (c *countingProvider) Info(_ context.Context, symbol string) (*data.SecurityInfo, error) {
	c.infoCalls++
	return c.info, nil
}

func (c *countingProvider) History(_ context.Context, _ string, _ string, _ string) ([]*data.Eod, error) {
	c.historyCalls++
	return c.bars, nil
}

func closesToBars(closes []float64) []*data.Eod {
	start := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	bars := make([]*data.Eod, len(closes))
	for idx, c := range closes {
		bars[idx] = &data.Eod{Date: start.AddDate(0, 0, idx), Close: c}
	}
	return bars
}

var _ = Describe("Manager", func() {
	var (
		ctx      context.Context
		provider *countingProvider
		manager  *data.Manager
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = &countingProvider{
			price: 175.25,
			info: &data.SecurityInfo{
				Symbol:   "AAPL",
				LongName: "Apple Inc",
				Sector:   "Technology",
			},
			bars: closesToBars([]float64{100, 102, 101, 103}),
		}

		cache, err := data.NewMemoryCache(64)
		Expect(err).To(BeNil())
		manager = data.NewManager(provider, cache)
	})

	Describe("When fetching current prices", func() {
		It("should serve repeat lookups from the cache", func() {
			price, err := manager.CurrentPrice(ctx, "AAPL")
			Expect(err).To(BeNil())
			Expect(price).To(Equal(175.25))

			provider.price = 200 // should not be visible until the ttl elapses
			price, err = manager.CurrentPrice(ctx, "AAPL")
			Expect(err).To(BeNil())
			Expect(price).To(Equal(175.25))
			Expect(provider.priceCalls).To(Equal(1))
		})

		It("should cache prices per symbol", func() {
			_, err := manager.CurrentPrice(ctx, "AAPL")
			Expect(err).To(BeNil())
			_, err = manager.CurrentPrice(ctx, "MSFT")
			Expect(err).To(BeNil())
			Expect(provider.priceCalls).To(Equal(2))
		})
	})

	Describe("When fetching security info", func() {
		It("should serve repeat lookups from the cache", func() {
			info, err := manager.Info(ctx, "AAPL")
			Expect(err).To(BeNil())
			Expect(info.LongName).To(Equal("Apple Inc"))

			info, err = manager.Info(ctx, "AAPL")
			Expect(err).To(BeNil())
			Expect(info.Sector).To(Equal("Technology"))
			Expect(provider.infoCalls).To(Equal(1))
		})
	})

	Describe("When fetching history", func() {
		It("should serve repeat lookups from the cache", func() {
			bars, err := manager.History(ctx, "AAPL", data.Period1y, data.IntervalDaily)
			Expect(err).To(BeNil())
			Expect(bars).To(HaveLen(4))

			_, err = manager.History(ctx, "AAPL", data.Period1y, data.IntervalDaily)
			Expect(err).To(BeNil())
			Expect(provider.historyCalls).To(Equal(1))
		})

		It("should cache each period and interval separately", func() {
			_, err := manager.History(ctx, "AAPL", data.Period1y, data.IntervalDaily)
			Expect(err).To(BeNil())
			_, err = manager.History(ctx, "AAPL", data.Period6mo, data.IntervalDaily)
			Expect(err).To(BeNil())
			Expect(provider.historyCalls).To(Equal(2))
		})
	})

	Describe("When computing daily returns", func() {
		It("should produce percentage changes between closes", func() {
			dates, returns, err := manager.DailyReturns(ctx, "AAPL", data.Period1y)
			Expect(err).To(BeNil())
			Expect(returns).To(HaveLen(3))
			Expect(dates).To(HaveLen(3))

			Expect(returns[0]).To(BeNumerically("~", 0.02, 1e-12))
			Expect(returns[1]).To(BeNumerically("~", -1.0/102.0, 1e-12))
			Expect(returns[2]).To(BeNumerically("~", 2.0/101.0, 1e-12))
		})

		It("should label each return with the later bar's date", func() {
			dates, _, err := manager.DailyReturns(ctx, "AAPL", data.Period1y)
			Expect(err).To(BeNil())
			Expect(dates[0]).To(Equal(provider.bars[1].Date))
		})

		It("should skip spans that start at a zero close", func() {
			provider.bars = closesToBars([]float64{0, 100, 102})

			_, returns, err := manager.DailyReturns(ctx, "AAPL", data.Period1y)
			Expect(err).To(BeNil())
			Expect(returns).To(HaveLen(1))
			Expect(returns[0]).To(BeNumerically("~", 0.02, 1e-12))
		})

		It("should return empty series for fewer than two bars", func() {
			provider.bars = closesToBars([]float64{100})

			dates, returns, err := manager.DailyReturns(ctx, "AAPL", data.Period1y)
			Expect(err).To(BeNil())
			Expect(dates).To(BeNil())
			Expect(returns).To(BeNil())
		})
	})
})
