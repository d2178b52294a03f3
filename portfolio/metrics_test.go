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

package portfolio_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/paper-trade/pt-api/portfolio"
)

func tradingDates(start time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for idx := range dates {
		dates[idx] = start.AddDate(0, 0, idx)
	}
	return dates
}

var _ = Describe("Metrics", func() {
	Describe("When computing annualized volatility", func() {
		It("should scale the daily standard deviation by sqrt of trading days", func() {
			returns := []float64{0.01, -0.01, 0.01, -0.01}
			daily := math.Sqrt(4.0 / 3.0 * 0.0001)
			Expect(portfolio.AnnualizedVolatility(returns)).To(BeNumerically("~", daily*math.Sqrt(252), 1e-12))
		})

		It("should return 0 for fewer than two observations", func() {
			Expect(portfolio.AnnualizedVolatility(nil)).To(Equal(0.0))
			Expect(portfolio.AnnualizedVolatility([]float64{0.05})).To(Equal(0.0))
		})
	})

	Describe("When computing annualized return", func() {
		It("should scale the mean daily return by trading days", func() {
			returns := []float64{0.01, 0.02, 0.03}
			Expect(portfolio.AnnualizedReturn(returns)).To(BeNumerically("~", 0.02*252, 1e-12))
		})

		It("should return 0 for an empty series", func() {
			Expect(portfolio.AnnualizedReturn(nil)).To(Equal(0.0))
		})
	})

	Describe("When computing the sharpe ratio", func() {
		It("should be excess return over volatility", func() {
			returns := []float64{0.01, -0.005, 0.02, 0.003, -0.01}
			vol := portfolio.AnnualizedVolatility(returns)
			ret := portfolio.AnnualizedReturn(returns)
			Expect(portfolio.SharpeRatio(returns, 0.02)).To(BeNumerically("~", (ret-0.02)/vol, 1e-12))
		})

		It("should return 0 for a flat series instead of dividing by zero", func() {
			returns := []float64{0.01, 0.01, 0.01, 0.01}
			Expect(portfolio.SharpeRatio(returns, 0.02)).To(Equal(0.0))
		})
	})

	Describe("When computing maximum drawdown", func() {
		It("should find the deepest peak to trough decline", func() {
			// climbs to 1.1, falls to 1.1*0.9*0.95, recovers
			returns := []float64{0.10, -0.10, -0.05, 0.20}
			expected := (0.9*0.95 - 1.0) * 100
			Expect(portfolio.MaxDrawdown(returns)).To(BeNumerically("~", expected, 1e-10))
		})

		It("should never be positive", func() {
			returns := []float64{0.01, 0.02, 0.03}
			Expect(portfolio.MaxDrawdown(returns)).To(BeNumerically("<=", 0.0))
		})

		It("should return 0 for an empty series", func() {
			Expect(portfolio.MaxDrawdown(nil)).To(Equal(0.0))
		})
	})

	Describe("When computing value at risk", func() {
		It("should interpolate the 5th percentile of daily returns", func() {
			// sorted: -0.04 -0.02 -0.01 0.01 0.03; rank 0.05*4 = 0.2
			returns := []float64{0.01, -0.02, 0.03, -0.04, -0.01}
			expected := (-0.04 + (-0.02+0.04)*0.2) * 100
			Expect(portfolio.ValueAtRisk95(returns)).To(BeNumerically("~", expected, 1e-10))
		})

		It("should return 0 for an empty series", func() {
			Expect(portfolio.ValueAtRisk95(nil)).To(Equal(0.0))
		})
	})

	Describe("When computing a correlation matrix", func() {
		var start time.Time

		BeforeEach(func() {
			start = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
		})

		It("should report perfect correlation for identical series", func() {
			returns := []float64{0.01, -0.02, 0.015, 0.005}
			series := map[string]*portfolio.ReturnSeries{
				"AAPL": {Dates: tradingDates(start, 4), Returns: returns},
				"MSFT": {Dates: tradingDates(start, 4), Returns: returns},
			}

			matrix := portfolio.CorrelationMatrix(series)
			Expect(matrix).To(HaveLen(2))
			Expect(matrix["AAPL"]["AAPL"]).To(Equal(1.0))
			Expect(matrix["MSFT"]["MSFT"]).To(Equal(1.0))
			Expect(matrix["AAPL"]["MSFT"]).To(BeNumerically("~", 1.0, 1e-10))
		})

		It("should report negative correlation for mirrored series", func() {
			series := map[string]*portfolio.ReturnSeries{
				"AAPL": {Dates: tradingDates(start, 4), Returns: []float64{0.01, -0.02, 0.015, 0.005}},
				"GLD":  {Dates: tradingDates(start, 4), Returns: []float64{-0.01, 0.02, -0.015, -0.005}},
			}

			matrix := portfolio.CorrelationMatrix(series)
			Expect(matrix["AAPL"]["GLD"]).To(BeNumerically("~", -1.0, 1e-10))
		})

		It("should align series by date and treat gaps as zero returns", func() {
			series := map[string]*portfolio.ReturnSeries{
				"AAPL": {Dates: tradingDates(start, 4), Returns: []float64{0.01, -0.02, 0.015, 0.005}},
				"MSFT": {Dates: tradingDates(start, 2), Returns: []float64{0.02, 0.01}},
			}

			matrix := portfolio.CorrelationMatrix(series)
			Expect(matrix).To(HaveKey("AAPL"))
			Expect(matrix["AAPL"]).To(HaveKey("MSFT"))
			Expect(math.IsNaN(matrix["AAPL"]["MSFT"])).To(BeFalse())
		})

		It("should be nil when fewer than two symbols have return data", func() {
			series := map[string]*portfolio.ReturnSeries{
				"AAPL": {Dates: tradingDates(start, 4), Returns: []float64{0.01, -0.02, 0.015, 0.005}},
				"MSFT": {},
			}
			Expect(portfolio.CorrelationMatrix(series)).To(BeNil())
		})

		It("should map the correlation of a flat series to 0 off the diagonal", func() {
			series := map[string]*portfolio.ReturnSeries{
				"AAPL": {Dates: tradingDates(start, 4), Returns: []float64{0.01, -0.02, 0.015, 0.005}},
				"FLAT": {Dates: tradingDates(start, 4), Returns: []float64{0.01, 0.01, 0.01, 0.01}},
			}

			matrix := portfolio.CorrelationMatrix(series)
			Expect(matrix["AAPL"]["FLAT"]).To(Equal(0.0))
			Expect(matrix["FLAT"]["FLAT"]).To(Equal(1.0))
		})
	})
})
