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
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/paper-trade/pt-api/portfolio"
)

var _ = Describe("Optimizer", func() {
	var (
		rng    *rand.Rand
		start  time.Time
		series map[string]*portfolio.ReturnSeries
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(42))
		start = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
		series = map[string]*portfolio.ReturnSeries{
			"AAPL": {Dates: tradingDates(start, 6), Returns: []float64{0.010, -0.005, 0.012, 0.002, -0.008, 0.006}},
			"MSFT": {Dates: tradingDates(start, 6), Returns: []float64{0.004, 0.006, -0.002, 0.008, 0.001, -0.003}},
			"GLD":  {Dates: tradingDates(start, 6), Returns: []float64{-0.002, 0.001, 0.003, -0.001, 0.002, 0.001}},
		}
	})

	Describe("When preparing the optimizer", func() {
		It("should include every symbol with return data", func() {
			opt, err := portfolio.NewOptimizer(series, rng)
			Expect(err).To(BeNil())
			Expect(opt.NumAssets()).To(Equal(3))
		})

		It("should exclude symbols without data", func() {
			series["EMPTY"] = &portfolio.ReturnSeries{}
			opt, err := portfolio.NewOptimizer(series, rng)
			Expect(err).To(BeNil())
			Expect(opt.NumAssets()).To(Equal(3))
		})

		It("should fail when no symbol has data", func() {
			_, err := portfolio.NewOptimizer(map[string]*portfolio.ReturnSeries{"EMPTY": {}}, rng)
			Expect(err).To(MatchError(portfolio.ErrNoAssets))
		})
	})

	Describe("When searching for the best sharpe ratio", func() {
		It("should produce non-negative weights that sum to one", func() {
			opt, err := portfolio.NewOptimizer(series, rng)
			Expect(err).To(BeNil())
			opt.SetTrials(2000)

			result := opt.MaxSharpe(0.02)
			Expect(result).NotTo(BeNil())
			Expect(result.Weights).To(HaveLen(3))

			sum := 0.0
			for _, w := range result.Weights {
				Expect(w).To(BeNumerically(">=", 0.0))
				sum += w
			}
			Expect(sum).To(BeNumerically("~", 1.0, 1e-6))
		})

		It("should be reproducible with a seeded source", func() {
			opt1, err := portfolio.NewOptimizer(series, rand.New(rand.NewSource(7)))
			Expect(err).To(BeNil())
			opt2, err := portfolio.NewOptimizer(series, rand.New(rand.NewSource(7)))
			Expect(err).To(BeNil())

			r1 := opt1.MaxSharpe(0.02)
			r2 := opt2.MaxSharpe(0.02)
			Expect(r1.Weights).To(Equal(r2.Weights))
			Expect(r1.SharpeRatio).To(Equal(r2.SharpeRatio))
		})
	})

	Describe("When searching for minimum variance", func() {
		It("should not beat the best allocation found for volatility", func() {
			opt, err := portfolio.NewOptimizer(series, rng)
			Expect(err).To(BeNil())
			opt.SetTrials(2000)

			minVar := opt.MinVariance()
			maxSharpe := opt.MaxSharpe(0.02)
			Expect(minVar).NotTo(BeNil())
			Expect(maxSharpe).NotTo(BeNil())
			Expect(minVar.Volatility).To(BeNumerically("<=", maxSharpe.Volatility+1e-12))
		})
	})

	Describe("When targeting a specific return", func() {
		It("should return allocations near a feasible target", func() {
			opt, err := portfolio.NewOptimizer(series, rng)
			Expect(err).To(BeNil())
			opt.SetTrials(2000)

			// aim at the attainable middle of the return range
			probe := opt.MinVariance()
			result := opt.TargetReturn(probe.ExpectedReturn)
			Expect(result).NotTo(BeNil())
			Expect(result.ExpectedReturn).To(BeNumerically("~", probe.ExpectedReturn, 0.02))
		})

		It("should return nil for an unreachable target", func() {
			opt, err := portfolio.NewOptimizer(series, rng)
			Expect(err).To(BeNil())
			Expect(opt.TargetReturn(100.0)).To(BeNil())
		})
	})

	Describe("When only one asset has data", func() {
		It("should allocate everything to it", func() {
			single := map[string]*portfolio.ReturnSeries{
				"AAPL": series["AAPL"],
			}
			opt, err := portfolio.NewOptimizer(single, rng)
			Expect(err).To(BeNil())

			result := opt.MaxSharpe(0.02)
			Expect(result).NotTo(BeNil())
			Expect(result.Weights).To(Equal(map[string]float64{"AAPL": 1.0}))
			Expect(result.Volatility).To(BeNumerically(">", 0.0))
		})
	})
})
