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

package portfolio

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultOptimizerTrials is the number of random weight vectors sampled
	// per optimization run
	DefaultOptimizerTrials = 10_000

	// targetReturnTolerance is the absolute distance from the requested
	// annualized return within which a sampled allocation is feasible
	targetReturnTolerance = 0.02
)

// Optimizer searches for portfolio weight allocations by Monte Carlo
// sampling: uniform random weight vectors are L1-normalized and scored
// against the annualized covariance matrix of the assets' daily returns.
// This is a brute-force baseline rather than a closed-form solver; results
// vary between runs unless a seeded random source is supplied.
type Optimizer struct {
	symbols []string
	mean    []float64
	cov     *mat.SymDense
	trials  int
	rng     *rand.Rand
}

// OptimizationResult is a candidate allocation with its expected annualized
// performance.
type OptimizationResult struct {
	Weights        map[string]float64 `json:"weights"`
	ExpectedReturn float64            `json:"expected_return"`
	Volatility     float64            `json:"volatility"`
	SharpeRatio    float64            `json:"sharpe_ratio"`
}

// NewOptimizer prepares an optimizer over the given per-symbol return
// series. Series are aligned by date with missing dates treated as 0 return;
// symbols with no data are excluded. rng may be nil, in which case a
// time-seeded source is used.
func NewOptimizer(series map[string]*ReturnSeries, rng *rand.Rand) (*Optimizer, error) {
	symbols, aligned := alignReturns(series)
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	n := len(symbols)
	rows, _ := aligned.Dims()

	mean := make([]float64, n)
	for col := 0; col < n; col++ {
		mean[col] = stat.Mean(mat.Col(nil, col, aligned), nil)
	}

	cov := mat.NewSymDense(n, nil)
	if rows >= 2 {
		stat.CovarianceMatrix(cov, aligned, nil)
		cov.ScaleSym(TradingDaysPerYear, cov)
	}

	return &Optimizer{
		symbols: symbols,
		mean:    mean,
		cov:     cov,
		trials:  DefaultOptimizerTrials,
		rng:     rng,
	}, nil
}

// NumAssets returns the number of assets under optimization.
func (opt *Optimizer) NumAssets() int {
	return len(opt.symbols)
}

// SetTrials overrides the number of random samples drawn per run.
func (opt *Optimizer) SetTrials(trials int) {
	if trials > 0 {
		opt.trials = trials
	}
}

// MaxSharpe returns the sampled allocation with the highest Sharpe ratio.
func (opt *Optimizer) MaxSharpe(riskFreeRate float64) *OptimizationResult {
	if single := opt.singleAsset(); single != nil {
		return single
	}

	var best []float64
	bestSharpe := math.Inf(-1)
	for trial := 0; trial < opt.trials; trial++ {
		weights := opt.randomWeights()
		ret, vol := opt.performance(weights)
		if vol == 0 {
			continue
		}
		sharpe := (ret - riskFreeRate) / vol
		if sharpe > bestSharpe {
			bestSharpe = sharpe
			best = weights
		}
	}

	if best == nil {
		return nil
	}
	return opt.result(best)
}

// MinVariance returns the sampled allocation with the lowest volatility.
func (opt *Optimizer) MinVariance() *OptimizationResult {
	if single := opt.singleAsset(); single != nil {
		return single
	}

	var best []float64
	bestVol := math.Inf(1)
	for trial := 0; trial < opt.trials; trial++ {
		weights := opt.randomWeights()
		_, vol := opt.performance(weights)
		if vol < bestVol {
			bestVol = vol
			best = weights
		}
	}

	if best == nil {
		return nil
	}
	return opt.result(best)
}

// TargetReturn returns the lowest-volatility sampled allocation whose
// expected annualized return falls within the feasibility tolerance of
// target. A nil result means no sampled allocation was feasible; that is a
// normal outcome, not an error.
func (opt *Optimizer) TargetReturn(target float64) *OptimizationResult {
	if single := opt.singleAsset(); single != nil {
		if math.Abs(single.ExpectedReturn-target) < targetReturnTolerance {
			return single
		}
		return nil
	}

	var best []float64
	bestVol := math.Inf(1)
	for trial := 0; trial < opt.trials; trial++ {
		weights := opt.randomWeights()
		ret, vol := opt.performance(weights)
		if math.Abs(ret-target) >= targetReturnTolerance {
			continue
		}
		if vol < bestVol {
			bestVol = vol
			best = weights
		}
	}

	if best == nil {
		return nil
	}
	return opt.result(best)
}

// singleAsset handles the degenerate universes. With one asset the only
// allocation is 100% and its volatility is the asset's own; with zero assets
// there is nothing to allocate. Sampling either would propagate NaNs.
func (opt *Optimizer) singleAsset() *OptimizationResult {
	if len(opt.symbols) != 1 {
		return nil
	}
	ret := opt.mean[0] * TradingDaysPerYear
	vol := math.Sqrt(opt.cov.At(0, 0))
	sharpe := 0.0
	if vol != 0 {
		sharpe = (ret - DefaultRiskFreeRate) / vol
	}
	return &OptimizationResult{
		Weights:        map[string]float64{opt.symbols[0]: 1.0},
		ExpectedReturn: ret,
		Volatility:     vol,
		SharpeRatio:    sharpe,
	}
}

// randomWeights draws a uniform non-negative weight vector and L1-normalizes
// it so the weights sum to 1.
func (opt *Optimizer) randomWeights() []float64 {
	weights := make([]float64, len(opt.symbols))
	sum := 0.0
	for idx := range weights {
		weights[idx] = opt.rng.Float64()
		sum += weights[idx]
	}
	if sum == 0 {
		weights[0] = 1.0
		return weights
	}
	for idx := range weights {
		weights[idx] /= sum
	}
	return weights
}

// performance computes the annualized return and volatility of a weight
// vector: w·mean scaled to a year and sqrt(wᵀ·Σ·w) over the annualized
// covariance matrix.
func (opt *Optimizer) performance(weights []float64) (float64, float64) {
	ret := 0.0
	for idx, w := range weights {
		ret += w * opt.mean[idx]
	}
	ret *= TradingDaysPerYear

	wVec := mat.NewVecDense(len(weights), weights)
	vol := math.Sqrt(mat.Inner(wVec, opt.cov, wVec))

	return ret, vol
}

func (opt *Optimizer) result(weights []float64) *OptimizationResult {
	ret, vol := opt.performance(weights)
	sharpe := 0.0
	if vol != 0 {
		sharpe = (ret - DefaultRiskFreeRate) / vol
	}

	weightMap := make(map[string]float64, len(weights))
	for idx, symbol := range opt.symbols {
		weightMap[symbol] = weights[idx]
	}

	return &OptimizationResult{
		Weights:        weightMap,
		ExpectedReturn: ret,
		Volatility:     vol,
		SharpeRatio:    sharpe,
	}
}
