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
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// TradingDaysPerYear is the annualization factor for daily return series
	TradingDaysPerYear = 252

	// DefaultRiskFreeRate is the annualized risk-free rate used when the
	// caller does not supply one
	DefaultRiskFreeRate = 0.02
)

// Metrics summarizes the risk and return profile of a daily return series.
// Every field degrades to 0 when the underlying series is empty.
type Metrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	VaR95            float64 `json:"var_95"`
}

// ReturnSeries pairs daily fractional returns with their trading dates.
// Series from different symbols are aligned by date before any cross-sectional
// statistic is computed.
type ReturnSeries struct {
	Dates   []time.Time
	Returns []float64
}

// Empty reports whether the series has no observations.
func (rs *ReturnSeries) Empty() bool {
	return rs == nil || len(rs.Returns) == 0
}

// AnnualizedVolatility is the sample standard deviation of daily returns
// scaled by the square root of the number of trading days per year.
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
}

// AnnualizedReturn is the mean daily return scaled to a full trading year.
func AnnualizedReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stat.Mean(returns, nil) * TradingDaysPerYear
}

// SharpeRatio is the annualized excess return per unit of volatility.
// Returns 0 when volatility is 0 so a flat series never divides by zero.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	volatility := AnnualizedVolatility(returns)
	if volatility == 0 {
		return 0
	}
	return (AnnualizedReturn(returns) - riskFreeRate) / volatility
}

// MaxDrawdown is the largest peak-to-trough decline of the cumulative return
// series, expressed as a (non-positive) percentage. The cumulative series is
// the running product of (1 + r) starting at 1.0.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := 1.0
	peak := math.Inf(-1)
	maxDrawdown := 0.0
	for _, r := range returns {
		cumulative *= 1.0 + r
		peak = math.Max(peak, cumulative)
		drawdown := (cumulative - peak) / peak
		if drawdown < maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown * 100
}

// ValueAtRisk95 is the 5th percentile of the daily return distribution,
// expressed as a percentage. Losses worse than this value occur on roughly
// 5% of trading days.
func ValueAtRisk95(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return percentile(returns, 5) * 100
}

// percentile computes the pct-th percentile of xs with linear interpolation
// between order statistics, i.e. the value at fractional rank (n-1) * pct/100.
// gonum's stat.Quantile interpolates the empirical CDF with a different
// convention, so this is computed directly.
func percentile(xs []float64, pct float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// CorrelationMatrix computes the pairwise Pearson correlation of the given
// return series after aligning them by date (missing dates count as a 0
// return). Symbols with no return data are ignored. The result is nil when
// fewer than 2 symbols have data.
func CorrelationMatrix(series map[string]*ReturnSeries) map[string]map[string]float64 {
	symbols, aligned := alignReturns(series)
	if len(symbols) < 2 {
		return nil
	}

	n := len(symbols)
	corr := mat.NewSymDense(n, nil)
	stat.CorrelationMatrix(corr, aligned, nil)

	matrix := make(map[string]map[string]float64, n)
	for i, rowSym := range symbols {
		row := make(map[string]float64, n)
		for j, colSym := range symbols {
			v := corr.At(i, j)
			if math.IsNaN(v) {
				// a flat series has zero variance; correlation is undefined
				v = 0
			}
			if i == j {
				v = 1.0
			}
			row[colSym] = v
		}
		matrix[rowSym] = row
	}

	return matrix
}

// alignReturns builds a date-aligned observation matrix from per-symbol
// return series. Rows are trading days (the union of all dates, ascending),
// columns are symbols (sorted); a symbol without an observation on a date
// contributes a 0 return.
func alignReturns(series map[string]*ReturnSeries) ([]string, *mat.Dense) {
	symbols := make([]string, 0, len(series))
	for symbol, rs := range series {
		if !rs.Empty() {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	if len(symbols) == 0 {
		return nil, nil
	}

	const dateKey = "2006-01-02"
	dateSet := make(map[string]bool)
	for _, symbol := range symbols {
		for _, d := range series[symbol].Dates {
			dateSet[d.Format(dateKey)] = true
		}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	dateIdx := make(map[string]int, len(dates))
	for idx, d := range dates {
		dateIdx[d] = idx
	}

	aligned := mat.NewDense(len(dates), len(symbols), nil)
	for col, symbol := range symbols {
		rs := series[symbol]
		for idx, d := range rs.Dates {
			aligned.Set(dateIdx[d.Format(dateKey)], col, rs.Returns[idx])
		}
	}

	return symbols, aligned
}
