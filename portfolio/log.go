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
	"github.com/rs/zerolog"
)

func (t *Transaction) MarshalZerologObject(e *zerolog.Event) {
	e.Str("SourceID", t.SourceID).
		Time("Date", t.Date).
		Str("Ticker", t.Ticker).
		Str("Kind", t.Kind).
		Float64("Shares", t.Shares).
		Float64("PricePerShare", t.PricePerShare).
		Float64("TotalCost", t.TotalCost)
}

func (m *Metrics) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("TotalReturn", m.TotalReturn).
		Float64("AnnualizedReturn", m.AnnualizedReturn).
		Float64("Volatility", m.Volatility).
		Float64("SharpeRatio", m.SharpeRatio).
		Float64("MaxDrawdown", m.MaxDrawdown).
		Float64("VaR95", m.VaR95)
}

func (r *OptimizationResult) MarshalZerologObject(e *zerolog.Event) {
	weights := zerolog.Dict()
	for symbol, weight := range r.Weights {
		weights.Float64(symbol, weight)
	}
	e.Dict("Weights", weights).
		Float64("ExpectedReturn", r.ExpectedReturn).
		Float64("Volatility", r.Volatility).
		Float64("SharpeRatio", r.SharpeRatio)
}
