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
	"strings"
	"time"
)

// Holding tracks a position in a single security: net share count and the
// volume-weighted average cost across all buys, net of sell reductions.
// The transaction log is append-only and in chronological order.
type Holding struct {
	Symbol       string         `json:"symbol"`
	Shares       float64        `json:"shares"`
	AvgCost      float64        `json:"avgCost"`
	Transactions []*Transaction `json:"transactions"`
}

// NewHolding creates an empty holding for symbol. The symbol is normalized to
// its canonical uppercase form.
func NewHolding(symbol string) *Holding {
	return &Holding{
		Symbol:       strings.ToUpper(symbol),
		Transactions: []*Transaction{},
	}
}

// Apply executes a buy or sell against the holding.
//
// A buy folds the new lot into the volume-weighted average cost (fees
// included). A sell reduces the share count and fails with
// ErrInsufficientShares if the resulting count would be negative. Validation
// happens before any state is touched: a rejected operation leaves the share
// count, average cost, and transaction log unchanged.
func (h *Holding) Apply(date time.Time, kind string, shares float64, price float64, fees float64) (*Transaction, error) {
	if kind == SellTransaction && h.Shares-shares < 0 {
		return nil, ErrInsufficientShares
	}

	trx, err := NewTransaction(date, h.Symbol, kind, shares, price, fees)
	if err != nil {
		return nil, err
	}

	switch kind {
	case BuyTransaction:
		totalCost := h.Shares*h.AvgCost + trx.TotalCost
		h.Shares += shares
		h.AvgCost = totalCost / h.Shares
	case SellTransaction:
		h.Shares -= shares
	}

	h.Transactions = append(h.Transactions, trx)
	return trx, nil
}

// TotalInvested returns the cost basis of the position.
func (h *Holding) TotalInvested() float64 {
	return h.Shares * h.AvgCost
}
