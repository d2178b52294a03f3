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
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/paper-trade/pt-api/data"
	"github.com/rs/zerolog/log"
)

// snapshot is the durable representation of a portfolio. It records current
// positions only; individual transactions, fees, and the portfolio id are not
// part of the format and do not survive a save/load cycle.
type snapshot struct {
	Name         string                      `json:"name"`
	Cash         float64                     `json:"cash"`
	CreationDate string                      `json:"creation_date"`
	Stocks       map[string]snapshotPosition `json:"stocks"`
	Metadata     map[string]string           `json:"metadata"`
}

type snapshotPosition struct {
	Shares        float64 `json:"shares"`
	PurchasePrice float64 `json:"purchase_price"`
}

// Snapshot serializes the portfolio's current state to JSON.
func (p *Portfolio) Snapshot() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := snapshot{
		Name:         p.Name,
		Cash:         p.Cash,
		CreationDate: p.CreationDate.Format(time.RFC3339),
		Stocks:       make(map[string]snapshotPosition, len(p.Holdings)),
		Metadata:     p.Metadata,
	}
	for symbol, h := range p.Holdings {
		snap.Stocks[symbol] = snapshotPosition{
			Shares:        h.Shares,
			PurchasePrice: h.AvgCost,
		}
	}

	return json.MarshalIndent(snap, "", "  ")
}

// Save writes the portfolio snapshot to fn.
func (p *Portfolio) Save(fn string) error {
	payload, err := p.Snapshot()
	if err != nil {
		return err
	}

	if err := os.WriteFile(fn, payload, 0644); err != nil {
		log.Error().Stack().Err(err).Str("FileName", fn).Msg("could not save portfolio")
		return err
	}

	log.Info().Str("FileName", fn).Str("PortfolioName", p.Name).Msg("portfolio saved")
	return nil
}

// RestorePortfolio reconstructs a portfolio from snapshot JSON. Each position
// is replayed as a single purchase at its recorded average cost, which
// reproduces the share count and cost basis exactly; the cash balance comes
// straight from the snapshot. A fresh id is assigned and transaction history
// is not recoverable from the format.
func RestorePortfolio(payload []byte, manager *data.Manager) (*Portfolio, error) {
	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedSnapshot, err)
	}

	p := NewPortfolio(snap.Name, snap.Cash, manager)

	if snap.CreationDate != "" {
		created, err := time.Parse(time.RFC3339, snap.CreationDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad creation_date %q", ErrMalformedSnapshot, snap.CreationDate)
		}
		p.CreationDate = created
	}

	if snap.Metadata != nil {
		p.Metadata = snap.Metadata
	}

	for symbol, pos := range snap.Stocks {
		h := NewHolding(symbol)
		if _, err := h.Apply(p.CreationDate, BuyTransaction, pos.Shares, pos.PurchasePrice, 0); err != nil {
			return nil, fmt.Errorf("%w: position %s: %s", ErrMalformedSnapshot, symbol, err)
		}
		p.Holdings[h.Symbol] = h
	}

	return p, nil
}

// LoadPortfolio reads a snapshot file and reconstructs the portfolio.
func LoadPortfolio(fn string, manager *data.Manager) (*Portfolio, error) {
	payload, err := os.ReadFile(fn)
	if err != nil {
		log.Error().Stack().Err(err).Str("FileName", fn).Msg("could not read portfolio snapshot")
		return nil, err
	}

	p, err := RestorePortfolio(payload, manager)
	if err != nil {
		return nil, err
	}

	log.Info().Str("FileName", fn).Str("PortfolioName", p.Name).Msg("portfolio loaded")
	return p, nil
}
