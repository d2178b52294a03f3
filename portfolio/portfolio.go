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
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paper-trade/pt-api/data"
	"github.com/rs/zerolog/log"
)

// CashSymbol is the synthetic allocation entry for uninvested cash
const CashSymbol = "CASH"

// Portfolio owns a set of holdings plus a cash balance. All exported methods
// are safe for concurrent use; provider failures during valuation degrade to
// zero values with a diagnostic instead of propagating.
type Portfolio struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Cash         float64             `json:"cash"`
	CreationDate time.Time           `json:"creation_date"`
	Metadata     map[string]string   `json:"metadata"`
	Holdings     map[string]*Holding `json:"holdings"`

	dataProxy *data.Manager
	mu        sync.Mutex
}

// Position is a thin view of a holding used by listing endpoints.
type Position struct {
	Symbol       string  `json:"symbol"`
	Shares       float64 `json:"shares"`
	CurrentValue float64 `json:"current_value"`
}

// HoldingSummary is the per-holding slice of an analysis report.
type HoldingSummary struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Shares          float64 `json:"shares"`
	AvgCost         float64 `json:"purchase_price"`
	CurrentPrice    float64 `json:"current_price"`
	CurrentValue    float64 `json:"current_value"`
	TotalInvested   float64 `json:"total_invested"`
	GainLoss        float64 `json:"gain_loss"`
	GainLossPercent float64 `json:"gain_loss_percent"`
	Sector          string  `json:"sector"`
	Industry        string  `json:"industry"`
	MarketCap       float64 `json:"market_cap"`
	PERatio         float64 `json:"pe_ratio"`
	DividendYield   float64 `json:"dividend_yield"`
	Volatility      float64 `json:"volatility"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
}

// Report aggregates valuation, risk metrics, allocation breakdowns, and
// per-holding summaries. It is the primary externally consumed artifact.
type Report struct {
	Name             string                     `json:"name"`
	TotalValue       float64                    `json:"total_value"`
	TotalInvested    float64                    `json:"total_invested"`
	TotalGainLoss    float64                    `json:"total_gain_loss"`
	TotalReturn      float64                    `json:"total_return"`
	Cash             float64                    `json:"cash"`
	Metrics          *Metrics                   `json:"metrics"`
	Allocation       map[string]float64         `json:"allocation"`
	SectorAllocation map[string]float64         `json:"sector_allocation"`
	Holdings         map[string]*HoldingSummary `json:"stocks"`
	NumHoldings      int                        `json:"num_stocks"`
}

// NewPortfolio creates an empty portfolio with an initial cash balance.
func NewPortfolio(name string, cash float64, manager *data.Manager) *Portfolio {
	return &Portfolio{
		ID:           uuid.New(),
		Name:         name,
		Cash:         cash,
		CreationDate: time.Now(),
		Metadata:     make(map[string]string),
		Holdings:     make(map[string]*Holding),
		dataProxy:    manager,
	}
}

// Buy creates or extends the holding for symbol. The purchase cost is
// deducted from cash only when the balance covers it; otherwise the holding
// is extended anyway and the cash balance is left untouched. That asymmetry
// is long-standing behavior that downstream consumers rely on, so it is kept
// and logged rather than rejected.
func (p *Portfolio) Buy(ctx context.Context, symbol string, shares float64, price float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	h, exists := p.Holdings[symbol]
	if !exists {
		h = NewHolding(symbol)
	}

	if _, err := h.Apply(time.Now(), BuyTransaction, shares, price, 0); err != nil {
		return err
	}
	if !exists {
		p.Holdings[symbol] = h
	}

	cost := shares * price
	if p.Cash >= cost {
		p.Cash -= cost
	} else {
		log.Warn().Str("Symbol", symbol).Float64("Cost", cost).Float64("Cash", p.Cash).Msg("insufficient cash for purchase; cash balance left unchanged")
	}

	return nil
}

// Sell reduces the holding for symbol and credits the proceeds to cash. The
// holding is removed entirely when its share count reaches exactly zero.
func (p *Portfolio) Sell(ctx context.Context, symbol string, shares float64, price float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	h, exists := p.Holdings[symbol]
	if !exists {
		return fmt.Errorf("%w: %s", ErrHoldingNotFound, symbol)
	}

	if _, err := h.Apply(time.Now(), SellTransaction, shares, price, 0); err != nil {
		return err
	}

	p.Cash += shares * price

	if h.Shares == 0 {
		delete(p.Holdings, symbol)
	}

	return nil
}

// RemoveHolding drops the holding for symbol without touching cash. Removing
// an absent symbol is a no-op.
func (p *Portfolio) RemoveHolding(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.Holdings, strings.ToUpper(symbol))
}

// GetHolding returns the holding for symbol, if present.
func (p *Portfolio) GetHolding(symbol string) (*Holding, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.Holdings[strings.ToUpper(symbol)]
	return h, ok
}

// NumHoldings returns the number of open positions.
func (p *Portfolio) NumHoldings() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Holdings)
}

// Positions lists the open positions with their current market value,
// sorted by symbol.
func (p *Portfolio) Positions(ctx context.Context) []*Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	positions := make([]*Position, 0, len(p.Holdings))
	for symbol, h := range p.Holdings {
		positions = append(positions, &Position{
			Symbol:       symbol,
			Shares:       h.Shares,
			CurrentValue: h.Shares * p.priceSafe(ctx, symbol),
		})
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })
	return positions
}

// TotalValue is the market value of all holdings plus cash.
func (p *Portfolio) TotalValue(ctx context.Context) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalValue(ctx)
}

// TotalInvested is the aggregate cost basis of all holdings.
func (p *Portfolio) TotalInvested() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalInvested()
}

// TotalGainLoss is the unrealized gain or loss over the cost basis.
func (p *Portfolio) TotalGainLoss(ctx context.Context) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalGainLoss(ctx)
}

// TotalReturn is the unrealized gain or loss as a percentage of the cost
// basis. Cash appears in both totalValue and the subtraction, so it cancels;
// the formula is kept in this form to match the established report numbers.
// Returns 0 when nothing is invested.
func (p *Portfolio) TotalReturn(ctx context.Context) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalReturn(ctx)
}

// Allocation returns each holding's share of total portfolio value as a
// percentage, with a synthetic CASH entry when the cash balance is positive.
// Entries sum to ~100 whenever total value is positive.
func (p *Portfolio) Allocation(ctx context.Context) map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocation(ctx)
}

// SectorAllocation groups holding values by provider-reported sector before
// converting to percentages. Holdings with no sector metadata fall into
// "Unknown".
func (p *Portfolio) SectorAllocation(ctx context.Context) map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sectorAllocation(ctx)
}

// Metrics computes the portfolio-level risk and return statistics over the
// given history period.
func (p *Portfolio) Metrics(ctx context.Context, period string, riskFreeRate float64) *Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics(ctx, period, riskFreeRate)
}

// CorrelationMatrix computes pairwise correlations between this portfolio's
// holdings over the given history period. Nil when fewer than two holdings
// have return data.
func (p *Portfolio) CorrelationMatrix(ctx context.Context, period string) map[string]map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return CorrelationMatrix(p.holdingReturns(ctx, period))
}

// Optimizer prepares an allocation optimizer over this portfolio's holdings.
func (p *Portfolio) Optimizer(ctx context.Context, period string, rng *rand.Rand) (*Optimizer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return NewOptimizer(p.holdingReturns(ctx, period), rng)
}

// Analyze produces the full report for the portfolio.
func (p *Portfolio) Analyze(ctx context.Context, period string) *Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	summaries := make(map[string]*HoldingSummary, len(p.Holdings))
	for symbol := range p.Holdings {
		summaries[symbol] = p.holdingSummary(ctx, symbol, period)
	}

	return &Report{
		Name:             p.Name,
		TotalValue:       p.totalValue(ctx),
		TotalInvested:    p.totalInvested(),
		TotalGainLoss:    p.totalGainLoss(ctx),
		TotalReturn:      p.totalReturn(ctx),
		Cash:             p.Cash,
		Metrics:          p.metrics(ctx, period, DefaultRiskFreeRate),
		Allocation:       p.allocation(ctx),
		SectorAllocation: p.sectorAllocation(ctx),
		Holdings:         summaries,
		NumHoldings:      len(p.Holdings),
	}
}

// internal helpers; callers hold p.mu

func (p *Portfolio) totalValue(ctx context.Context) float64 {
	value := p.Cash
	for symbol, h := range p.Holdings {
		value += h.Shares * p.priceSafe(ctx, symbol)
	}
	return value
}

func (p *Portfolio) totalInvested() float64 {
	invested := 0.0
	for _, h := range p.Holdings {
		invested += h.TotalInvested()
	}
	return invested
}

func (p *Portfolio) totalGainLoss(ctx context.Context) float64 {
	return p.totalValue(ctx) - p.totalInvested() - p.Cash
}

func (p *Portfolio) totalReturn(ctx context.Context) float64 {
	invested := p.totalInvested()
	if invested == 0 {
		return 0
	}
	return p.totalGainLoss(ctx) / invested * 100
}

func (p *Portfolio) allocation(ctx context.Context) map[string]float64 {
	total := p.totalValue(ctx)
	allocation := make(map[string]float64, len(p.Holdings)+1)
	if total == 0 {
		return allocation
	}

	for symbol, h := range p.Holdings {
		allocation[symbol] = h.Shares * p.priceSafe(ctx, symbol) / total * 100
	}

	if p.Cash > 0 {
		allocation[CashSymbol] = p.Cash / total * 100
	}

	return allocation
}

func (p *Portfolio) sectorAllocation(ctx context.Context) map[string]float64 {
	total := p.totalValue(ctx)
	sectors := make(map[string]float64)
	if total == 0 {
		return sectors
	}

	for symbol, h := range p.Holdings {
		sector := "Unknown"
		if info := p.infoSafe(ctx, symbol); info != nil && info.Sector != "" {
			sector = info.Sector
		}
		sectors[sector] += h.Shares * p.priceSafe(ctx, symbol)
	}

	for sector, value := range sectors {
		sectors[sector] = value / total * 100
	}

	return sectors
}

func (p *Portfolio) metrics(ctx context.Context, period string, riskFreeRate float64) *Metrics {
	m := &Metrics{
		TotalReturn: p.totalReturn(ctx),
	}

	returns := p.portfolioReturns(ctx, period)
	if len(returns) == 0 {
		return m
	}

	m.AnnualizedReturn = AnnualizedReturn(returns) * 100
	m.Volatility = AnnualizedVolatility(returns)
	m.SharpeRatio = SharpeRatio(returns, riskFreeRate)
	m.MaxDrawdown = MaxDrawdown(returns)
	m.VaR95 = ValueAtRisk95(returns)

	return m
}

// portfolioReturns combines per-holding daily returns into one series,
// weighting each holding by its share of total portfolio value. Holdings
// without history contribute nothing.
func (p *Portfolio) portfolioReturns(ctx context.Context, period string) []float64 {
	series := p.holdingReturns(ctx, period)
	symbols, aligned := alignReturns(series)
	if len(symbols) == 0 {
		return nil
	}

	total := p.totalValue(ctx)
	if total == 0 {
		return nil
	}

	weights := make([]float64, len(symbols))
	for idx, symbol := range symbols {
		h := p.Holdings[symbol]
		weights[idx] = h.Shares * p.priceSafe(ctx, symbol) / total
	}

	rows, _ := aligned.Dims()
	combined := make([]float64, rows)
	for row := 0; row < rows; row++ {
		for col := range symbols {
			combined[row] += aligned.At(row, col) * weights[col]
		}
	}

	return combined
}

// holdingReturns fetches each holding's daily return series, degrading to an
// empty series on provider failure.
func (p *Portfolio) holdingReturns(ctx context.Context, period string) map[string]*ReturnSeries {
	series := make(map[string]*ReturnSeries, len(p.Holdings))
	for symbol := range p.Holdings {
		dates, returns, err := p.dataProxy.DailyReturns(ctx, symbol, period)
		if err != nil {
			log.Warn().Stack().Err(err).Str("Symbol", symbol).Str("Period", period).Msg("return history unavailable; treating series as empty")
			series[symbol] = &ReturnSeries{}
			continue
		}
		series[symbol] = &ReturnSeries{Dates: dates, Returns: returns}
	}
	return series
}

func (p *Portfolio) holdingSummary(ctx context.Context, symbol string, period string) *HoldingSummary {
	h := p.Holdings[symbol]
	price := p.priceSafe(ctx, symbol)
	value := h.Shares * price
	invested := h.TotalInvested()

	gainLoss := value - invested
	gainLossPercent := 0.0
	if invested != 0 {
		gainLossPercent = gainLoss / invested * 100
	}

	summary := &HoldingSummary{
		Symbol:          symbol,
		Name:            symbol,
		Shares:          h.Shares,
		AvgCost:         h.AvgCost,
		CurrentPrice:    price,
		CurrentValue:    value,
		TotalInvested:   invested,
		GainLoss:        gainLoss,
		GainLossPercent: gainLossPercent,
	}

	if info := p.infoSafe(ctx, symbol); info != nil {
		if info.LongName != "" {
			summary.Name = info.LongName
		}
		summary.Sector = info.Sector
		summary.Industry = info.Industry
		summary.MarketCap = info.MarketCap
		summary.PERatio = info.PERatio
		summary.DividendYield = info.DividendYield
	}

	_, returns, err := p.dataProxy.DailyReturns(ctx, symbol, period)
	if err == nil {
		summary.Volatility = AnnualizedVolatility(returns)
		summary.SharpeRatio = SharpeRatio(returns, DefaultRiskFreeRate)
	}

	return summary
}

// priceSafe fetches the current price, degrading to 0 with a diagnostic when
// the provider fails. Metrics computed on degraded data still produce a
// well-formed report.
func (p *Portfolio) priceSafe(ctx context.Context, symbol string) float64 {
	price, err := p.dataProxy.CurrentPrice(ctx, symbol)
	if err != nil {
		log.Warn().Stack().Err(err).Str("Symbol", symbol).Msg("price unavailable; degrading to 0")
		return 0
	}
	return price
}

// infoSafe fetches company metadata, degrading to nil when the provider
// fails.
func (p *Portfolio) infoSafe(ctx context.Context, symbol string) *data.SecurityInfo {
	info, err := p.dataProxy.Info(ctx, symbol)
	if err != nil {
		log.Warn().Stack().Err(err).Str("Symbol", symbol).Msg("security info unavailable; degrading to empty")
		return nil
	}
	return info
}
