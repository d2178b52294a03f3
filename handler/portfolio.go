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

package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/paper-trade/pt-api/data"
	"github.com/paper-trade/pt-api/portfolio"
	"github.com/paper-trade/pt-api/store"
	"github.com/rs/zerolog/log"
)

// PortfolioHandler serves the portfolio routes against a repository of live
// portfolios.
type PortfolioHandler struct {
	Repo store.Repository
	Data *data.Manager
}

type createPortfolioRequest struct {
	Name string  `json:"name"`
	Cash float64 `json:"cash"`
}

type tradeRequest struct {
	Symbol string  `json:"symbol"`
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"`
}

type portfolioSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Cash         float64 `json:"cash"`
	CreationDate string  `json:"creation_date"`
	NumHoldings  int     `json:"num_stocks"`
}

type portfolioDetail struct {
	portfolioSummary
	TotalValue    float64               `json:"total_value"`
	TotalInvested float64               `json:"total_invested"`
	TotalReturn   float64               `json:"total_return"`
	Stocks        []*portfolio.Position `json:"stocks"`
}

func summarize(p *portfolio.Portfolio) portfolioSummary {
	return portfolioSummary{
		ID:           p.ID.String(),
		Name:         p.Name,
		Cash:         p.Cash,
		CreationDate: p.CreationDate.Format("2006-01-02T15:04:05Z07:00"),
		NumHoldings:  p.NumHoldings(),
	}
}

// resolve parses the :id route param and looks the portfolio up.
func (h *PortfolioHandler) resolve(c *fiber.Ctx) (*portfolio.Portfolio, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		log.Warn().Err(err).Str("PortfolioID", c.Params("id")).Msg("malformed portfolio id")
		return nil, fiber.ErrBadRequest
	}

	p, err := h.Repo.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrPortfolioNotFound) {
			return nil, fiber.ErrNotFound
		}
		log.Error().Stack().Err(err).Str("PortfolioID", id.String()).Msg("portfolio lookup failed")
		return nil, fiber.ErrInternalServerError
	}

	return p, nil
}

// CreatePortfolio makes a new empty portfolio with an initial cash balance.
func (h *PortfolioHandler) CreatePortfolio(c *fiber.Ctx) error {
	params := createPortfolioRequest{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		log.Warn().Err(err).Msg("bad create portfolio request")
		return fiber.ErrBadRequest
	}
	if params.Name == "" || params.Cash < 0 {
		return fiber.ErrBadRequest
	}

	p := portfolio.NewPortfolio(params.Name, params.Cash, h.Data)
	if err := h.Repo.Put(p); err != nil {
		log.Error().Stack().Err(err).Str("PortfolioName", params.Name).Msg("could not store portfolio")
		return fiber.ErrInternalServerError
	}

	log.Info().Str("PortfolioID", p.ID.String()).Str("PortfolioName", p.Name).Msg("portfolio created")
	return c.Status(fiber.StatusCreated).JSON(summarize(p))
}

// ListPortfolios lists all portfolios.
func (h *PortfolioHandler) ListPortfolios(c *fiber.Ctx) error {
	portfolios := h.Repo.List()
	summaries := make([]portfolioSummary, 0, len(portfolios))
	for _, p := range portfolios {
		summaries = append(summaries, summarize(p))
	}
	return c.JSON(summaries)
}

// GetPortfolio returns valuation details and current positions for one
// portfolio.
func (h *PortfolioHandler) GetPortfolio(c *fiber.Ctx) error {
	p, err := h.resolve(c)
	if err != nil {
		return err
	}

	return c.JSON(portfolioDetail{
		portfolioSummary: summarize(p),
		TotalValue:       p.TotalValue(c.Context()),
		TotalInvested:    p.TotalInvested(),
		TotalReturn:      p.TotalReturn(c.Context()),
		Stocks:           p.Positions(c.Context()),
	})
}

// DeletePortfolio removes a portfolio from the repository.
func (h *PortfolioHandler) DeletePortfolio(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.ErrBadRequest
	}

	if err := h.Repo.Delete(id); err != nil {
		if errors.Is(err, store.ErrPortfolioNotFound) {
			return fiber.ErrNotFound
		}
		log.Error().Stack().Err(err).Str("PortfolioID", id.String()).Msg("could not delete portfolio")
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

// AddHolding buys shares into the portfolio.
func (h *PortfolioHandler) AddHolding(c *fiber.Ctx) error {
	p, err := h.resolve(c)
	if err != nil {
		return err
	}

	params := tradeRequest{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		log.Warn().Err(err).Msg("bad buy request")
		return fiber.ErrBadRequest
	}

	if err := p.Buy(c.Context(), params.Symbol, params.Shares, params.Price); err != nil {
		log.Warn().Err(err).Str("Symbol", params.Symbol).Msg("buy rejected")
		return fiber.ErrBadRequest
	}

	return c.JSON(summarize(p))
}

// SellHolding sells shares out of the portfolio.
func (h *PortfolioHandler) SellHolding(c *fiber.Ctx) error {
	p, err := h.resolve(c)
	if err != nil {
		return err
	}

	params := tradeRequest{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		log.Warn().Err(err).Msg("bad sell request")
		return fiber.ErrBadRequest
	}

	if err := p.Sell(c.Context(), params.Symbol, params.Shares, params.Price); err != nil {
		if errors.Is(err, portfolio.ErrHoldingNotFound) {
			return fiber.ErrNotFound
		}
		log.Warn().Err(err).Str("Symbol", params.Symbol).Msg("sell rejected")
		return fiber.ErrBadRequest
	}

	return c.JSON(summarize(p))
}

// RemoveHolding drops a position without adjusting cash.
func (h *PortfolioHandler) RemoveHolding(c *fiber.Ctx) error {
	p, err := h.resolve(c)
	if err != nil {
		return err
	}

	symbol := c.Params("symbol")
	if _, ok := p.GetHolding(symbol); !ok {
		return fiber.ErrNotFound
	}

	p.RemoveHolding(symbol)
	return c.JSON(summarize(p))
}

// Analyze returns the full analysis report.
func (h *PortfolioHandler) Analyze(c *fiber.Ctx) error {
	p, err := h.resolve(c)
	if err != nil {
		return err
	}

	period := c.Query("period", data.Period1y)
	return c.JSON(p.Analyze(c.Context(), period))
}

// Metrics returns portfolio-level risk metrics.
func (h *PortfolioHandler) Metrics(c *fiber.Ctx) error {
	p, err := h.resolve(c)
	if err != nil {
		return err
	}

	period := c.Query("period", data.Period1y)
	riskFree := portfolio.DefaultRiskFreeRate
	if raw := c.Query("risk_free_rate"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Warn().Err(err).Str("RiskFreeRate", raw).Msg("cannot parse risk_free_rate query parameter")
			return fiber.ErrBadRequest
		}
		riskFree = parsed
	}
	return c.JSON(p.Metrics(c.Context(), period, riskFree))
}

// Allocation returns percentage allocations by symbol and by sector.
func (h *PortfolioHandler) Allocation(c *fiber.Ctx) error {
	p, err := h.resolve(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"allocation":        p.Allocation(c.Context()),
		"sector_allocation": p.SectorAllocation(c.Context()),
	})
}
