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

	"github.com/gofiber/fiber/v2"
	"github.com/paper-trade/pt-api/data"
	"github.com/rs/zerolog/log"
)

// SecurityHandler serves market data lookups for bare symbols.
type SecurityHandler struct {
	Data *data.Manager
}

type quoteResponse struct {
	Symbol string             `json:"symbol"`
	Price  float64            `json:"price"`
	Info   *data.SecurityInfo `json:"info"`
}

// Quote returns the latest price and company metadata for a symbol.
func (h *SecurityHandler) Quote(c *fiber.Ctx) error {
	symbol := c.Params("symbol")

	price, err := h.Data.CurrentPrice(c.Context(), symbol)
	if err != nil {
		if errors.Is(err, data.ErrNoQuote) {
			return fiber.ErrNotFound
		}
		log.Warn().Err(err).Str("Symbol", symbol).Msg("quote lookup failed")
		return fiber.ErrNotFound
	}

	info, err := h.Data.Info(c.Context(), symbol)
	if err != nil {
		log.Warn().Err(err).Str("Symbol", symbol).Msg("security info lookup failed")
		info = nil
	}

	return c.JSON(quoteResponse{
		Symbol: symbol,
		Price:  price,
		Info:   info,
	})
}

// History returns historical bars for a symbol.
func (h *SecurityHandler) History(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	period := c.Query("period", data.Period1y)
	interval := c.Query("interval", data.IntervalDaily)

	bars, err := h.Data.History(c.Context(), symbol, period, interval)
	if err != nil {
		if errors.Is(err, data.ErrUnsupportedPeriod) || errors.Is(err, data.ErrUnsupportedInterval) {
			return fiber.ErrBadRequest
		}
		log.Warn().Err(err).Str("Symbol", symbol).Str("Period", period).Msg("history lookup failed")
		return fiber.ErrNotFound
	}

	return c.JSON(fiber.Map{
		"symbol":   symbol,
		"period":   period,
		"interval": interval,
		"bars":     bars,
	})
}
