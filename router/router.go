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

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/paper-trade/pt-api/data"
	"github.com/paper-trade/pt-api/handler"
	"github.com/paper-trade/pt-api/store"
)

// SetupRoutes registers the v1 API on app.
func SetupRoutes(app *fiber.App, repo store.Repository, manager *data.Manager) {
	portfolios := &handler.PortfolioHandler{Repo: repo, Data: manager}
	securities := &handler.SecurityHandler{Data: manager}

	api := app.Group("/v1")
	api.Get("/", handler.Ping)

	// Portfolio
	portfolio := api.Group("/portfolio")
	portfolio.Post("/", portfolios.CreatePortfolio)
	portfolio.Get("/", portfolios.ListPortfolios)
	portfolio.Get("/:id", portfolios.GetPortfolio)
	portfolio.Delete("/:id", portfolios.DeletePortfolio)
	portfolio.Post("/:id/holdings", portfolios.AddHolding)
	portfolio.Delete("/:id/holdings/:symbol", portfolios.RemoveHolding)
	portfolio.Post("/:id/sell", portfolios.SellHolding)
	portfolio.Get("/:id/analysis", portfolios.Analyze)
	portfolio.Get("/:id/metrics", portfolios.Metrics)
	portfolio.Get("/:id/allocation", portfolios.Allocation)

	// Security
	security := api.Group("/security")
	security.Get("/:symbol", securities.Quote)
	security.Get("/:symbol/history", securities.History)
}
