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
	"context"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/paper-trade/pt-api/data"
	"github.com/paper-trade/pt-api/portfolio"
)

var _ = Describe("Snapshot", func() {
	var (
		ctx     context.Context
		manager *data.Manager
		p       *portfolio.Portfolio
	)

	BeforeEach(func() {
		ctx = context.Background()
		manager = newTestManager(&fakeProvider{
			prices: map[string]float64{"AAPL": 175, "GOOGL": 150},
		})

		p = portfolio.NewPortfolio("retirement", 5000, manager)
		Expect(p.Buy(ctx, "AAPL", 10, 150)).To(Succeed())
		Expect(p.Buy(ctx, "AAPL", 5, 155)).To(Succeed())
		Expect(p.Buy(ctx, "GOOGL", 5, 140)).To(Succeed())
		p.Metadata["owner"] = "alice"
	})

	Describe("When serializing a portfolio", func() {
		It("should write the expected document shape", func() {
			payload, err := p.Snapshot()
			Expect(err).To(BeNil())

			doc := map[string]interface{}{}
			Expect(json.Unmarshal(payload, &doc)).To(Succeed())
			Expect(doc).To(HaveKey("name"))
			Expect(doc).To(HaveKey("cash"))
			Expect(doc).To(HaveKey("creation_date"))
			Expect(doc).To(HaveKey("stocks"))
			Expect(doc).To(HaveKey("metadata"))

			stocks := doc["stocks"].(map[string]interface{})
			Expect(stocks).To(HaveLen(2))
			apple := stocks["AAPL"].(map[string]interface{})
			Expect(apple["shares"]).To(BeNumerically("==", 15))
			Expect(apple["purchase_price"]).To(BeNumerically("~", 151.6667, 1e-4))
		})
	})

	Describe("When restoring a portfolio", func() {
		It("should round-trip name, cash, positions, and metadata", func() {
			payload, err := p.Snapshot()
			Expect(err).To(BeNil())

			restored, err := portfolio.RestorePortfolio(payload, manager)
			Expect(err).To(BeNil())

			Expect(restored.Name).To(Equal(p.Name))
			Expect(restored.Cash).To(Equal(p.Cash))
			Expect(restored.CreationDate.Unix()).To(Equal(p.CreationDate.Unix()))
			Expect(restored.Metadata).To(HaveKeyWithValue("owner", "alice"))
			Expect(restored.NumHoldings()).To(Equal(2))

			apple, ok := restored.GetHolding("AAPL")
			Expect(ok).To(BeTrue())
			Expect(apple.Shares).To(Equal(15.0))
			Expect(apple.AvgCost).To(BeNumerically("~", 151.6667, 1e-4))
		})

		It("should collapse transaction history into a single opening trade", func() {
			payload, err := p.Snapshot()
			Expect(err).To(BeNil())

			restored, err := portfolio.RestorePortfolio(payload, manager)
			Expect(err).To(BeNil())

			apple, ok := restored.GetHolding("AAPL")
			Expect(ok).To(BeTrue())
			Expect(apple.Transactions).To(HaveLen(1))
		})

		It("should assign a fresh id", func() {
			payload, err := p.Snapshot()
			Expect(err).To(BeNil())

			restored, err := portfolio.RestorePortfolio(payload, manager)
			Expect(err).To(BeNil())
			Expect(restored.ID).NotTo(Equal(p.ID))
		})

		It("should reject malformed documents", func() {
			_, err := portfolio.RestorePortfolio([]byte("not json"), manager)
			Expect(err).To(MatchError(portfolio.ErrMalformedSnapshot))

			_, err = portfolio.RestorePortfolio([]byte(`{"name":"x","creation_date":"not a date"}`), manager)
			Expect(err).To(MatchError(portfolio.ErrMalformedSnapshot))
		})
	})

	Describe("When saving to and loading from disk", func() {
		It("should round-trip through a file", func() {
			dir := GinkgoT().TempDir()
			fn := filepath.Join(dir, "retirement.json")

			Expect(p.Save(fn)).To(Succeed())
			_, err := os.Stat(fn)
			Expect(err).To(BeNil())

			restored, err := portfolio.LoadPortfolio(fn, manager)
			Expect(err).To(BeNil())
			Expect(restored.Name).To(Equal("retirement"))
			Expect(restored.Cash).To(Equal(p.Cash))
		})

		It("should fail for a missing file", func() {
			_, err := portfolio.LoadPortfolio("/nonexistent/portfolio.json", manager)
			Expect(err).NotTo(BeNil())
		})
	})
})
