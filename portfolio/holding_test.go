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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/paper-trade/pt-api/portfolio"
)

var _ = Describe("Holding", func() {
	var (
		h   *portfolio.Holding
		now time.Time
	)

	BeforeEach(func() {
		h = portfolio.NewHolding("aapl")
		now = time.Date(2025, time.March, 3, 16, 0, 0, 0, time.UTC)
	})

	Describe("When buying shares", func() {
		It("should uppercase the symbol", func() {
			Expect(h.Symbol).To(Equal("AAPL"))
		})

		It("should record shares and cost basis for a single purchase", func() {
			trx, err := h.Apply(now, portfolio.BuyTransaction, 10, 150, 0)
			Expect(err).To(BeNil())
			Expect(trx.TotalCost).To(Equal(1500.0))

			Expect(h.Shares).To(Equal(10.0))
			Expect(h.AvgCost).To(Equal(150.0))
			Expect(h.TotalInvested()).To(Equal(1500.0))
		})

		It("should compute a volume weighted average cost across purchases", func() {
			_, err := h.Apply(now, portfolio.BuyTransaction, 10, 150, 0)
			Expect(err).To(BeNil())
			_, err = h.Apply(now.AddDate(0, 0, 1), portfolio.BuyTransaction, 5, 155, 0)
			Expect(err).To(BeNil())

			Expect(h.Shares).To(Equal(15.0))
			Expect(h.AvgCost).To(BeNumerically("~", 151.6667, 1e-4))
		})

		It("should fold fees into the cost basis", func() {
			_, err := h.Apply(now, portfolio.BuyTransaction, 10, 150, 5)
			Expect(err).To(BeNil())
			Expect(h.AvgCost).To(Equal(150.5))
		})

		It("should reject zero or negative share counts", func() {
			_, err := h.Apply(now, portfolio.BuyTransaction, 0, 150, 0)
			Expect(err).To(MatchError(portfolio.ErrInvalidShares))

			_, err = h.Apply(now, portfolio.BuyTransaction, -3, 150, 0)
			Expect(err).To(MatchError(portfolio.ErrInvalidShares))
		})

		It("should reject unknown transaction kinds", func() {
			_, err := h.Apply(now, "SHORT", 10, 150, 0)
			Expect(err).To(MatchError(portfolio.ErrUnknownTransaction))
		})
	})

	Describe("When selling shares", func() {
		BeforeEach(func() {
			_, err := h.Apply(now, portfolio.BuyTransaction, 10, 150, 0)
			Expect(err).To(BeNil())
		})

		It("should reduce shares and keep the average cost", func() {
			_, err := h.Apply(now.AddDate(0, 0, 5), portfolio.SellTransaction, 4, 160, 0)
			Expect(err).To(BeNil())

			Expect(h.Shares).To(Equal(6.0))
			Expect(h.AvgCost).To(Equal(150.0))
		})

		It("should refuse to sell more shares than held and leave state untouched", func() {
			_, err := h.Apply(now.AddDate(0, 0, 5), portfolio.SellTransaction, 15, 160, 0)
			Expect(err).To(MatchError(portfolio.ErrInsufficientShares))

			Expect(h.Shares).To(Equal(10.0))
			Expect(h.AvgCost).To(Equal(150.0))
			Expect(h.Transactions).To(HaveLen(1))
		})
	})

	Describe("When recording transactions", func() {
		It("should keep the full trade history in order", func() {
			_, err := h.Apply(now, portfolio.BuyTransaction, 10, 150, 0)
			Expect(err).To(BeNil())
			_, err = h.Apply(now.AddDate(0, 0, 1), portfolio.SellTransaction, 5, 152, 0)
			Expect(err).To(BeNil())

			Expect(h.Transactions).To(HaveLen(2))
			Expect(h.Transactions[0].Kind).To(Equal(portfolio.BuyTransaction))
			Expect(h.Transactions[1].Kind).To(Equal(portfolio.SellTransaction))
		})

		It("should assign a deterministic source id", func() {
			trx1, err := h.Apply(now, portfolio.BuyTransaction, 10, 150, 0)
			Expect(err).To(BeNil())

			h2 := portfolio.NewHolding("AAPL")
			trx2, err := h2.Apply(now, portfolio.BuyTransaction, 10, 150, 0)
			Expect(err).To(BeNil())

			Expect(trx1.SourceID).NotTo(BeEmpty())
			Expect(trx1.SourceID).To(Equal(trx2.SourceID))
			Expect(trx1.ID).NotTo(Equal(trx2.ID))
		})
	})
})
