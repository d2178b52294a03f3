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
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

const (
	SourceName = "PT"
)

const (
	BuyTransaction  = "BUY"
	SellTransaction = "SELL"
)

// Transaction is an immutable record of a single buy or sell event.
// Once appended to a holding it is never modified or removed.
type Transaction struct {
	ID            []byte    `json:"id"`
	SourceID      string    `json:"sourceID"`
	Date          time.Time `json:"date"`
	Ticker        string    `json:"ticker"`
	Kind          string    `json:"kind"`
	Shares        float64   `json:"shares"`
	PricePerShare float64   `json:"pricePerShare"`
	Fees          float64   `json:"fees"`
	TotalCost     float64   `json:"totalCost"`
	Source        string    `json:"source"`
}

// NewTransaction creates an immutable transaction record. Shares must be a
// positive value; the direction of the trade is carried by kind.
func NewTransaction(date time.Time, ticker string, kind string, shares float64, price float64, fees float64) (*Transaction, error) {
	if shares <= 0 {
		return nil, ErrInvalidShares
	}
	if kind != BuyTransaction && kind != SellTransaction {
		return nil, ErrUnknownTransaction
	}

	trxID, err := uuid.New().MarshalBinary()
	if err != nil {
		log.Warn().Stack().Err(err).Msg("could not marshal uuid to binary")
		return nil, err
	}

	t := &Transaction{
		ID:            trxID,
		Date:          date,
		Ticker:        ticker,
		Kind:          kind,
		Shares:        shares,
		PricePerShare: price,
		Fees:          fees,
		TotalCost:     shares*price + fees,
		Source:        SourceName,
	}

	if err := computeTransactionSourceID(t); err != nil {
		log.Warn().Stack().Err(err).Time("TransactionDate", date).Str("TransactionTicker", ticker).Str("TransactionType", kind).Msg("couldn't compute SourceID for transaction")
	}

	return t, nil
}

// computeTransactionSourceID calculates a blake3 hash over the identifying
// fields of the transaction. The SourceID is stable across runs and can be
// used to de-duplicate replayed transactions.
func computeTransactionSourceID(t *Transaction) error {
	h := blake3.New()

	d, err := t.Date.UTC().MarshalText()
	if err != nil {
		return err
	}

	if _, err := h.Write(d); err != nil {
		log.Error().Stack().Err(err).Msg("could not write date to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(t.Source)); err != nil {
		log.Error().Stack().Err(err).Msg("could not write source to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(t.Ticker)); err != nil {
		log.Error().Stack().Err(err).Msg("could not write ticker to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(t.Kind)); err != nil {
		log.Error().Stack().Err(err).Msg("could not write kind to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(strconv.FormatFloat(t.Shares, 'f', -1, 64))); err != nil {
		log.Error().Stack().Err(err).Msg("could not write shares to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(strconv.FormatFloat(t.PricePerShare, 'f', -1, 64))); err != nil {
		log.Error().Stack().Err(err).Msg("could not write price to blake3 hasher")
		return err
	}

	digest := h.Sum(nil)
	t.SourceID = hex.EncodeToString(digest)
	return nil
}
