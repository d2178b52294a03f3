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

// Package store keeps live portfolios addressable by id for the API layer.
package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/paper-trade/pt-api/portfolio"
)

var ErrPortfolioNotFound = errors.New("portfolio not found")

// Repository is the lookup surface handlers use to resolve portfolios.
type Repository interface {
	Get(id uuid.UUID) (*portfolio.Portfolio, error)
	Put(p *portfolio.Portfolio) error
	Delete(id uuid.UUID) error
	List() []*portfolio.Portfolio
}

// MemoryStore is an in-process Repository. Portfolios only persist across
// restarts through snapshots.
type MemoryStore struct {
	mu         sync.RWMutex
	portfolios map[uuid.UUID]*portfolio.Portfolio
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		portfolios: make(map[uuid.UUID]*portfolio.Portfolio),
	}
}

func (s *MemoryStore) Get(id uuid.UUID) (*portfolio.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.portfolios[id]
	if !ok {
		return nil, ErrPortfolioNotFound
	}
	return p, nil
}

func (s *MemoryStore) Put(p *portfolio.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios[p.ID] = p
	return nil
}

func (s *MemoryStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.portfolios[id]; !ok {
		return ErrPortfolioNotFound
	}
	delete(s.portfolios, id)
	return nil
}

// List returns the stored portfolios ordered by name for stable output.
func (s *MemoryStore) List() []*portfolio.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*portfolio.Portfolio, 0, len(s.portfolios))
	for _, p := range s.portfolios {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name == list[j].Name {
			return list[i].ID.String() < list[j].ID.String()
		}
		return list[i].Name < list[j].Name
	})
	return list
}
