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

import "errors"

var (
	ErrInsufficientShares = errors.New("refusing to sell more shares than currently held")
	ErrHoldingNotFound    = errors.New("symbol not found in portfolio")
	ErrInvalidShares      = errors.New("shares must be greater than zero")
	ErrUnknownTransaction = errors.New("unknown transaction kind")
	ErrNoAssets           = errors.New("no assets with return data available")
	ErrMalformedSnapshot  = errors.New("snapshot file is malformed")
)
