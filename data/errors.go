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

package data

import "errors"

var (
	ErrInvalidStatusCode   = errors.New("http request returned invalid status code")
	ErrNoQuote             = errors.New("no quote data returned for symbol")
	ErrUnsupportedPeriod   = errors.New("unsupported history period")
	ErrUnsupportedInterval = errors.New("unsupported history interval")
)
