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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paper-trade/pt-api/common"
	"github.com/paper-trade/pt-api/data"
	"github.com/paper-trade/pt-api/portfolio"

	"github.com/rs/zerolog/log"
)

var (
	analyzePeriod       string
	analyzeRiskFree     float64
	analyzeTargetReturn float64
	analyzeTrials       int
	analyzeSeed         int64
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzePeriod, "period", data.Period1y, "History period used for metrics and optimization")
	analyzeCmd.Flags().Float64Var(&analyzeRiskFree, "risk-free", portfolio.DefaultRiskFreeRate, "Annual risk-free rate for Sharpe ratios")
	analyzeCmd.Flags().Float64Var(&analyzeTargetReturn, "target-return", 0.15, "Annual return targeted by the constrained allocation search")
	analyzeCmd.Flags().IntVar(&analyzeTrials, "trials", portfolio.DefaultOptimizerTrials, "Number of random allocations to evaluate")
	analyzeCmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "Random seed for the allocation search; 0 seeds from the clock")

	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [snapshot file]",
	Args:  cobra.ExactArgs(1),
	Short: "Analyze a portfolio snapshot",
	Long:  `Load a portfolio snapshot, print its analysis report, and search for improved allocations.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		cache, err := data.NewCacheFromConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize cache")
		}
		provider := data.NewTiingo(viper.GetString("tiingo.token"))
		manager := data.NewManager(provider, cache)

		p, err := portfolio.LoadPortfolio(args[0], manager)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not load portfolio")
		}

		report := p.Analyze(ctx, analyzePeriod)
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("could not serialize report")
		}
		fmt.Println(string(payload))

		var rng *rand.Rand
		if analyzeSeed != 0 {
			rng = rand.New(rand.NewSource(analyzeSeed))
		}

		opt, err := p.Optimizer(ctx, analyzePeriod, rng)
		if err != nil {
			if errors.Is(err, portfolio.ErrNoAssets) {
				log.Warn().Msg("no holdings with return history; skipping allocation search")
				return
			}
			log.Fatal().Err(err).Msg("could not prepare allocation search")
		}
		opt.SetTrials(analyzeTrials)

		candidates := []struct {
			label  string
			result *portfolio.OptimizationResult
		}{
			{"max_sharpe", opt.MaxSharpe(analyzeRiskFree)},
			{"min_variance", opt.MinVariance()},
			{fmt.Sprintf("target_return_%.2f", analyzeTargetReturn), opt.TargetReturn(analyzeTargetReturn)},
		}

		for _, candidate := range candidates {
			if candidate.result == nil {
				fmt.Printf("\n%s: no allocation within tolerance of the target\n", candidate.label)
				continue
			}
			payload, err := json.MarshalIndent(candidate.result, "", "  ")
			if err != nil {
				log.Fatal().Err(err).Msg("could not serialize allocation")
			}
			fmt.Printf("\n%s:\n%s\n", candidate.label, string(payload))
		}
	},
}
