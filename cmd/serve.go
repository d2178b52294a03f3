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
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paper-trade/pt-api/common"
	"github.com/paper-trade/pt-api/data"
	"github.com/paper-trade/pt-api/middleware"
	"github.com/paper-trade/pt-api/portfolio"
	"github.com/paper-trade/pt-api/router"
	"github.com/paper-trade/pt-api/store"

	"github.com/rs/zerolog/log"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	viper.BindEnv("snapshot.frequency", "PT_SNAPSHOT_FREQUENCY")
	serveCmd.Flags().Duration("snapshot-frequency", 15*time.Minute, "How often to save portfolio snapshots")
	viper.BindPFlag("snapshot.frequency", serveCmd.Flags().Lookup("snapshot-frequency"))

	rootCmd.AddCommand(serveCmd)
}

// loadSnapshots restores any portfolio snapshots found in dir.
func loadSnapshots(dir string, manager *data.Manager, repo store.Repository) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("Dir", dir).Msg("cannot read snapshot directory")
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		fn := filepath.Join(dir, entry.Name())
		p, err := portfolio.LoadPortfolio(fn, manager)
		if err != nil {
			log.Warn().Err(err).Str("FileName", fn).Msg("skipping unreadable snapshot")
			continue
		}
		if err := repo.Put(p); err != nil {
			log.Error().Stack().Err(err).Str("FileName", fn).Msg("could not register restored portfolio")
		}
	}
}

// saveSnapshots writes every live portfolio to dir, named by id.
func saveSnapshots(dir string, repo store.Repository) {
	for _, p := range repo.List() {
		fn := filepath.Join(dir, p.ID.String()+".json")
		if err := p.Save(fn); err != nil {
			log.Error().Stack().Err(err).Str("FileName", fn).Msg("autosave failed")
		}
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pt-api server",
	Long:  `Run HTTP server that implements the Paper Trade API`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		log.Info().Str("Version", common.CurrentVersion.String()).Msg("initialized logging")

		// Initialize data framework
		cache, err := data.NewCacheFromConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize cache")
		}
		provider := data.NewTiingo(viper.GetString("tiingo.token"))
		manager := data.NewManager(provider, cache)
		log.Info().Msg("initialized data framework")

		repo := store.NewMemoryStore()

		snapshotDir := viper.GetString("snapshot.dir")
		if snapshotDir != "" {
			loadSnapshots(snapshotDir, manager, repo)
		}

		// Create new Fiber instance
		app := fiber.New()

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			log.Info().Str("Signal", sig.String()).Msg("received signal; shutting down")
			if snapshotDir != "" {
				saveSnapshots(snapshotDir, repo)
			}
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("shutdown failed")
			}
		}()

		// Configure CORS
		corsConfig := cors.Config{
			AllowOrigins: "*",
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}
		app.Use(cors.New(corsConfig))

		// Setup logging middleware
		app.Use(middleware.NewLogger())

		// Setup routes
		router.SetupRoutes(app, repo, manager)

		// Periodic snapshot autosave
		if snapshotDir != "" {
			tz, _ := time.LoadLocation("America/New_York") // New York is the reference time
			scheduler := gocron.NewScheduler(tz)
			frequency := viper.GetDuration("snapshot.frequency")
			scheduler.Every(frequency).Do(func() {
				saveSnapshots(snapshotDir, repo)
			})
			scheduler.StartAsync()
		}

		// Start server on http://${host}:${port}
		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	},
}
