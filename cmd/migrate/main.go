// Command migrate brings the configured database schema up to date and
// optionally seeds the valuation reference table.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/rongwang/deductible-server/internal/config"
	"github.com/rongwang/deductible-server/internal/repository"
	"github.com/rongwang/deductible-server/internal/utils"
)

func main() {
	seed := flag.Bool("seed", false, "seed the valuation reference table")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	cfg := config.LoadConfig()
	log := utils.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// SetupDatabase runs the schema manager
	h, err := config.SetupDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	defer h.Close()

	if *seed {
		n, err := repository.New(h).SeedValuations(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("seeding valuations failed")
		}
		log.Info().Int("inserted", n).Msg("valuations seeded")
	}
	log.Info().Msg("schema up to date")
}
