package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ataa/internal/adapter/repo"
	"ataa/internal/approval"
	"ataa/internal/infra"
)

// Recomputes every case's funded amount from its approved contributions.
// Run once by default, or on an interval with -every.
func main() {
	_ = godotenv.Load()

	var every time.Duration
	flag.DurationVar(&every, "every", 0, "Re-run on this interval (e.g. 15m); zero runs once")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("reconcile: db connection failed")
	}
	defer pool.Close()

	cases := repo.NewCaseRepository(pool)
	contributions := repo.NewContributionRepository(pool)
	approvals := repo.NewApprovalStatusRepository(pool)
	reconciler := approval.NewReconciler(cases, contributions, approvals, logger)

	runOnce := func() {
		runCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
		corrected, err := reconciler.Resync(runCtx)
		if err != nil {
			logger.Error().Err(err).Msg("reconcile: resync failed")
			return
		}
		logger.Info().Int64("cases_corrected", corrected).Msg("reconcile: resync complete")
	}

	runOnce()
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("reconcile: stopped")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
