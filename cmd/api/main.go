package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ataa/internal/adapter/repo"
	"ataa/internal/approval"
	"ataa/internal/http/handlers"
	"ataa/internal/http/httpapi"
	"ataa/internal/infra"
	"ataa/internal/infra/geoip"
	"ataa/internal/middleware"
	"ataa/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip unavailable, locale detection degrades to headers")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
		if closer, ok := resolver.(*geoip.Resolver); ok {
			defer closer.Close()
		}
	}

	cases := repo.NewCaseRepository(dbpool)
	contributions := repo.NewContributionRepository(dbpool)
	approvals := repo.NewApprovalStatusRepository(dbpool)
	notifications := repo.NewNotificationRepository(dbpool)
	admins := repo.NewAdminRoleRepository(dbpool)

	reconciler := approval.NewReconciler(cases, contributions, approvals, logger)
	dispatcher := notify.NewDispatcher(notifications, admins, logger)

	app := handlers.NewApp(logger, cases, contributions, reconciler, dispatcher)
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          logger,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   countryLookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.AllowedOrigins,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
