// @title         Churn API
// @version       0.1.0
// @description   Churn prediction, model registry and service health

package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"churnops/internal/platform/config"
	"churnops/internal/platform/logger"
	"churnops/internal/platform/metrics"
	phttp "churnops/internal/platform/net/http"
	"churnops/internal/platform/store"

	"churnops/internal/services/api"
	predictmod "churnops/internal/services/api/predict/module"
	registrymod "churnops/internal/services/registry/module"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("load .env")
	}
	root := config.New()
	apiCfg := root.Prefix("CHURN_API_")

	opts := logger.FromEnv()
	if opts.Service == "" {
		opts.Service = api.ServiceName
	}
	logger.Init(opts)
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// every backend is optional; the API serves predictions with none of them
	st, err := store.Open(ctx, store.ConfigFromEnv(api.ServiceName), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CHURN_API_PORT, CHURN_API_OTEL, CHURN_API_SHUTDOWN_GRACE)
	srv := phttp.NewServer(apiCfg)

	predict, err := api.Mount(ctx, srv.Router(), api.Options{
		Config:         apiCfg,
		Store:          st,
		Logger:         l,
		Metrics:        metrics.New(),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		Predict:        predictmod.FromConfig(root),
		Registry:       registrymod.FromConfig(root),
	})
	if err != nil {
		l.Fatal().Err(err).Msg("mount api")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		predict.Run(ctx)
	}()

	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}
	stop()
	wg.Wait()
}
