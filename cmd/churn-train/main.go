// Command churn-train fits the churn booster on train.csv and writes model.xgb
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"churnops/internal/adapters/tracking"
	"churnops/internal/modkit"
	"churnops/internal/platform/config"
	"churnops/internal/platform/logger"

	trdomain "churnops/internal/services/train/domain"
	trmodule "churnops/internal/services/train/module"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("load .env")
	}
	root := config.New()
	def := trmodule.FromConfig(root)
	tc := tracking.ConfigFromEnv(root)

	var (
		train     = flag.String("train", def.TrainPath, "directory holding train.csv")
		modelDir  = flag.String("model_dir", def.ModelDir, "output directory for model.xgb")
		uri       = flag.String("mlflow_tracking_uri", tc.URI, "experiment tracking uri; empty disables mlflow")
		backend   = flag.String("tracking", tc.Backend, "tracker backend: auto, mlflow, sqlite or noop")
		maxDepth  = flag.Int("max_depth", def.Params.MaxDepth, "maximum tree depth")
		eta       = flag.Float64("eta", def.Params.Eta, "learning rate")
		gamma     = flag.Float64("gamma", def.Params.Gamma, "minimum split loss")
		subsample = flag.Float64("subsample", def.Params.Subsample, "row sample ratio per round")
		rounds    = flag.Int("num_round", def.Params.Rounds, "boosting rounds")
	)
	flag.Parse()

	l := logger.Named("churn-train")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tc.URI, tc.Backend = *uri, *backend
	tr, err := tracking.Open(ctx, tc)
	if err != nil {
		l.Fatal().Err(err).Msg("open tracker")
	}
	defer func() {
		if err := tr.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close tracker")
		}
	}()

	opts := def
	opts.TrainPath, opts.ModelDir = *train, *modelDir
	opts.Params.MaxDepth = *maxDepth
	opts.Params.Eta = *eta
	opts.Params.Gamma = *gamma
	opts.Params.Subsample = *subsample
	opts.Params.Rounds = *rounds

	m := trmodule.New(modkit.Deps{Cfg: root, Log: *l}, opts, modkit.WithPorts(trdomain.Ports{Tracker: tr}))
	res, err := m.Ports().(trmodule.Ports).Runner.Run(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("training failed")
	}
	l.Info().
		Int("rows", res.Rows).
		Int("columns", res.Columns).
		Float64("train_accuracy", res.TrainAccuracy).
		Str("run_id", res.RunID).
		Str("model", res.ModelPath).
		Msg("training done")
}
