// Command churn-preprocess cleans the raw churn CSV, encodes it and writes the train and test splits
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"churnops/internal/modkit"
	"churnops/internal/platform/config"
	"churnops/internal/platform/logger"

	ppmodule "churnops/internal/services/preprocess/module"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("load .env")
	}
	root := config.New()
	def := ppmodule.FromConfig(root)

	var (
		input    = flag.String("input-path", def.InputPath, "directory holding raw/churn_data.csv")
		train    = flag.String("train-path", def.TrainPath, "output directory for train.csv")
		test     = flag.String("test-path", def.TestPath, "output directory for test.csv")
		testSize = flag.Float64("test-size", def.TestSize, "held out fraction, in (0,1)")
		seed     = flag.Int64("seed", def.Seed, "split seed")
	)
	flag.Parse()

	l := logger.Named("churn-preprocess")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := ppmodule.New(modkit.Deps{Cfg: root, Log: *l}, ppmodule.Options{
		InputPath: *input,
		TrainPath: *train,
		TestPath:  *test,
		TestSize:  *testSize,
		Seed:      *seed,
	})
	res, err := m.Ports().(ppmodule.Ports).Runner.Run(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("preprocess failed")
	}
	l.Info().
		Int("train_rows", res.TrainRows).
		Int("test_rows", res.TestRows).
		Int("columns", len(res.Columns)).
		Str("train", res.TrainPath).
		Str("test", res.TestPath).
		Msg("preprocess done")
}
