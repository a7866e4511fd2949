// Command churn-evaluate scores a trained model on the held out split and writes evaluation.json
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

	"churnops/internal/services/evaluate/domain"
	evmodule "churnops/internal/services/evaluate/module"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("load .env")
	}
	root := config.New()
	def := evmodule.FromConfig(root)

	var (
		test   = flag.String("test", def.TestPath, "directory holding test.csv")
		model  = flag.String("model-path", def.ModelPath, "model.xgb, model.tar.gz, or a directory holding one")
		output = flag.String("output-path", def.OutputPath, "output directory for evaluation.json")
		mode   = flag.String("mode", string(def.Mode), "strict or best-effort")
	)
	flag.Parse()

	l := logger.Named("churn-evaluate")
	switch domain.Mode(*mode) {
	case domain.ModeStrict, domain.ModeBestEffort:
	default:
		l.Fatal().Str("mode", *mode).Msg("mode must be strict or best-effort")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := evmodule.New(modkit.Deps{Cfg: root, Log: *l}, evmodule.Options{
		TestPath:   *test,
		ModelPath:  *model,
		OutputPath: *output,
		Mode:       domain.Mode(*mode),
	})
	res, err := m.Ports().(evmodule.Ports).Runner.Run(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("evaluation failed")
	}
	l.Info().
		Float64("accuracy", res.Report.Accuracy).
		Float64("precision", res.Report.Precision).
		Float64("recall", res.Report.Recall).
		Float64("f1_score", res.Report.F1).
		Bool("placeholder", res.Placeholder).
		Str("report", res.ReportPath).
		Msg("evaluation done")
}
