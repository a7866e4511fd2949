// Command churn-datasetup writes the expanded sample customers to <input>/raw/churn_data.csv
package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"

	"churnops/internal/adapters/dataset"
	"churnops/internal/core/schema"
	"churnops/internal/platform/config"
	"churnops/internal/platform/fsx"
	"churnops/internal/platform/logger"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("load .env")
	}
	ds := config.New().Prefix("CHURN_DATASETUP_")

	var (
		input  = flag.String("input-path", ds.MayString("INPUT_PATH", "/opt/ml/processing/input"), "directory to write raw/churn_data.csv under")
		copies = flag.Int("copies", ds.MayInt("COPIES", dataset.SampleSize), "copies of each seed customer")
		seed   = flag.Int64("seed", ds.MayInt64("SEED", 42), "jitter seed")
		force  = flag.Bool("force", false, "overwrite an existing raw file")
	)
	flag.Parse()

	l := logger.Named("churn-datasetup")
	if *copies < 1 {
		l.Fatal().Int("copies", *copies).Msg("copies must be >= 1")
	}

	path := filepath.Join(*input, dataset.RawFile)
	if !*force {
		if _, err := os.Stat(path); err == nil {
			l.Info().Str("path", path).Msg("raw data present, nothing to do")
			return
		}
	}

	rows := dataset.Sample(*copies, *seed)
	err := fsx.WriteFileAtomic(path, func(w io.Writer) error {
		return dataset.WriteRaw(w, schema.Header(), rows)
	})
	if err != nil {
		l.Fatal().Err(err).Str("path", path).Msg("write sample data")
	}
	l.Info().Int("rows", len(rows)).Str("path", path).Msg("sample data written")
}
