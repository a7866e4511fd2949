// Command churn-pipeline runs the churn pipeline and reviews the packages it registers
//
//	churn-pipeline run     [-definition pipeline.yaml] [-workdir dir]
//	churn-pipeline approve [-group g] [-version n] [-status Approved] [-note text]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"churnops/internal/adapters/tracking"
	"churnops/internal/modkit"
	"churnops/internal/modkit/repokit"
	"churnops/internal/platform/config"
	"churnops/internal/platform/logger"
	"churnops/internal/platform/metrics"
	"churnops/internal/platform/store"

	"churnops/internal/services/pipeline/domain"
	pipemodule "churnops/internal/services/pipeline/module"
	regdomain "churnops/internal/services/registry/domain"
	regmodule "churnops/internal/services/registry/module"
)

const usage = `usage: churn-pipeline <command> [flags]

commands:
  run       execute preprocess, train, evaluate and register
  approve   set the approval status of a registered model package
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("load .env")
	}
	root := config.New()
	l := logger.Named("churn-pipeline")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "run":
		err = run(ctx, root, args)
	case "approve":
		err = approve(ctx, root, args)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		stop()
		l.Fatal().Err(err).Msg(os.Args[1] + " failed")
	}
}

// openRegistry opens the store and the registry on it
// without CORE_PG or CORE_SQLITE the registry lives in a local sqlite file
func openRegistry(ctx context.Context, root config.Conf) (*store.Store, regmodule.Ports, error) {
	cfg := store.ConfigFromEnv("churn-pipeline")
	if !cfg.PG.Enabled && !cfg.Lite.Enabled {
		cfg.Lite.Enabled = true
	}
	st, err := store.Open(ctx, cfg, store.WithLogger(*logger.Get()))
	if err != nil {
		return nil, regmodule.Ports{}, err
	}
	if err := repokit.Ready(ctx, st); err != nil {
		_ = st.Close(ctx)
		return nil, regmodule.Ports{}, err
	}
	deps := modkit.Deps{Cfg: root, Metrics: metrics.NewBare()}.FromStore(st)
	reg, err := regmodule.New(ctx, deps, regmodule.FromConfig(root))
	if err != nil {
		_ = st.Close(ctx)
		return nil, regmodule.Ports{}, err
	}
	return st, reg.Ports().(regmodule.Ports), nil
}

func closeStore(st *store.Store) {
	if err := st.Close(context.Background()); err != nil {
		logger.Named("churn-pipeline").Error().Err(err).Msg("failed to close store")
	}
}

func run(ctx context.Context, root config.Conf, args []string) error {
	def := pipemodule.FromConfig(root)
	tc := tracking.ConfigFromEnv(root)

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	path := fs.String("definition", def.Definition, "pipeline YAML overlaid on the built in definition")
	workdir := fs.String("workdir", def.Workdir, "root of the step directories")
	uri := fs.String("mlflow_tracking_uri", tc.URI, "experiment tracking uri; empty disables mlflow")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := domain.Load(*path, *workdir)
	if err != nil {
		return err
	}

	tc.URI = *uri
	tr, err := tracking.Open(ctx, tc)
	if err != nil {
		return err
	}
	defer func() { _ = tr.Close() }()

	st, rp, err := openRegistry(ctx, root)
	if err != nil {
		return err
	}
	defer closeStore(st)

	m := pipemodule.New(modkit.Deps{Cfg: root}, d, modkit.WithPorts(pipemodule.Deps{
		Tracker:    tr,
		Registry:   rp.Registry,
		Executions: rp.Executions,
	}))
	res, err := m.Ports().(pipemodule.Ports).Runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Named("churn-pipeline").Info().
		Str("execution", res.Execution.ID).
		Str("group", res.Package.Group).
		Int("version", res.Package.Version).
		Str("status", string(res.Package.Status)).
		Float64("accuracy", res.Evaluate.Report.Accuracy).
		Msg("pipeline succeeded")
	return nil
}

func approve(ctx context.Context, root config.Conf, args []string) error {
	def := pipemodule.FromConfig(root)

	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	path := fs.String("definition", def.Definition, "pipeline YAML, read for the package group")
	group := fs.String("group", "", "model package group; defaults to the definition's")
	version := fs.Int("version", 0, "package version; 0 picks the newest pending package")
	status := fs.String("status", string(regdomain.StatusApproved), "Approved, Rejected or PendingManualApproval")
	note := fs.String("note", "", "approval description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := domain.Load(*path, def.Workdir)
	if err != nil {
		return err
	}
	st, err := regdomain.ParseApprovalStatus(*status)
	if err != nil {
		return err
	}
	s, rp, err := openRegistry(ctx, root)
	if err != nil {
		return err
	}
	defer closeStore(s)

	m := pipemodule.New(modkit.Deps{Cfg: root}, d, modkit.WithPorts(pipemodule.Deps{
		Tracker:    tracking.Noop{},
		Registry:   rp.Registry,
		Executions: rp.Executions,
	}))
	p, err := m.Ports().(pipemodule.Ports).Runner.Approve(ctx, domain.ApproveInput{
		Group:   *group,
		Version: *version,
		Status:  st,
		Note:    *note,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s v%d %s\n", p.Group, p.Version, p.Status)
	return nil
}
