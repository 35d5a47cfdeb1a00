package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alexanderjulianmartinez/dq-watch/internal/config"
	"github.com/alexanderjulianmartinez/dq-watch/internal/expect"
	"github.com/alexanderjulianmartinez/dq-watch/internal/logger"
	"github.com/alexanderjulianmartinez/dq-watch/internal/runner"
	"github.com/alexanderjulianmartinez/dq-watch/internal/sink"
	"github.com/alexanderjulianmartinez/dq-watch/internal/suite"
)

const Version = "0.1.0"

// ExitError carries a non-zero process exit code without an error message
// of its own.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Deps are the collaborators the root command needs. Tests replace them.
type Deps struct {
	Lookup    config.LookupFunc
	OpenStore func(ctx context.Context, cfg *config.Config) (sink.Store, error)
	Sources   func(cfg *config.Config) []runner.Source
	Out       io.Writer
}

func DefaultDeps() Deps {
	return Deps{
		Lookup:    os.LookupEnv,
		OpenStore: OpenStore,
		Sources:   func(cfg *config.Config) []runner.Source { return suite.DefaultSources(cfg.Sources) },
		Out:       os.Stdout,
	}
}

// NewRootCommand builds the dqwatch command. It takes no flags: running it
// executes every registered source.
func NewRootCommand(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dqwatch",
		Short: "Run data-quality checks against operational databases",
		Long: `dqwatch runs a fixed set of data-quality checks against PostgreSQL,
MySQL and MongoDB, stores every result in the analytics store, and exits
non-zero when any source failed or errored, so it can gate a deployment.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd.Context(), deps)
		},
	}
	return cmd
}

func runSuite(ctx context.Context, deps Deps) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(config.ResolvePath(deps.Lookup), deps.Lookup)
	if err != nil {
		return err
	}
	log := logger.NewConsoleLogger(deps.Out, cfg.LogLevel)

	if cfg.LockFile != "" {
		lock, err := acquireRunLock(cfg.LockFile)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	store, err := deps.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Type, err)
	}
	defer store.Close()
	log.LogInfof("✅ %s connected", store.Name())

	dumper, err := sink.NewDumper(store, cfg.Run, log)
	if err != nil {
		return err
	}

	entries := suite.Entries(deps.Sources(cfg), expect.NewEvaluator(), dumper, log)
	summary := suite.NewOrchestrator(log).RunAll(ctx, entries)
	if code := summary.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// LoadDotEnv loads .env into the process environment when present.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
