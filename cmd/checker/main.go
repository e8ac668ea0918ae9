package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/federation-tools/membership-checker/internal/adapters/csvimport"
	memmembershiprepo "github.com/federation-tools/membership-checker/internal/adapters/memory/membershiprepo"
	"github.com/federation-tools/membership-checker/internal/app/memberships"
	platformclock "github.com/federation-tools/membership-checker/internal/platform/clock"
	"github.com/federation-tools/membership-checker/internal/platform/logging"
)

// app holds the global flags and, once the membership export is loaded, what every
// subcommand needs.
type app struct {
	logEnv          string
	membershipsFile string

	logger *zap.Logger
	svc    *memberships.Service
}

func main() {
	if err := newRootCmd(&app{}).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "checker",
		Short:         "Check participants against a federation membership export",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.logEnv, "log-env", "development", "Log format (development, production)")
	rootCmd.PersistentFlags().StringVarP(&a.membershipsFile, "memberships", "m", "", "Federation membership export (CSV), required by check and lookup")

	rootCmd.AddCommand(checkCmd(a))
	rootCmd.AddCommand(lookupCmd(a))
	return rootCmd
}

// preRun loads the export for the subcommands that query it; help and completion run
// without one.
func (a *app) preRun(cmd *cobra.Command, args []string) error {
	if a.membershipsFile == "" {
		return errors.New(`required flag "memberships" not set`)
	}
	return a.init(cmd.Context())
}

// init loads the membership export into an in-memory service.
func (a *app) init(ctx context.Context) error {
	var err error
	a.logger, err = logging.New(a.logEnv)
	if err != nil {
		return err
	}

	f, err := os.Open(a.membershipsFile)
	if err != nil {
		return fmt.Errorf("failed to open memberships file: %w", err)
	}
	defer f.Close()

	ms, err := csvimport.ParseMemberships(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", a.membershipsFile, err)
	}

	a.svc = memberships.NewService(memmembershiprepo.NewRepo(), platformclock.NewSystemClock(), a.logger, nil)
	if _, err := a.svc.ImportMemberships(ctx, ms); err != nil {
		return fmt.Errorf("failed to load memberships: %w", err)
	}
	return nil
}
