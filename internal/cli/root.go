// Package cli implements rolecfgctl, the operator command line for
// deploy group role resource configs.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iac-studio/rolecfg/internal/services"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

const (
	FlagOutput   = "output"
	FlagLogLevel = "log-level"
)

// Deps are the services the commands run against.
type Deps struct {
	Configs          services.DeployGroupRoleService
	Seeder           services.Seeder
	Renderer         services.VerificationRenderer
	Auth             services.AuthService
	Example          services.ExampleLoader
	SeedFailureLines int
}

// Opener connects the commands to their services. The returned func releases
// what was opened.
type Opener func(ctx context.Context) (*Deps, func(), error)

type rootOptions struct {
	open     Opener
	output   outputFormat
	logLevel string
}

func (o *rootOptions) deps(cmd *cobra.Command) (*Deps, func(), error) {
	return o.open(cmd.Context())
}

func New(open Opener) *cobra.Command {
	opts := &rootOptions{open: open, output: outputTable}

	cmd := &cobra.Command{
		Use:           "rolecfgctl",
		Short:         "Manage deploy group role resource configs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := logger.InitWriter(opts.logLevel, "console", cmd.ErrOrStderr())
			return err
		},
		DisableAutoGenTag: true,
	}

	cmd.PersistentFlags().VarP(&opts.output, FlagOutput, "o", "output format: "+outputFormats())
	cmd.PersistentFlags().StringVar(&opts.logLevel, FlagLogLevel, "warn", "log level written to stderr")

	cmd.AddCommand(
		newExampleCmd(opts),
		newSeedCmd(opts),
		newListCmd(opts),
		newRenderCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}
