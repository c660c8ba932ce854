package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/alm-console/pkg/orchestrator"
	"github.com/de-tools/alm-console/pkg/runtime/terminal/commands"
	"github.com/de-tools/alm-console/pkg/runtime/terminal/export"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	profilesPath string
	delays       orchestrator.Delays
	logger       zerolog.Logger
	reporter     *export.Reporter
	rootCmd      *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	ProfilesPath string
	Output       io.Writer
	Logger       *zerolog.Logger
	// Delays before the assistant check; nil uses the orchestrator defaults.
	Delays *orchestrator.Delays
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		profilesPath: opts.ProfilesPath,
		delays:       orchestrator.DefaultDelays(),
		logger:       zerolog.Nop(),
		reporter:     export.NewReporter(opts.Output),
	}
	if opts.Delays != nil {
		cli.delays = *opts.Delays
	}
	if opts.Logger != nil {
		cli.logger = *opts.Logger
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.ExecuteContext(cli.logger.WithContext(context.Background()))
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "alm",
		Short:         "LCR analysis console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(commands.NewAnalyzeCmd(cli.profilesPath, cli.delays, cli.reporter))
	cmd.AddCommand(commands.NewChartsCmd(cli.reporter))
	cmd.AddCommand(commands.NewProfilesCmd(cli.profilesPath))

	return cmd
}
