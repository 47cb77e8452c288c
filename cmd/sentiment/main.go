// Command sentiment prepares comment corpora, trains the sentiment model and
// serves batch predictions over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/sentiment/internal/logging"
)

// app carries state shared by every subcommand.
type app struct {
	out       io.Writer
	logger    *zap.Logger
	logLevel  string
	logFormat string
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "sentiment",
		Short:         "YouTube comment sentiment pipeline",
		Long:          `Prepare labeled comment corpora, train and select a sentiment classifier, and serve batch predictions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.logLevel, a.logFormat)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "console", "log format (json, console)")

	rootCmd.AddCommand(
		a.prepareCommand(),
		a.splitCommand(),
		a.exploreCommand(),
		a.trainCommand(),
		a.serveCommand(),
		a.versionCommand(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
