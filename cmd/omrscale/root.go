package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"omr-scale/internal/config"
	"omr-scale/internal/logger"
	"omr-scale/internal/version"
)

type rootOptions struct {
	cfgFile      string
	logLevel     string
	logFile      string
	outputFormat string

	cfg     *config.Config
	logSink *os.File
}

// newRootCmd builds the command tree. The caller closes opts once the
// command has run, whatever its outcome.
func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "omrscale",
		Short: "Sheet scale detection for optical music recognition",
		Long: `omrscale measures the scale of binarized music sheets from the
histograms of their vertical black and white runs:

  - staff line thickness
  - interline (distance between staff lines), with a small staff population
  - beam thickness, measured or extrapolated

Sheets with no staff, a too low resolution or an implausible interline are rejected.`,
		Version:      version.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(
		&opts.cfgFile, "config", "", "config file (default: ./omrscale.yaml or ~/.omrscale/omrscale.yaml)",
	)
	cmd.PersistentFlags().StringVar(
		&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)",
	)
	cmd.PersistentFlags().StringVar(
		&opts.logFile, "log-file", "", "append logs to this file instead of stderr",
	)
	cmd.PersistentFlags().StringVarP(
		&opts.outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	cmd.AddCommand(
		newScaleCmd(opts),
		newBookCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// setup loads the configuration and installs the default logger.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	if o.outputFormat != "yaml" && o.outputFormat != "json" {
		return fmt.Errorf("unknown output format %q", o.outputFormat)
	}

	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	o.cfg = cfg

	if o.logFile != "" {
		sink, err := logger.InitFile(o.logFile, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		o.logSink = sink
		return nil
	}
	return logger.Init(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
}

// close releases the log file opened by setup.
func (o *rootOptions) close() error {
	if o.logSink == nil {
		return nil
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	err := o.logSink.Close()
	o.logSink = nil
	return err
}
