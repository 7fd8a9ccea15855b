package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/tecolab/internal/config"
	"github.com/san-kum/tecolab/internal/viz"
)

// version is set at link time.
var version = "dev"

var (
	configFile string
	logLevel   string
	logFile    string
	logDir     string
	period     int64
	simulate   bool
	live       bool
	portName   string
	plant      string
	speed      float64
	probe      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tecolab <experiment> <controller>",
		Short:         "thermal control laboratory",
		Version:       version,
		Args:          cobra.ExactArgs(2),
		RunE:          runExperiment,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write the diagnostic log to this file")
	rootCmd.PersistentFlags().StringVar(&logDir, "logs", config.DefaultLogDir, "directory holding run logs")
	runFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run <experiment> <controller>",
		Short: "run an experiment",
		Args:  cobra.ExactArgs(2),
		RunE:  runExperiment,
	}
	runFlags(runCmd)

	validateCmd := &cobra.Command{
		Use:   "validate <experiment>",
		Short: "check an experiment file and print its table",
		Args:  cobra.ExactArgs(1),
		RunE:  validateExperiment,
	}
	validateCmd.Flags().Int64VarP(&period, "period", "t", config.DefaultPeriod, "control period in milliseconds")

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "list serial ports",
		Args:  cobra.NoArgs,
		RunE:  listPorts,
	}
	portsCmd.Flags().BoolVar(&probe, "probe", false, "identify the board among the ports")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot <run>",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	controllersCmd := &cobra.Command{
		Use:   "controllers",
		Short: "list built-in controllers",
		Args:  cobra.NoArgs,
		RunE:  listControllers,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list simulated plant presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, validateCmd, portsCmd, listCmd, plotCmd, controllersCmd, presetsCmd,
		tuneCommand(), batchCommand(), exportCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusFault.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func runFlags(cmd *cobra.Command) {
	cmd.Flags().Int64VarP(&period, "period", "t", config.DefaultPeriod, "control period in milliseconds")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "run against the simulated board")
	cmd.Flags().BoolVar(&live, "live", false, "show the live monitor")
	cmd.Flags().StringVar(&portName, "port", "", "serial port of the board, skips discovery of other ports")
	cmd.Flags().StringVar(&plant, "plant", config.DefaultPlant, "simulated plant preset")
	cmd.Flags().Float64Var(&speed, "speed", 1, "time scale of the simulated board")
}

// loadConfig reads the config file, if any, and applies the flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	if changed("period") {
		cfg.Period = period
	}
	if changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if changed("log-file") {
		cfg.Log.File = logFile
	}
	if changed("logs") {
		cfg.Log.Dir = logDir
	}
	if changed("simulate") {
		cfg.Simulate.Enabled = simulate
	}
	if changed("live") {
		cfg.Monitor = live
	}
	if changed("port") {
		cfg.Serial.Port = portName
	}
	if changed("plant") {
		cfg.Simulate.Plant = plant
	}
	if changed("speed") {
		cfg.Simulate.Speed = speed
	}
	cfg.Normalize()
	return cfg, nil
}

// setupLogging configures the standard logrus logger. The live monitor owns
// the terminal, so its diagnostics go to a file even when none is set.
func setupLogging(cfg *config.Config) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	file := cfg.Log.File
	if file == "" && cfg.Monitor {
		file = filepath.Join(cfg.Log.Dir, "tecolab.log")
	}
	if file == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}
	out := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	logrus.SetOutput(out)
	return out, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
