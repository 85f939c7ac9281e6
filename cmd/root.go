package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"contention-bench/internal/config"
	"contention-bench/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const Version = "1.0.0"

func Execute() error {
	logger := logging.GetLogger()

	loadEnvironment()

	var configFile string
	var logLevel string
	var solverLogLevel string

	rootCmd := &cobra.Command{
		Use:   "contention-bench",
		Short: "Bus-contention schedulability analysis tool",
		Long:  "Analyzes schedulability of accelerator workloads on shared AXI interconnects under worst-case bus contention",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				if err := logging.SetLogLevel(logLevel); err != nil {
					return fmt.Errorf("invalid log level: %w", err)
				}
			}
			if solverLogLevel != "" {
				if err := logging.SetSolverLogLevel(solverLogLevel); err != nil {
					return fmt.Errorf("invalid solver log level: %w", err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&solverLogLevel, "solver-log-level", "", "Set log level for per-trial solver diagnostics")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a sweep experiment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(configFile)
		},
	}
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to experiment configuration file")
	runCmd.MarkFlagRequired("config")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an experiment configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(configFile)
		},
	}
	validateCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to experiment configuration file")
	validateCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newPlotCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("Command execution failed")
		return err
	}
	return nil
}

// loadEnvironment pulls InfluxDB credentials and friends from a .env file
// next to the working directory or the binary.
func loadEnvironment() {
	logger := logging.GetLogger()

	envFile := ".env"
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
		} else {
			logger.WithField("file", envFile).Debug("Loaded environment variables")
		}
		return
	}

	if execPath, err := os.Executable(); err == nil {
		envFile = filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
			} else {
				logger.WithField("file", envFile).Debug("Loaded environment variables")
			}
		}
	}
}

func validateConfig(configFile string) error {
	logger := logging.GetLogger()

	_, err := config.LoadConfig(configFile)
	if err != nil {
		logger.WithField("config_file", configFile).WithError(err).Error("Configuration validation failed")
		return err
	}
	logger.WithField("config_file", configFile).Info("Configuration is valid")
	return nil
}
