package cmd

import (
	"fmt"
	"time"

	"contention-bench/internal/config"
	"contention-bench/internal/database"
	"contention-bench/internal/experiment"
	"contention-bench/internal/logging"
	"contention-bench/internal/recording"

	"github.com/sirupsen/logrus"
)

func runExperiment(configFile string) error {
	logger := logging.GetLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.WithField("config_file", configFile).WithError(err).Error("Failed to load configuration")
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Experiment.LogLevel != "" {
		if err := logging.SetLogLevel(cfg.Experiment.LogLevel); err != nil {
			logger.WithField("log_level", cfg.Experiment.LogLevel).WithError(err).Warn("Invalid log level in config, using INFO")
			logging.SetLogLevel("info")
		}
	}

	var recorder *recording.Recorder
	if cfg.Experiment.Output.Record {
		recorder, err = recording.NewSQLite(cfg.Experiment.Output.RecordPath)
		if err != nil {
			logger.WithError(err).Error("Failed to open trial recorder")
			return fmt.Errorf("failed to open trial recorder: %w", err)
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close trial recorder")
			}
		}()
	}

	runner, err := experiment.NewRunner(cfg, recorder)
	if err != nil {
		logger.WithError(err).Error("Failed to prepare experiment")
		return err
	}

	logger.WithFields(logrus.Fields{
		"name":           cfg.Experiment.Name,
		"configurations": len(cfg.Configurations),
		"trials":         cfg.Experiment.Trials,
		"load_points":    cfg.Experiment.Load.Points,
		"seed":           cfg.Experiment.Seed,
	}).Info("Starting experiment")

	start := time.Now()
	curves, err := runner.Run()
	if err != nil {
		logger.WithError(err).Error("Experiment failed")
		return fmt.Errorf("experiment failed: %w", err)
	}
	end := time.Now()

	if cfg.Experiment.Output.CSV {
		if err := experiment.WriteCurves(cfg.Experiment.Output.Directory, curves); err != nil {
			logger.WithError(err).Error("Failed to write curves")
			return fmt.Errorf("failed to write curves: %w", err)
		}
		logger.WithField("directory", cfg.Experiment.Output.Directory).Info("Curves written")
	}

	if cfg.Experiment.Output.DB != nil {
		if err := exportToDatabase(cfg, curves, start, end); err != nil {
			return err
		}
	}

	logger.WithField("duration", end.Sub(start)).Info("Experiment completed")
	return nil
}

func exportToDatabase(cfg *config.ExperimentConfig, curves []experiment.Curve, start, end time.Time) error {
	logger := logging.GetLogger()

	dbClient, err := database.NewInfluxDBClient(*cfg.Experiment.Output.DB)
	if err != nil {
		logger.WithError(err).Error("Failed to create database client")
		return fmt.Errorf("failed to create database client: %w", err)
	}
	defer dbClient.Close()

	lastID, err := dbClient.GetLastExperimentID()
	if err != nil {
		logger.WithError(err).Error("Failed to get last experiment ID")
		return fmt.Errorf("failed to get last experiment ID: %w", err)
	}
	experimentID := lastID + 1

	if err := dbClient.WriteRatioCurves(experimentID, cfg, curves, start, end); err != nil {
		logger.WithError(err).Error("Failed to export curves")
		return fmt.Errorf("failed to export curves: %w", err)
	}

	meta := database.CollectMetadata(experimentID, cfg, start, end, Version)
	if err := dbClient.WriteMetadata(meta); err != nil {
		logger.WithError(err).Error("Failed to export metadata")
		return fmt.Errorf("failed to export metadata: %w", err)
	}

	logger.WithField("experiment_id", experimentID).Info("Results exported to database")
	return nil
}
