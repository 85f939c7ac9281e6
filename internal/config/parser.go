package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"contention-bench/internal/logging"

	"gopkg.in/yaml.v3"
)

func LoadConfig(filepath string) (*ExperimentConfig, error) {
	logger := logging.GetLogger()

	data, err := os.ReadFile(filepath)
	if err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to read config file")
		return nil, err
	}

	expanded := expandEnvVars(string(data))

	var config ExperimentConfig
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to parse config file")
		return nil, err
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		envVar := strings.Trim(match, "${}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})
}

func applyDefaults(config *ExperimentConfig) {
	exp := &config.Experiment

	if exp.Trials == 0 {
		exp.Trials = 1000
	}
	if exp.Load.Points == 0 {
		exp.Load.Points = 100
		exp.Load.Max = 1.0
	}
	if exp.Contention.Implementation == "" {
		exp.Contention.Implementation = "additive"
	}
	if exp.Generation.Utilization == 0 {
		exp.Generation.Utilization = 1.0
	}
	if exp.Generation.PeriodMinMs == 0 {
		exp.Generation.PeriodMinMs = 10
	}
	if exp.Generation.PeriodMaxMs == 0 {
		exp.Generation.PeriodMaxMs = 100
	}
	if exp.Generation.PeriodDistribution == "" {
		exp.Generation.PeriodDistribution = "logunif"
	}
	if exp.Generation.Density == 0 {
		exp.Generation.Density = 0.5
	}
	if exp.Generation.Phi == 0 {
		exp.Generation.Phi = 6
	}
	if exp.Generation.BurstSize == 0 {
		exp.Generation.BurstSize = 16
	}
	if exp.Output.Directory == "" {
		exp.Output.Directory = "data"
	}
	// Every run needs at least one sink.
	if exp.Output.DB == nil && !exp.Output.Record {
		exp.Output.CSV = true
	}
}

func validateConfig(config *ExperimentConfig) error {
	exp := config.Experiment

	if exp.Name == "" {
		return fmt.Errorf("experiment name is required")
	}
	if exp.Trials <= 0 {
		return fmt.Errorf("trials must be greater than 0")
	}
	if exp.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	if exp.Load.Points <= 0 {
		return fmt.Errorf("load sweep needs at least one point")
	}
	if exp.Load.Min < 0 || exp.Load.Max > 1 || exp.Load.Min > exp.Load.Max {
		return fmt.Errorf("load sweep [%v, %v] must lie within [0,1]", exp.Load.Min, exp.Load.Max)
	}

	switch exp.Contention.Implementation {
	case "additive", "bandwidth":
	default:
		return fmt.Errorf("unknown contention implementation %q", exp.Contention.Implementation)
	}

	if exp.Generation.Utilization <= 0 {
		return fmt.Errorf("generation utilization must be greater than 0")
	}
	if exp.Generation.PeriodMinMs <= 0 || exp.Generation.PeriodMaxMs < exp.Generation.PeriodMinMs {
		return fmt.Errorf("invalid generation period range [%v, %v] ms",
			exp.Generation.PeriodMinMs, exp.Generation.PeriodMaxMs)
	}
	if exp.Generation.Density < 0 || exp.Generation.Density > 1 {
		return fmt.Errorf("generation density must be in [0,1], got %v", exp.Generation.Density)
	}

	if len(config.Configurations) == 0 {
		return fmt.Errorf("at least one configuration must be defined")
	}
	seen := make(map[Configuration]bool)
	for i, c := range config.Configurations {
		if c.Tasks <= 0 {
			return fmt.Errorf("configuration %d: tasks must be greater than 0", i)
		}
		if c.Interconnects <= 0 {
			return fmt.Errorf("configuration %d: interconnects must be greater than 0", i)
		}
		if c.Interconnects > c.Tasks {
			return fmt.Errorf("configuration %d: interconnects (%d) exceed tasks (%d)",
				i, c.Interconnects, c.Tasks)
		}
		if seen[c] {
			return fmt.Errorf("configuration %d: duplicate of tasks=%d interconnects=%d",
				i, c.Tasks, c.Interconnects)
		}
		seen[c] = true
	}

	if db := exp.Output.DB; db != nil {
		if db.Host == "" || db.Name == "" || db.Org == "" || db.Password == "" {
			return fmt.Errorf("incomplete database configuration")
		}
	}

	return nil
}
