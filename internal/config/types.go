package config

import (
	"contention-bench/internal/model"
)

type ExperimentConfig struct {
	Experiment     ExperimentInfo  `yaml:"experiment"`
	Configurations []Configuration `yaml:"configurations"`
}

type ExperimentInfo struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	LogLevel    string `yaml:"log_level"`

	Seed    int64 `yaml:"seed"`
	Trials  int   `yaml:"trials"`
	Workers int   `yaml:"workers"`

	Load       LoadSweep        `yaml:"load"`
	Contention ContentionConfig `yaml:"contention"`
	Platform   PlatformConfig   `yaml:"platform"`
	Generation GenerationConfig `yaml:"generation"`
	Output     OutputConfig     `yaml:"output"`
}

// LoadSweep describes the bus-load samples: Points evenly spaced values over
// [Min, Max] within [0,1].
type LoadSweep struct {
	Points int     `yaml:"points"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

type ContentionConfig struct {
	Implementation string  `yaml:"implementation"`
	Steal          float64 `yaml:"steal"`
}

type PlatformConfig struct {
	PSReadDelay     int64   `yaml:"ps_read_delay"`
	PSWriteDelay    int64   `yaml:"ps_write_delay"`
	TransactionTime int64   `yaml:"transaction_time"`
	ClockMHz        float64 `yaml:"clock_mhz"`
}

type GenerationConfig struct {
	Utilization        float64 `yaml:"utilization"`
	PeriodMinMs        float64 `yaml:"period_min_ms"`
	PeriodMaxMs        float64 `yaml:"period_max_ms"`
	PeriodDistribution string  `yaml:"period_distribution"`
	Density            float64 `yaml:"density"`
	Phi                int     `yaml:"phi"`
	BurstSize          int64   `yaml:"burst_size"`
}

type OutputConfig struct {
	Directory  string          `yaml:"directory"`
	CSV        bool            `yaml:"csv"`
	Record     bool            `yaml:"record"`
	RecordPath string          `yaml:"record_path"`
	DB         *DatabaseConfig `yaml:"db,omitempty"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Org      string `yaml:"org"`
}

// Configuration is one (task count, interconnect count) experiment point.
type Configuration struct {
	Tasks         int `yaml:"tasks"`
	Interconnects int `yaml:"interconnects"`
}

// ModelPlatform translates the platform section into analysis units.
func (e ExperimentInfo) ModelPlatform() model.Platform {
	p := model.DefaultPlatform()
	if e.Platform.PSReadDelay > 0 {
		p.PSReadDelay = e.Platform.PSReadDelay
	}
	if e.Platform.PSWriteDelay > 0 {
		p.PSWriteDelay = e.Platform.PSWriteDelay
	}
	if e.Platform.TransactionTime > 0 {
		p.TransactionTime = e.Platform.TransactionTime
	}
	if e.Platform.ClockMHz > 0 {
		p.ClockHz = e.Platform.ClockMHz * 1e6
	}
	return p
}

// LoadSamples expands the sweep into concrete bus-load values.
func (s LoadSweep) LoadSamples() []float64 {
	samples := make([]float64, s.Points)
	if s.Points == 1 {
		samples[0] = s.Min
		return samples
	}
	step := (s.Max - s.Min) / float64(s.Points-1)
	for i := range samples {
		samples[i] = s.Min + float64(i)*step
	}
	return samples
}
