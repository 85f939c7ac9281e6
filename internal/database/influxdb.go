package database

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"contention-bench/internal/config"
	"contention-bench/internal/experiment"
	"contention-bench/internal/logging"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"
)

// ExperimentMetadata describes one sweep run, exported alongside the curves
// so results remain attributable to the exact configuration and seed.
type ExperimentMetadata struct {
	ExperimentID        int    `json:"experiment_id"`
	ExperimentName      string `json:"experiment_name"`
	Description         string `json:"description"`
	DurationSeconds     int64  `json:"duration_seconds"`
	ExperimentStarted   string `json:"experiment_started"`
	ExperimentFinished  string `json:"experiment_finished"`
	TotalConfigurations int    `json:"total_configurations"`
	TrialsPerSample     int    `json:"trials_per_sample"`
	LoadPoints          int    `json:"load_points"`
	Seed                int64  `json:"seed"`
	ContentionPolicy    string `json:"contention_policy"`
	DriverVersion       string `json:"driver_version"`
	Hostname            string `json:"hostname"`
	OSInfo              string `json:"os_info"`
	CPUCores            int    `json:"cpu_cores"`
}

// CollectMetadata assembles run metadata from the configuration and host.
func CollectMetadata(experimentID int, cfg *config.ExperimentConfig, start, end time.Time, version string) *ExperimentMetadata {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &ExperimentMetadata{
		ExperimentID:        experimentID,
		ExperimentName:      cfg.Experiment.Name,
		Description:         cfg.Experiment.Description,
		DurationSeconds:     int64(end.Sub(start).Seconds()),
		ExperimentStarted:   start.Format(time.RFC3339),
		ExperimentFinished:  end.Format(time.RFC3339),
		TotalConfigurations: len(cfg.Configurations),
		TrialsPerSample:     cfg.Experiment.Trials,
		LoadPoints:          cfg.Experiment.Load.Points,
		Seed:                cfg.Experiment.Seed,
		ContentionPolicy:    cfg.Experiment.Contention.Implementation,
		DriverVersion:       version,
		Hostname:            hostname,
		OSInfo:              runtime.GOOS + "/" + runtime.GOARCH,
		CPUCores:            runtime.NumCPU(),
	}
}

type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
	org      string
}

func NewInfluxDBClient(cfg config.DatabaseConfig) (*InfluxDBClient, error) {
	logger := logging.GetLogger()

	client := influxdb2.NewClient(cfg.Host, cfg.Password)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		logger.WithField("host", cfg.Host).WithError(err).Error("Failed to connect to InfluxDB")
		return nil, err
	}
	if health.Status != "pass" {
		logger.WithFields(logrus.Fields{
			"host":    cfg.Host,
			"status":  health.Status,
			"message": health.Message,
		}).Error("InfluxDB health check failed")
		return nil, fmt.Errorf("influxdb health check failed: %s", health.Status)
	}

	writeAPI := client.WriteAPIBlocking(cfg.Org, cfg.Name)
	queryAPI := client.QueryAPI(cfg.Org)

	logger.WithFields(logrus.Fields{
		"host":   cfg.Host,
		"bucket": cfg.Name,
		"org":    cfg.Org,
	}).Info("Connected to InfluxDB")

	return &InfluxDBClient{
		client:   client,
		writeAPI: writeAPI,
		queryAPI: queryAPI,
		bucket:   cfg.Name,
		org:      cfg.Org,
	}, nil
}

func (idb *InfluxDBClient) Close() {
	idb.client.Close()
}

// GetLastExperimentID returns the highest experiment ID written so far, so
// callers can pick the next free one.
func (idb *InfluxDBClient) GetLastExperimentID() (int, error) {
	ctx := context.Background()

	query := fmt.Sprintf(`
		from(bucket: "%s")
		|> range(start: -90d)
		|> filter(fn: (r) => r._measurement == "schedulability_ratio")
		|> distinct(column: "experiment_id")
		|> map(fn: (r) => ({_value: int(v: r.experiment_id)}))
		|> max()
		|> yield(name: "max_experiment_id")
	`, idb.bucket)

	result, err := idb.queryAPI.Query(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to query last experiment ID: %w", err)
	}
	defer result.Close()

	maxID := 0
	for result.Next() {
		if result.Record().Value() != nil {
			if id, ok := result.Record().Value().(int64); ok {
				maxID = int(id)
			}
		}
	}
	if result.Err() != nil {
		return 0, fmt.Errorf("error reading query results: %w", result.Err())
	}

	return maxID, nil
}

// WriteRatioCurves exports every curve point as one measurement row tagged
// with the configuration it belongs to.
func (idb *InfluxDBClient) WriteRatioCurves(experimentID int, cfg *config.ExperimentConfig, curves []experiment.Curve, start, end time.Time) error {
	ctx := context.Background()

	var points []*write.Point
	for _, curve := range curves {
		for i, p := range curve.Points {
			point := influxdb2.NewPoint("schedulability_ratio",
				map[string]string{
					"experiment_id":   fmt.Sprintf("%d", experimentID),
					"experiment_name": cfg.Experiment.Name,
					"tasks":           fmt.Sprintf("%d", curve.Tasks),
					"interconnects":   fmt.Sprintf("%d", curve.Interconnects),
				},
				map[string]interface{}{
					"load_index": i,
					"bus_load":   p.Load,
					"ratio":      p.Ratio,
				},
				start)
			points = append(points, point)
		}
	}

	if len(points) > 0 {
		if err := idb.writeAPI.WritePoint(ctx, points...); err != nil {
			return fmt.Errorf("failed to write ratio points: %w", err)
		}
	}

	logging.GetLogger().WithFields(logrus.Fields{
		"experiment_id": experimentID,
		"points":        len(points),
	}).Info("Ratio curves exported")

	return nil
}

func (idb *InfluxDBClient) WriteMetadata(meta *ExperimentMetadata) error {
	ctx := context.Background()

	point := influxdb2.NewPoint("experiment_meta",
		map[string]string{
			"experiment_id": fmt.Sprintf("%d", meta.ExperimentID),
		},
		map[string]interface{}{
			"experiment_name":      meta.ExperimentName,
			"description":          meta.Description,
			"duration_seconds":     meta.DurationSeconds,
			"experiment_started":   meta.ExperimentStarted,
			"experiment_finished":  meta.ExperimentFinished,
			"total_configurations": meta.TotalConfigurations,
			"trials_per_sample":    meta.TrialsPerSample,
			"load_points":          meta.LoadPoints,
			"seed":                 meta.Seed,
			"contention_policy":    meta.ContentionPolicy,
			"driver_version":       meta.DriverVersion,
			"hostname":             meta.Hostname,
			"os_info":              meta.OSInfo,
			"cpu_cores":            meta.CPUCores,
		},
		time.Now())

	if err := idb.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}
