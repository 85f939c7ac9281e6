package experiment

import (
	"fmt"
	"runtime"
	"sync"

	"contention-bench/internal/analysis"
	"contention-bench/internal/config"
	"contention-bench/internal/logging"
	"contention-bench/internal/model"
	"contention-bench/internal/recording"
	"contention-bench/internal/taskgen"

	"github.com/sirupsen/logrus"
)

// RatioPoint is one sample of a schedulability curve.
type RatioPoint struct {
	Load  float64
	Ratio float64
}

// Curve is the schedulability ratio over the bus-load sweep for one
// (task count, interconnect count) configuration.
type Curve struct {
	Tasks         int
	Interconnects int
	Points        []RatioPoint
}

// Runner sweeps every active configuration: per configuration it runs the
// configured number of independent trials through a fixed-size worker pool
// and reduces the boolean verdicts into one ratio per load sample.
type Runner struct {
	cfg      *config.ExperimentConfig
	recorder *recording.Recorder
	policy   analysis.ContentionPolicy
	platform model.Platform
	genCfg   taskgen.Config
	workers  int
}

// NewRunner validates the contention policy selection and prepares a runner.
// The recorder may be nil.
func NewRunner(cfg *config.ExperimentConfig, recorder *recording.Recorder) (*Runner, error) {
	policy, err := analysis.NewPolicy(cfg.Experiment.Contention.Implementation, cfg.Experiment.Contention.Steal)
	if err != nil {
		return nil, err
	}

	workers := cfg.Experiment.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	platform := cfg.Experiment.ModelPlatform()

	return &Runner{
		cfg:      cfg,
		recorder: recorder,
		policy:   policy,
		platform: platform,
		genCfg:   generationConfig(cfg.Experiment, platform),
		workers:  workers,
	}, nil
}

func generationConfig(exp config.ExperimentInfo, platform model.Platform) taskgen.Config {
	gen := taskgen.DefaultConfig(platform)
	gen.Utilization = exp.Generation.Utilization
	gen.PeriodMin = platform.MillisToClocks(exp.Generation.PeriodMinMs)
	gen.PeriodMax = platform.MillisToClocks(exp.Generation.PeriodMaxMs)
	gen.PeriodDistr = exp.Generation.PeriodDistribution
	gen.Density = exp.Generation.Density
	gen.Phi = exp.Generation.Phi
	gen.BurstSize = exp.Generation.BurstSize
	return gen
}

// Run executes all configured sweeps sequentially; each sweep saturates the
// worker pool on its own trials.
func (r *Runner) Run() ([]Curve, error) {
	logger := logging.GetLogger()

	curves := make([]Curve, 0, len(r.cfg.Configurations))
	for _, c := range r.cfg.Configurations {
		logger.WithFields(logrus.Fields{
			"tasks":         c.Tasks,
			"interconnects": c.Interconnects,
		}).Info("Start")

		curve, err := r.RunConfiguration(c)
		if err != nil {
			return nil, fmt.Errorf("configuration tasks=%d interconnects=%d: %w",
				c.Tasks, c.Interconnects, err)
		}
		curves = append(curves, curve)

		logger.WithFields(logrus.Fields{
			"tasks":         c.Tasks,
			"interconnects": c.Interconnects,
		}).Info("Done")
	}

	logger.Info("All DONE")
	return curves, nil
}

// RunConfiguration runs the load sweep for one configuration. Each trial
// generates one task set and evaluates it at every load sample, so the same
// batch of task sets backs the whole curve and the curve is monotone by
// construction whenever the contention policy is.
func (r *Runner) RunConfiguration(c config.Configuration) (Curve, error) {
	samples := r.cfg.Experiment.Load.LoadSamples()
	trials := r.cfg.Experiment.Trials

	jobs := make(chan int)
	partials := make(chan []int64, r.workers)
	errs := make(chan error, r.workers)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counts := make([]int64, len(samples))
			for trial := range jobs {
				if err := r.runTrial(c, trial, samples, counts); err != nil {
					select {
					case errs <- err:
					default:
					}
					return
				}
			}
			partials <- counts
		}()
	}

	for trial := 0; trial < trials; trial++ {
		select {
		case err := <-errs:
			close(jobs)
			wg.Wait()
			return Curve{}, err
		case jobs <- trial:
		}
	}
	close(jobs)
	wg.Wait()
	close(partials)

	select {
	case err := <-errs:
		return Curve{}, err
	default:
	}

	counts := make([]int64, len(samples))
	for partial := range partials {
		for i, n := range partial {
			counts[i] += n
		}
	}

	curve := Curve{Tasks: c.Tasks, Interconnects: c.Interconnects}
	curve.Points = make([]RatioPoint, len(samples))
	for i, load := range samples {
		curve.Points[i] = RatioPoint{
			Load:  load,
			Ratio: float64(counts[i]) / float64(trials),
		}
	}

	return curve, nil
}

// runTrial evaluates one random task set at every load sample, bumping the
// worker-local counters for samples found schedulable.
func (r *Runner) runTrial(c config.Configuration, trial int, samples []float64, counts []int64) error {
	seed := TrialSeed(r.cfg.Experiment.Seed, c.Tasks, trial)

	set, err := taskgen.GenerateTaskSet(r.genCfg, c.Tasks, c.Interconnects, r.platform, seed)
	if err != nil {
		return fmt.Errorf("trial %d: %w", trial, err)
	}

	an, err := analysis.New(set, r.policy)
	if err != nil {
		return fmt.Errorf("trial %d: %w", trial, err)
	}

	for i, load := range samples {
		res, err := an.Analyze(load)
		if err != nil {
			return fmt.Errorf("trial %d: %w", trial, err)
		}
		if res.Schedulable {
			counts[i]++
		} else {
			logging.GetSolverLogger().WithFields(logrus.Fields{
				"trial":       trial,
				"seed":        seed,
				"bus_load":    load,
				"failed_task": res.FailedTask,
			}).Debug("Deadline miss")
		}

		if r.recorder != nil {
			rec := recording.TrialRecord{
				Tasks:         c.Tasks,
				Interconnects: c.Interconnects,
				LoadIndex:     i,
				BusLoad:       load,
				Trial:         trial,
				Seed:          seed,
				Schedulable:   res.Schedulable,
				FailedTask:    res.FailedTask,
				ResponseTimes: res.ResponseTimes,
			}
			if err := r.recorder.Record(rec); err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}
		}
	}

	return nil
}

// TrialSeed derives the per-trial generator seed. The interconnect count is
// deliberately left out of the mix so sweeps that differ only in M analyze
// identical task sets and their curves compare pointwise.
func TrialSeed(base int64, tasks, trial int) int64 {
	h := uint64(base)
	h ^= uint64(tasks) * 0x9E3779B97F4A7C15
	h ^= uint64(trial) * 0xBF58476D1CE4E5B9

	// splitmix64 finisher
	h ^= h >> 30
	h *= 0xBF58476D1CE4E5B9
	h ^= h >> 27
	h *= 0x94D049BB133111EB
	h ^= h >> 31

	return int64(h &^ (1 << 63))
}

// SchedulabilityRatio runs the sweep for a single ad-hoc configuration.
func SchedulabilityRatio(cfg *config.ExperimentConfig, tasks, interconnects int) (Curve, error) {
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		return Curve{}, err
	}
	return runner.RunConfiguration(config.Configuration{Tasks: tasks, Interconnects: interconnects})
}
