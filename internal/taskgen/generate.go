package taskgen

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"contention-bench/internal/model"
	"contention-bench/internal/topology"
)

// Config is the random workload parameter surface. All times are in bus
// clock cycles; the experiment layer converts from milliseconds using the
// platform clock.
type Config struct {
	Utilization float64
	PeriodMin   float64
	PeriodMax   float64
	PeriodGran  float64
	PeriodDistr string // "logunif" or "unif"

	// Density scales each task's transaction count relative to the maximum
	// number of transactions its execution window could hold.
	Density float64

	// RWRatio fixes the read share of transactions; nil draws it uniformly
	// from [0.4, 0.6] per task.
	RWRatio *float64

	Phi       int
	BurstSize int64
}

func DefaultConfig(platform model.Platform) Config {
	return Config{
		Utilization: 1.0,
		PeriodMin:   platform.MillisToClocks(10),
		PeriodMax:   platform.MillisToClocks(100),
		PeriodGran:  1,
		PeriodDistr: "logunif",
		Density:     0.5,
		Phi:         model.DefaultTaskPhi,
		BurstSize:   model.DefaultBurstSize,
	}
}

func (c Config) validate() error {
	if c.Utilization <= 0 {
		return fmt.Errorf("utilization must be positive, got %v", c.Utilization)
	}
	if c.PeriodMin <= 0 || c.PeriodMax < c.PeriodMin {
		return fmt.Errorf("invalid period range [%v, %v]", c.PeriodMin, c.PeriodMax)
	}
	if c.PeriodGran <= 0 {
		return fmt.Errorf("period granularity must be positive, got %v", c.PeriodGran)
	}
	if c.Density < 0 || c.Density > 1 {
		return fmt.Errorf("transaction density must be in [0,1], got %v", c.Density)
	}
	switch c.PeriodDistr {
	case "", "logunif", "unif":
	default:
		return fmt.Errorf("unknown period distribution %q", c.PeriodDistr)
	}
	return nil
}

// Generate draws n tasks with utilizations from randfixedsum and periods
// from the configured distribution, then derives each task's transaction
// budget from its execution time. Tasks come back ordered by ascending slack
// with IDs matching their position, ready for topology placement.
func Generate(cfg Config, n int, platform model.Platform, rng *rand.Rand) ([]model.Task, error) {
	if n < 1 {
		return nil, fmt.Errorf("task count must be positive, got %d", n)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	utils, err := RandFixedSum(n, cfg.Utilization, rng)
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, n)
	for i := range tasks {
		period := drawPeriod(cfg, rng)
		cpuTime := math.Round(utils[i] * period)

		// Scale down the maximum number of transactions the execution window
		// can hold, assuming a fixed transaction service time.
		transMax := math.Floor(cpuTime / float64(platform.TransactionTime))
		transTot := int64(math.Floor(transMax * cfg.Density))

		rw := 0.4 + 0.2*rng.Float64()
		if cfg.RWRatio != nil {
			rw = *cfg.RWRatio
		}
		reads := int64(math.Round(float64(transTot) * rw))
		writes := transTot - reads

		tasks[i] = model.Task{
			Period:     int64(period),
			Deadline:   int64(period),
			CPUTime:    int64(cpuTime),
			Phi:        cfg.Phi,
			BurstSize:  cfg.BurstSize,
			ReadTrans:  reads,
			WriteTrans: writes,
		}
	}

	sort.SliceStable(tasks, func(a, b int) bool {
		return tasks[a].Slack() < tasks[b].Slack()
	})
	for i := range tasks {
		tasks[i].ID = i
		tasks[i].Accelerator = i
	}

	return tasks, nil
}

func drawPeriod(cfg Config, rng *rand.Rand) float64 {
	var p float64
	switch cfg.PeriodDistr {
	case "unif":
		p = cfg.PeriodMin + rng.Float64()*(cfg.PeriodMax+cfg.PeriodGran-cfg.PeriodMin)
	default: // logunif
		lo := math.Log(cfg.PeriodMin)
		hi := math.Log(cfg.PeriodMax + cfg.PeriodGran)
		p = math.Exp(lo + rng.Float64()*(hi-lo))
	}
	return math.Floor(p/cfg.PeriodGran) * cfg.PeriodGran
}

// GenerateTaskSet builds one complete analysis instance: tasks from the
// workload config spread evenly over parallel interconnects. The same seed
// always yields the same task set, and the tasks do not depend on the
// interconnect count.
func GenerateTaskSet(cfg Config, numTasks, numInters int, platform model.Platform, seed int64) (*model.TaskSet, error) {
	rng := rand.New(rand.NewSource(seed))

	tasks, err := Generate(cfg, numTasks, platform, rng)
	if err != nil {
		return nil, err
	}

	fabric, err := topology.BuildEven(numTasks, numInters, false)
	if err != nil {
		return nil, err
	}

	inters := make([]model.Interconnect, numInters)
	for i := range inters {
		inters[i] = model.DefaultInterconnect(i)
	}

	return model.NewTaskSet(tasks, inters, fabric, platform)
}
