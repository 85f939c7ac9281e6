package taskgen

import (
	"math"
	"math/rand"
	"testing"

	"contention-bench/internal/model"
)

func TestGenerateWorkloadShape(t *testing.T) {
	platform := model.DefaultPlatform()
	cfg := DefaultConfig(platform)
	rng := rand.New(rand.NewSource(100))

	tasks, err := Generate(cfg, 16, platform, rng)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(tasks) != 16 {
		t.Fatalf("generated %d tasks, want 16", len(tasks))
	}

	var util float64
	for i, task := range tasks {
		if task.ID != i {
			t.Errorf("task %d has ID %d", i, task.ID)
		}
		if task.Deadline != task.Period {
			t.Errorf("task %d: deadline %d != period %d", i, task.Deadline, task.Period)
		}
		if float64(task.Period) < cfg.PeriodMin || float64(task.Period) > cfg.PeriodMax+cfg.PeriodGran {
			t.Errorf("task %d: period %d outside [%v, %v]", i, task.Period, cfg.PeriodMin, cfg.PeriodMax)
		}
		if task.CPUTime < 0 || task.CPUTime > task.Period {
			t.Errorf("task %d: execution time %d outside [0, %d]", i, task.CPUTime, task.Period)
		}
		if i > 0 && tasks[i-1].Slack() > task.Slack() {
			t.Errorf("tasks not ordered by ascending slack at index %d", i)
		}

		transMax := int64(math.Floor(float64(task.CPUTime) / float64(platform.TransactionTime)))
		if task.Transactions() > transMax {
			t.Errorf("task %d: %d transactions exceed window capacity %d", i, task.Transactions(), transMax)
		}
		if task.ReadTrans < 0 || task.WriteTrans < 0 {
			t.Errorf("task %d: negative transaction split", i)
		}

		util += task.Utilization()
	}

	// CPU times are rounded to whole cycles, so allow one cycle of drift per
	// task against the target utilization.
	if math.Abs(util-cfg.Utilization) > 1e-3 {
		t.Errorf("total utilization = %v, want about %v", util, cfg.Utilization)
	}
}

func TestGenerateFixedReadShare(t *testing.T) {
	platform := model.DefaultPlatform()
	cfg := DefaultConfig(platform)
	ratio := 1.0
	cfg.RWRatio = &ratio

	tasks, err := Generate(cfg, 8, platform, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for i, task := range tasks {
		if task.WriteTrans != 0 {
			t.Errorf("task %d: %d writes with read share 1.0", i, task.WriteTrans)
		}
	}
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	platform := model.DefaultPlatform()
	rng := rand.New(rand.NewSource(1))

	cfg := DefaultConfig(platform)
	cfg.Density = 1.5
	if _, err := Generate(cfg, 4, platform, rng); err == nil {
		t.Errorf("expected error for density above 1")
	}

	cfg = DefaultConfig(platform)
	cfg.PeriodMax = cfg.PeriodMin - 1
	if _, err := Generate(cfg, 4, platform, rng); err == nil {
		t.Errorf("expected error for inverted period range")
	}

	cfg = DefaultConfig(platform)
	cfg.PeriodDistr = "gauss"
	if _, err := Generate(cfg, 4, platform, rng); err == nil {
		t.Errorf("expected error for unknown period distribution")
	}

	cfg = DefaultConfig(platform)
	if _, err := Generate(cfg, 0, platform, rng); err == nil {
		t.Errorf("expected error for zero tasks")
	}
}

func TestGenerateTaskSetDeterministic(t *testing.T) {
	platform := model.DefaultPlatform()
	cfg := DefaultConfig(platform)

	a, err := GenerateTaskSet(cfg, 8, 2, platform, 1234)
	if err != nil {
		t.Fatalf("GenerateTaskSet failed: %v", err)
	}
	b, err := GenerateTaskSet(cfg, 8, 2, platform, 1234)
	if err != nil {
		t.Fatalf("GenerateTaskSet failed: %v", err)
	}

	for i := range a.Tasks {
		if a.Tasks[i] != b.Tasks[i] {
			t.Errorf("task %d differs between seeded runs: %+v vs %+v", i, a.Tasks[i], b.Tasks[i])
		}
	}

	c, err := GenerateTaskSet(cfg, 8, 2, platform, 1235)
	if err != nil {
		t.Fatalf("GenerateTaskSet failed: %v", err)
	}
	same := true
	for i := range a.Tasks {
		if a.Tasks[i] != c.Tasks[i] {
			same = false
			break
		}
	}
	if same {
		t.Errorf("different seeds produced identical task sets")
	}
}

func TestGenerateTaskSetInterconnectIndependence(t *testing.T) {
	platform := model.DefaultPlatform()
	cfg := DefaultConfig(platform)

	one, err := GenerateTaskSet(cfg, 8, 1, platform, 77)
	if err != nil {
		t.Fatalf("GenerateTaskSet failed: %v", err)
	}
	four, err := GenerateTaskSet(cfg, 8, 4, platform, 77)
	if err != nil {
		t.Fatalf("GenerateTaskSet failed: %v", err)
	}

	for i := range one.Tasks {
		if one.Tasks[i] != four.Tasks[i] {
			t.Errorf("task %d differs across interconnect counts: %+v vs %+v", i, one.Tasks[i], four.Tasks[i])
		}
	}
	if one.Topology.NumInterconnects() != 1 || four.Topology.NumInterconnects() != 4 {
		t.Errorf("topologies not sized as requested")
	}
}
