package analysis

import (
	"math"
	"testing"

	"contention-bench/internal/model"
	"contention-bench/internal/topology"
)

// twoTaskSet builds a hand-checked pair on a single interconnect: a light
// high-priority task and a heavy low-priority one whose verdict flips as the
// bus load grows.
func twoTaskSet(t *testing.T) *model.TaskSet {
	t.Helper()

	tasks := []model.Task{
		{
			ID: 0, Period: 10000, Deadline: 10000, CPUTime: 2000,
			Phi: 6, BurstSize: 16, ReadTrans: 5, WriteTrans: 5,
		},
		{
			ID: 1, Period: 20000, Deadline: 20000, CPUTime: 14000,
			Phi: 6, BurstSize: 16, ReadTrans: 5, WriteTrans: 5,
		},
	}

	fabric, err := topology.BuildEven(2, 1, false)
	if err != nil {
		t.Fatalf("failed to build topology: %v", err)
	}

	set, err := model.NewTaskSet(tasks, []model.Interconnect{model.DefaultInterconnect(0)}, fabric, model.DefaultPlatform())
	if err != nil {
		t.Fatalf("failed to build task set: %v", err)
	}
	return set
}

func singleTaskSet(t *testing.T) *model.TaskSet {
	t.Helper()

	tasks := []model.Task{
		{ID: 0, Period: 10, Deadline: 10, CPUTime: 2, Phi: 6, BurstSize: 16},
	}
	fabric, err := topology.BuildEven(1, 1, false)
	if err != nil {
		t.Fatalf("failed to build topology: %v", err)
	}
	set, err := model.NewTaskSet(tasks, []model.Interconnect{model.DefaultInterconnect(0)}, fabric, model.DefaultPlatform())
	if err != nil {
		t.Fatalf("failed to build task set: %v", err)
	}
	return set
}

func TestAnalyzeHandChecked(t *testing.T) {
	an, err := New(twoTaskSet(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := an.Analyze(0)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !res.Schedulable {
		t.Fatalf("expected schedulable at load 0, failed task %d", res.FailedTask)
	}

	// Per-transaction idle delays on the lone interconnect are 62 cycles for
	// reads and 72 for writes, so 5+5 transactions cost 670 cycles. Task 0
	// pays its own 670 plus 670 of interference; task 1 additionally absorbs
	// two 2000-cycle preemptions.
	if got, want := res.ResponseTimes[0], 2000.0+1340.0; got != want {
		t.Errorf("task 0 response time = %v, want %v", got, want)
	}
	if got, want := res.ResponseTimes[1], 14000.0+1340.0+4000.0; got != want {
		t.Errorf("task 1 response time = %v, want %v", got, want)
	}
}

func TestAnalyzeVerdictFlipsOnce(t *testing.T) {
	an, err := New(twoTaskSet(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// The heavy task's recurrence settles at 18000 + 1340*(1+load), so the
	// deadline of 20000 is crossed just below load 0.5.
	ok, err := an.IsSchedulable(0.49)
	if err != nil {
		t.Fatalf("IsSchedulable failed: %v", err)
	}
	if !ok {
		t.Errorf("expected schedulable at load 0.49")
	}

	res, err := an.Analyze(0.5)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.Schedulable {
		t.Errorf("expected unschedulable at load 0.5")
	}
	if res.FailedTask != 1 {
		t.Errorf("failed task = %d, want 1", res.FailedTask)
	}

	flipped := false
	for i := 0; i <= 100; i++ {
		load := float64(i) / 100
		ok, err := an.IsSchedulable(load)
		if err != nil {
			t.Fatalf("IsSchedulable(%v) failed: %v", load, err)
		}
		if !ok {
			flipped = true
		}
		if flipped && ok {
			t.Fatalf("verdict recovered at load %v after a miss at lower load", load)
		}
	}
	if !flipped {
		t.Errorf("verdict never flipped across the sweep")
	}
}

func TestAnalyzeMonotoneInLoad(t *testing.T) {
	an, err := New(twoTaskSet(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	prev := -1.0
	for load := 0.0; load <= 0.45; load += 0.05 {
		res, err := an.Analyze(load)
		if err != nil {
			t.Fatalf("Analyze(%v) failed: %v", load, err)
		}
		if !res.Schedulable {
			t.Fatalf("expected schedulable at load %v", load)
		}
		if res.ResponseTimes[1] < prev {
			t.Errorf("response time decreased from %v to %v at load %v", prev, res.ResponseTimes[1], load)
		}
		prev = res.ResponseTimes[1]
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	an, err := New(twoTaskSet(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a, err := an.Analyze(0.3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	b, err := an.Analyze(0.3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	for i := range a.ResponseTimes {
		if a.ResponseTimes[i] != b.ResponseTimes[i] {
			t.Errorf("task %d: response times differ between runs: %v vs %v", i, a.ResponseTimes[i], b.ResponseTimes[i])
		}
	}
}

func TestAnalyzeNoTransactionsImmuneToLoad(t *testing.T) {
	an, err := New(singleTaskSet(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, load := range []float64{0, 0.5, 1} {
		res, err := an.Analyze(load)
		if err != nil {
			t.Fatalf("Analyze(%v) failed: %v", load, err)
		}
		if !res.Schedulable {
			t.Fatalf("task without transactions must stay schedulable at load %v", load)
		}
		if res.ResponseTimes[0] != 2 {
			t.Errorf("response time at load %v = %v, want 2", load, res.ResponseTimes[0])
		}
	}
}

func TestAnalyzeRejectsBadLoad(t *testing.T) {
	an, err := New(singleTaskSet(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, load := range []float64{-0.1, 1.1, math.NaN()} {
		if _, err := an.Analyze(load); err == nil {
			t.Errorf("expected error for bus load %v", load)
		}
	}
}

func TestNewRejectsInvalidSets(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Errorf("expected error for nil task set")
	}

	set := twoTaskSet(t)
	set.Tasks[0].Period = 0
	if _, err := New(set, nil); err == nil {
		t.Errorf("expected error for zero period")
	}
}

func TestAnalyzeInterfererMonotone(t *testing.T) {
	heavy := model.Task{
		ID: 0, Period: 20000, Deadline: 20000, CPUTime: 14000,
		Phi: 6, BurstSize: 16, ReadTrans: 5, WriteTrans: 5,
	}

	fabric, err := topology.BuildEven(1, 1, false)
	if err != nil {
		t.Fatalf("failed to build topology: %v", err)
	}
	alone, err := model.NewTaskSet([]model.Task{heavy},
		[]model.Interconnect{model.DefaultInterconnect(0)}, fabric, model.DefaultPlatform())
	if err != nil {
		t.Fatalf("failed to build task set: %v", err)
	}

	anAlone, err := New(alone, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	anShared, err := New(twoTaskSet(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, load := range []float64{0, 0.2, 0.4} {
		resAlone, err := anAlone.Analyze(load)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		resShared, err := anShared.Analyze(load)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if resShared.ResponseTimes[1] < resAlone.ResponseTimes[0] {
			t.Errorf("load %v: adding an interferer reduced the response time from %v to %v",
				load, resAlone.ResponseTimes[0], resShared.ResponseTimes[1])
		}
	}
}

func TestContentionDelayZeroWithoutInterferers(t *testing.T) {
	an, err := New(singleTaskSet(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if d := an.ContentionDelay(0, 1000, 0.5); d != 0 {
		t.Errorf("lone task contention delay = %v, want 0", d)
	}
}
