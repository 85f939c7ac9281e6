package model

import (
	"fmt"

	"contention-bench/internal/topology"
)

// TaskSet is one generated analysis instance: the tasks, the interconnect
// fabric they are mapped onto, and the platform timing parameters. A task set
// is built once per trial and never mutated afterwards.
type TaskSet struct {
	Tasks         []Task
	Accelerators  []Accelerator
	Interconnects []Interconnect
	Topology      *topology.Fabric
	Platform      Platform
}

// NewTaskSet assembles and validates a task set. The accelerator list is
// derived from the topology: one accelerator per task, attached to the task's
// home interconnect.
func NewTaskSet(tasks []Task, inters []Interconnect, fabric *topology.Fabric, platform Platform) (*TaskSet, error) {
	ts := &TaskSet{
		Tasks:         tasks,
		Interconnects: inters,
		Topology:      fabric,
		Platform:      platform,
	}

	if err := ts.Validate(); err != nil {
		return nil, err
	}

	ts.Accelerators = make([]Accelerator, len(tasks))
	for i := range tasks {
		ts.Accelerators[i] = Accelerator{
			ID:           i,
			Interconnect: fabric.Home(i),
			Task:         i,
		}
	}

	return ts, nil
}

// Validate fails fast on malformed task sets before any analysis runs.
func (ts *TaskSet) Validate() error {
	if len(ts.Tasks) == 0 {
		return fmt.Errorf("task set is empty")
	}
	if ts.Topology == nil {
		return fmt.Errorf("task set has no topology")
	}
	if ts.Topology.NumTasks() != len(ts.Tasks) {
		return fmt.Errorf("topology covers %d tasks, task set has %d", ts.Topology.NumTasks(), len(ts.Tasks))
	}
	if len(ts.Interconnects) != ts.Topology.NumInterconnects() {
		return fmt.Errorf("topology has %d interconnects, task set defines %d",
			ts.Topology.NumInterconnects(), len(ts.Interconnects))
	}
	if len(ts.Interconnects) > len(ts.Tasks) {
		return fmt.Errorf("more interconnects (%d) than tasks (%d)", len(ts.Interconnects), len(ts.Tasks))
	}

	for i, task := range ts.Tasks {
		if task.Period <= 0 {
			return fmt.Errorf("task %d: period must be positive, got %d", i, task.Period)
		}
		if task.Deadline <= 0 {
			return fmt.Errorf("task %d: deadline must be positive, got %d", i, task.Deadline)
		}
		if task.CPUTime < 0 {
			return fmt.Errorf("task %d: negative execution time %d", i, task.CPUTime)
		}
		if task.ReadTrans < 0 || task.WriteTrans < 0 {
			return fmt.Errorf("task %d: negative transaction count", i)
		}
		if task.BurstSize < 0 {
			return fmt.Errorf("task %d: negative burst size %d", i, task.BurstSize)
		}
		if task.Phi < 0 {
			return fmt.Errorf("task %d: negative phi %d", i, task.Phi)
		}
	}

	if ts.Platform.TransactionTime <= 0 {
		return fmt.Errorf("platform transaction time must be positive, got %d", ts.Platform.TransactionTime)
	}
	if ts.Platform.PSReadDelay < 0 || ts.Platform.PSWriteDelay < 0 {
		return fmt.Errorf("platform PS delays must be non-negative")
	}

	return ts.Topology.Validate()
}

// HomeInterconnect returns the interconnect the task's accelerator is
// attached to.
func (ts *TaskSet) HomeInterconnect(task int) Interconnect {
	return ts.Interconnects[ts.Topology.Home(task)]
}

// TotalUtilization sums the CPU utilization of all tasks.
func (ts *TaskSet) TotalUtilization() float64 {
	var u float64
	for _, t := range ts.Tasks {
		u += t.Utilization()
	}
	return u
}
