package topology

import "fmt"

// Fabric describes the interconnect layout: M parallel interconnects, each a
// direct path to the shared bus, plus the interconnect every task's
// accelerator is attached to. Tasks sharing an interconnect contend on it
// directly; tasks on different interconnects only meet at the bus.
type Fabric struct {
	numInters int
	taskHome  []int
}

func (f *Fabric) NumInterconnects() int {
	return f.numInters
}

func (f *Fabric) NumTasks() int {
	return len(f.taskHome)
}

// Home returns the interconnect the task's accelerator is attached to.
func (f *Fabric) Home(task int) int {
	return f.taskHome[task]
}

// TasksAt returns the tasks directly attached to the interconnect.
func (f *Fabric) TasksAt(inter int) []int {
	var tasks []int
	for task, home := range f.taskHome {
		if home == inter {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// Peers returns the tasks sharing the given task's interconnect, excluding
// the task itself.
func (f *Fabric) Peers(task int) []int {
	var peers []int
	for other, home := range f.taskHome {
		if other != task && home == f.taskHome[task] {
			peers = append(peers, other)
		}
	}
	return peers
}

// Remote returns the tasks attached to any other interconnect, meeting the
// given task only at the shared bus.
func (f *Fabric) Remote(task int) []int {
	var remote []int
	for other, home := range f.taskHome {
		if home != f.taskHome[task] {
			remote = append(remote, other)
		}
	}
	return remote
}

// Validate checks structural consistency: at least one interconnect, no
// interconnect without tasks, and every task mapped to a live interconnect.
func (f *Fabric) Validate() error {
	if f.numInters < 1 {
		return fmt.Errorf("fabric has no interconnects")
	}
	if f.numInters > len(f.taskHome) {
		return fmt.Errorf("more interconnects (%d) than tasks (%d)", f.numInters, len(f.taskHome))
	}

	populated := make([]bool, f.numInters)
	for task, home := range f.taskHome {
		if home < 0 || home >= f.numInters {
			return fmt.Errorf("task %d mapped to unknown interconnect %d", task, home)
		}
		populated[home] = true
	}
	for inter, ok := range populated {
		if !ok {
			return fmt.Errorf("interconnect %d has no attached tasks", inter)
		}
	}

	return nil
}

// BuildEven spreads numTasks tasks evenly over numInters parallel
// interconnects: tasks are assigned in index order, ceil(numTasks/numInters)
// per interconnect. Callers order tasks by ascending slack first so the
// tightest tasks share an interconnect.
//
// When topDown is true the assignment starts from the highest-numbered
// interconnect instead.
func BuildEven(numTasks, numInters int, topDown bool) (*Fabric, error) {
	if numInters < 1 {
		return nil, fmt.Errorf("interconnect count must be positive, got %d", numInters)
	}
	if numTasks < numInters {
		return nil, fmt.Errorf("need at least one task per interconnect: %d tasks, %d interconnects", numTasks, numInters)
	}

	f := &Fabric{
		numInters: numInters,
		taskHome:  make([]int, numTasks),
	}

	order := make([]int, numInters)
	for i := range order {
		if topDown {
			order[i] = numInters - 1 - i
		} else {
			order[i] = i
		}
	}

	perInter := (numTasks + numInters - 1) / numInters
	assigned := 0
	inter := 0
	for task := 0; task < numTasks; task++ {
		f.taskHome[task] = order[inter]
		assigned++
		if assigned == perInter {
			inter++
			assigned = 0
		}
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return f, nil
}
