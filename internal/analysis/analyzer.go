package analysis

import (
	"fmt"
	"math"
	"sort"

	"contention-bench/internal/model"
)

// Analyzer decides schedulability of one task set under worst-case bus
// contention. It is a pure function of the task set, the contention policy
// and the bus load: the same inputs always produce the same verdict.
type Analyzer struct {
	set    *model.TaskSet
	policy ContentionPolicy

	// Task indices ordered highest priority first.
	prio []int
}

// Result carries the verdict for one task set at one bus-load sample.
// Response times are kept per task for diagnostics; entries for tasks after
// the first deadline miss hold the estimate at which the iteration stopped.
type Result struct {
	BusLoad       float64
	ResponseTimes []float64
	Schedulable   bool
	FailedTask    int
}

// New validates the task set and prepares an analyzer. A nil policy selects
// the additive background-traffic model.
func New(set *model.TaskSet, policy ContentionPolicy) (*Analyzer, error) {
	if set == nil {
		return nil, fmt.Errorf("task set is nil")
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task set: %w", err)
	}
	if policy == nil {
		policy = AdditivePolicy{}
	}

	prio := make([]int, len(set.Tasks))
	for i := range prio {
		prio[i] = i
	}
	sort.Slice(prio, func(a, b int) bool {
		return model.HigherPriority(set.Tasks[prio[a]], set.Tasks[prio[b]])
	})

	return &Analyzer{set: set, policy: policy, prio: prio}, nil
}

// Analyze computes every task's worst-case response time at the given bus
// load. An unschedulable task set is a normal outcome, not an error; only a
// bus load outside [0,1] is rejected.
func (a *Analyzer) Analyze(busLoad float64) (*Result, error) {
	if busLoad < 0 || busLoad > 1 || math.IsNaN(busLoad) {
		return nil, fmt.Errorf("bus load must be in [0,1], got %v", busLoad)
	}

	res := &Result{
		BusLoad:       busLoad,
		ResponseTimes: make([]float64, len(a.set.Tasks)),
		Schedulable:   true,
		FailedTask:    -1,
	}

	// Highest priority first: interference sets only grow downwards, and a
	// miss high up already decides the verdict.
	for _, task := range a.prio {
		r, ok := a.responseTime(task, busLoad)
		res.ResponseTimes[task] = r
		if !ok {
			res.Schedulable = false
			res.FailedTask = task
			break
		}
	}

	return res, nil
}

// IsSchedulable is the boolean projection of Analyze.
func (a *Analyzer) IsSchedulable(busLoad float64) (bool, error) {
	res, err := a.Analyze(busLoad)
	if err != nil {
		return false, err
	}
	return res.Schedulable, nil
}

// responseTime runs the fixed-point iteration for one task. The estimate is
// strictly increasing between iterations and the deadline is the hard
// stopping bound, so the loop terminates for every valid task set.
func (a *Analyzer) responseTime(task int, busLoad float64) (float64, bool) {
	t := a.set.Tasks[task]
	deadline := float64(t.Deadline)
	own := a.isolatedAccessDelay(task, busLoad)

	r := float64(t.CPUTime) + own
	if r > deadline {
		return r, false
	}

	for iter, limit := 0, a.iterationCap(task); iter < limit; iter++ {
		next := float64(t.CPUTime) + own +
			a.ContentionDelay(task, r, busLoad) +
			a.cpuInterference(task, r)

		if next <= r {
			return r, true
		}
		if next > deadline {
			return next, false
		}
		r = next
	}

	// The cap only trips on pathological float plateaus; declaring the task
	// unschedulable keeps the bound sound.
	return r, false
}

// iterationCap bounds the fixed-point loop: the interference terms are step
// functions of the estimate, so the number of strictly increasing steps is at
// most the number of ceiling breakpoints below the deadline.
func (a *Analyzer) iterationCap(task int) int {
	t := a.set.Tasks[task]
	cap := 16
	for i, other := range a.set.Tasks {
		if i == task {
			continue
		}
		cap += int(t.Deadline/other.Period) + 2
	}
	return cap
}

// isolatedAccessDelay is the cost of the task's own transactions with no
// interfering tasks: every access still crosses the interconnect to the
// processing system and suffers the background-traffic penalty.
func (a *Analyzer) isolatedAccessDelay(task int, busLoad float64) float64 {
	t := a.set.Tasks[task]
	home := a.set.Topology.Home(task)

	return float64(t.ReadTrans)*a.accessDelay(a.noContentionRead(home, t), busLoad) +
		float64(t.WriteTrans)*a.accessDelay(a.noContentionWrite(home, t), busLoad)
}

// cpuInterference is the classic ceiling term: every higher-priority task
// preempts the CPU-side portion once per release within the window.
func (a *Analyzer) cpuInterference(task int, window float64) float64 {
	t := a.set.Tasks[task]
	var interference float64
	for i, other := range a.set.Tasks {
		if i == task || !model.HigherPriority(other, t) {
			continue
		}
		jobs := math.Ceil(window / float64(other.Period))
		interference += jobs * float64(other.CPUTime)
	}
	return interference
}

// ContentionDelay bounds the extra latency the task's transactions suffer
// from other tasks' traffic within the window. Interference is charged in two
// stages: first from the tasks sharing the task's interconnect, then at the
// shared bus from the remaining interconnects. At each stage the interfering
// transaction count is capped both by the arbitration slots the stage can
// grant (phi) and by the releases interferers fit into the window (eta).
//
// The nested phi caps compose to the lone-interconnect cap: splitting tasks
// over more interconnects can only shrink the bound, so ratio curves for
// larger interconnect counts dominate pointwise.
func (a *Analyzer) ContentionDelay(task int, window, busLoad float64) float64 {
	t := a.set.Tasks[task]
	topo := a.set.Topology
	home := topo.Home(task)
	homePhi := a.set.Interconnects[home].Phi

	dRead := a.accessDelay(a.noContentionRead(home, t), busLoad)
	dWrite := a.accessDelay(a.noContentionWrite(home, t), busLoad)

	nRead := t.ReadTrans
	nWrite := t.WriteTrans
	var delay float64

	// Stage 1: arbitration on the task's own interconnect.
	var phiAcc int64
	for _, peer := range topo.Peers(task) {
		phiAcc += int64(min(a.set.Tasks[peer].Phi, homePhi))
	}
	etaRead, etaWrite := a.windowTransactions(topo.Peers(task), window)

	yRead := min(nRead*phiAcc, etaRead)
	yWrite := min(nWrite*phiAcc, etaWrite)
	delay += float64(yRead)*dRead + float64(yWrite)*dWrite
	nRead += yRead
	nWrite += yWrite

	// Stage 2: arbitration at the shared bus, one slot set per competing
	// interconnect.
	phiAcc = 0
	for i, inter := range a.set.Interconnects {
		if i != home {
			phiAcc += int64(inter.Phi)
		}
	}
	etaRead, etaWrite = a.windowTransactions(topo.Remote(task), window)

	yRead = min(nRead*phiAcc, etaRead)
	yWrite = min(nWrite*phiAcc, etaWrite)
	delay += float64(yRead)*dRead + float64(yWrite)*dWrite

	return delay
}

// windowTransactions sums the read and write transactions the given tasks
// can issue within the window, carry-in job included.
func (a *Analyzer) windowTransactions(tasks []int, window float64) (reads, writes int64) {
	for _, i := range tasks {
		t := a.set.Tasks[i]
		jobs := int64(math.Ceil(window/float64(t.Period))) + 1
		reads += jobs * t.ReadTrans
		writes += jobs * t.WriteTrans
	}
	return reads, writes
}

// accessDelay applies the background-traffic policy to one transaction's
// no-contention service delay.
func (a *Analyzer) accessDelay(base int64, busLoad float64) float64 {
	return float64(base)*a.policy.ServiceScale(busLoad) +
		a.policy.TransactionPenalty(busLoad, base)
}

// noContentionRead is the service delay of one read transaction issued
// through the given interconnect with an idle fabric: address issue across
// the interconnect, PS read service, then the data beats coming back.
func (a *Analyzer) noContentionRead(inter int, t model.Task) int64 {
	ic := a.set.Interconnects[inter]

	return ic.AddrHold + ic.AddrIssueDelay +
		a.set.Platform.PSReadDelay +
		ic.DataIssueDelay +
		t.BurstSize
}

// noContentionWrite mirrors noContentionRead for writes: the data beats are
// held on the bus and a write response crosses back.
func (a *Analyzer) noContentionWrite(inter int, t model.Task) int64 {
	ic := a.set.Interconnects[inter]

	return ic.AddrHold + ic.AddrIssueDelay +
		t.BurstSize*ic.DataHold +
		a.set.Platform.PSWriteDelay +
		ic.DataIssueDelay + ic.BRespDelay
}
