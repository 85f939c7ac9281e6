package model

// Task is one periodic hardware task: a CPU-side portion of worst-case
// execution time CPUTime that issues ReadTrans+WriteTrans accelerator
// transactions per job. Periods, deadlines and execution times are in bus
// clock cycles.
type Task struct {
	ID       int
	Period   int64
	Deadline int64
	CPUTime  int64

	// Accelerator transaction profile.
	Phi        int
	BurstSize  int64
	ReadTrans  int64
	WriteTrans int64

	Accelerator int
}

func (t Task) Transactions() int64 {
	return t.ReadTrans + t.WriteTrans
}

func (t Task) Slack() int64 {
	return t.Period - t.CPUTime
}

func (t Task) Utilization() float64 {
	if t.Period == 0 {
		return 0
	}
	return float64(t.CPUTime) / float64(t.Period)
}

// HigherPriority reports whether a has strictly higher priority than b under
// rate-monotonic ordering. IDs break period ties so the order is total.
func HigherPriority(a, b Task) bool {
	if a.Period != b.Period {
		return a.Period < b.Period
	}
	return a.ID < b.ID
}
