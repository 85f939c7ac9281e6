package model

// Timing defaults calibrated on a 100 MHz Zynq-style AXI fabric. All delays
// are expressed in bus clock cycles.
const (
	DefaultBurstSize = 16
	DefaultTaskPhi   = 6

	DefaultInterPhi       = 1
	DefaultAddrIssueDelay = 10
	DefaultDataIssueDelay = 10
	DefaultBRespDelay     = 10
	DefaultAddrHold       = 1
	DefaultDataHold       = 1
	DefaultBRespHold      = 1

	DefaultPSReadDelay     = 25
	DefaultPSWriteDelay    = 25
	DefaultTransactionTime = 150

	DefaultClockHz = 100_000_000
)

// Platform holds the timing parameters of the processing-system side of the
// fabric, shared by every interconnect in a task set.
type Platform struct {
	PSReadDelay     int64
	PSWriteDelay    int64
	TransactionTime int64
	ClockHz         float64
}

func DefaultPlatform() Platform {
	return Platform{
		PSReadDelay:     DefaultPSReadDelay,
		PSWriteDelay:    DefaultPSWriteDelay,
		TransactionTime: DefaultTransactionTime,
		ClockHz:         DefaultClockHz,
	}
}

func (p Platform) ClocksToMillis(clks float64) float64 {
	return clks / p.ClockHz * 1e3
}

func (p Platform) MillisToClocks(ms float64) float64 {
	return ms * p.ClockHz / 1e3
}

// Interconnect is one AXI interconnect of the fabric. Phi bounds the number
// of outstanding transactions its arbiter grants to each attached port.
type Interconnect struct {
	ID  int
	Phi int

	AddrIssueDelay int64
	DataIssueDelay int64
	BRespDelay     int64
	AddrHold       int64
	DataHold       int64
	BRespHold      int64
}

func DefaultInterconnect(id int) Interconnect {
	return Interconnect{
		ID:             id,
		Phi:            DefaultInterPhi,
		AddrIssueDelay: DefaultAddrIssueDelay,
		DataIssueDelay: DefaultDataIssueDelay,
		BRespDelay:     DefaultBRespDelay,
		AddrHold:       DefaultAddrHold,
		DataHold:       DefaultDataHold,
		BRespHold:      DefaultBRespHold,
	}
}

// Accelerator is a hardware accelerator attached to one interconnect port.
// Each task drives exactly one accelerator for the lifetime of a task set.
type Accelerator struct {
	ID           int
	Interconnect int
	Task         int
}
