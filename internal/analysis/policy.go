package analysis

import "fmt"

// ContentionPolicy models how background bus traffic inflates the service
// delay of a single accelerator transaction. Implementations must be
// monotone non-decreasing in the bus load, finite on [0,1], and leave delays
// untouched at load 0.
type ContentionPolicy interface {
	Name() string

	// ServiceScale is the factor applied to a transaction's no-contention
	// service delay at the given bus load.
	ServiceScale(busLoad float64) float64

	// TransactionPenalty is the additional stall charged to one transaction
	// whose no-contention service delay is baseDelay.
	TransactionPenalty(busLoad float64, baseDelay int64) float64
}

// AdditivePolicy charges every transaction an extra busLoad-proportional
// stall: one background transaction of comparable size can delay each access
// per arbitration round.
type AdditivePolicy struct{}

func (AdditivePolicy) Name() string { return "additive" }

func (AdditivePolicy) ServiceScale(float64) float64 { return 1 }

func (AdditivePolicy) TransactionPenalty(busLoad float64, baseDelay int64) float64 {
	return busLoad * float64(baseDelay)
}

// BandwidthPolicy stretches service delays by the bandwidth fraction stolen
// by background traffic. Steal bounds the fraction the background can take
// even at full load, keeping the scale finite on [0,1].
type BandwidthPolicy struct {
	Steal float64
}

func (BandwidthPolicy) Name() string { return "bandwidth" }

func (p BandwidthPolicy) ServiceScale(busLoad float64) float64 {
	return 1 / (1 - p.Steal*busLoad)
}

func (BandwidthPolicy) TransactionPenalty(float64, int64) float64 { return 0 }

const DefaultStealFraction = 0.8

// NewPolicy resolves a policy by its configured name. An empty name selects
// the additive policy.
func NewPolicy(name string, steal float64) (ContentionPolicy, error) {
	switch name {
	case "", "additive":
		return AdditivePolicy{}, nil
	case "bandwidth":
		if steal <= 0 {
			steal = DefaultStealFraction
		}
		if steal >= 1 {
			return nil, fmt.Errorf("bandwidth steal fraction must be below 1, got %v", steal)
		}
		return BandwidthPolicy{Steal: steal}, nil
	default:
		return nil, fmt.Errorf("unknown contention policy %q", name)
	}
}
