package domain

import "fmt"

// RateKind tags the rate structure union.
type RateKind string

const (
	RateFixed     RateKind = "fixed"
	RateTiered    RateKind = "tiered"
	RateTimeOfUse RateKind = "time_of_use"
	RateVariable  RateKind = "variable"
	RateIndexed   RateKind = "indexed"
)

// RateTier is one step of a tiered rate. UpToKWH is the cumulative upper bound
// of the tier in kWh; 0 marks the final, unbounded tier.
type RateTier struct {
	UpToKWH    float64 `db:"up_to_kwh" json:"up_to_kwh"`
	RatePerKWH float64 `db:"rate_per_kwh" json:"rate_per_kwh"`
}

// RateStructure is a tagged union over the supported rate kinds. All rates are
// in cents per kWh. Only the fields for the tagged kind are meaningful;
// Validate enforces that at construction time rather than leaving malformed
// payloads to fail mid-calculation.
type RateStructure struct {
	Kind        RateKind   `json:"kind"`
	RatePerKWH  float64    `json:"rate_per_kwh,omitempty"`
	Tiers       []RateTier `json:"tiers,omitempty"`
	PeakRate    float64    `json:"peak_rate,omitempty"`
	OffPeakRate float64    `json:"off_peak_rate,omitempty"`
}

func FixedRate(centsPerKWH float64) RateStructure {
	return RateStructure{Kind: RateFixed, RatePerKWH: centsPerKWH}
}

func TieredRate(tiers ...RateTier) RateStructure {
	return RateStructure{Kind: RateTiered, Tiers: tiers}
}

func TimeOfUseRate(peakCents, offPeakCents float64) RateStructure {
	return RateStructure{Kind: RateTimeOfUse, PeakRate: peakCents, OffPeakRate: offPeakCents}
}

func VariableRate(baseCentsPerKWH float64) RateStructure {
	return RateStructure{Kind: RateVariable, RatePerKWH: baseCentsPerKWH}
}

func IndexedRate(baseCentsPerKWH float64) RateStructure {
	return RateStructure{Kind: RateIndexed, RatePerKWH: baseCentsPerKWH}
}

// Validate checks the union invariants for the tagged kind.
func (r RateStructure) Validate() error {
	switch r.Kind {
	case RateFixed, RateVariable, RateIndexed:
		if r.RatePerKWH < 0 {
			return fmt.Errorf("%w: negative rate %.2f", ErrMalformedRate, r.RatePerKWH)
		}
	case RateTimeOfUse:
		if r.PeakRate < 0 || r.OffPeakRate < 0 {
			return fmt.Errorf("%w: negative time-of-use rate", ErrMalformedRate)
		}
	case RateTiered:
		if len(r.Tiers) == 0 {
			return fmt.Errorf("%w: tiered rate with no tiers", ErrMalformedRate)
		}
		prev := 0.0
		for i, t := range r.Tiers {
			if t.RatePerKWH < 0 {
				return fmt.Errorf("%w: negative rate in tier %d", ErrMalformedRate, i)
			}
			last := i == len(r.Tiers)-1
			if last {
				if t.UpToKWH != 0 {
					return fmt.Errorf("%w: final tier must be unbounded", ErrMalformedRate)
				}
				continue
			}
			if t.UpToKWH <= prev {
				return fmt.Errorf("%w: tier bounds must ascend", ErrMalformedRate)
			}
			prev = t.UpToKWH
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedRate, r.Kind)
	}
	return nil
}

// IsVariable reports whether the point estimate for this rate carries
// market-movement uncertainty.
func (r RateStructure) IsVariable() bool {
	return r.Kind == RateVariable || r.Kind == RateIndexed
}
