// internal/recommendation/predicate.go
package recommendation

// Options tunes predicate building and relaxation. Zero values fall back to
// the defaults below.
type Options struct {
	DenyList         []string
	LargeGroupSeats  int
	RelaxedSeatFloor int
	ResultLimit      int
}

var DefaultDenyList = []string{"Ayla", "Agya", "Brio", "Calya", "Sigra", "Karimun", "Spark", "Go+"}

const (
	DefaultLargeGroupSeats  = 6
	DefaultRelaxedSeatFloor = 5
	DefaultResultLimit      = 18
)

func DefaultOptions() Options {
	return Options{
		DenyList:         append([]string(nil), DefaultDenyList...),
		LargeGroupSeats:  DefaultLargeGroupSeats,
		RelaxedSeatFloor: DefaultRelaxedSeatFloor,
		ResultLimit:      DefaultResultLimit,
	}
}

func (o Options) withDefaults() Options {
	if o.DenyList == nil {
		o.DenyList = append([]string(nil), DefaultDenyList...)
	}
	if o.LargeGroupSeats <= 0 {
		o.LargeGroupSeats = DefaultLargeGroupSeats
	}
	if o.RelaxedSeatFloor <= 0 {
		o.RelaxedSeatFloor = DefaultRelaxedSeatFloor
	}
	if o.ResultLimit <= 0 {
		o.ResultLimit = DefaultResultLimit
	}
	return o
}

// PriceRange bounds dailyPrice inclusively. A nil bound is open.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Predicates is a backend-neutral conjunction of vehicle filters. Results
// are always ordered by dailyPrice ascending and capped at Limit.
type Predicates struct {
	Price      *PriceRange `json:"price,omitempty"`
	TypeHint   *string     `json:"typeHint,omitempty"`
	MinSeats   *int        `json:"minSeats,omitempty"`
	Exclude    []string    `json:"exclude,omitempty"`
	BranchCity *string     `json:"branchCity,omitempty"`
	Limit      int         `json:"limit"`
}

// BuildPredicates translates criteria into filters. The denylist applies
// only when MinSeats reaches LargeGroupSeats.
func BuildPredicates(c NormalizedCriteria, opts Options) Predicates {
	opts = opts.withDefaults()

	p := Predicates{
		TypeHint:   c.VehicleTypeHint,
		BranchCity: c.LocationCity,
		Limit:      opts.ResultLimit,
	}

	if c.MinPrice != nil || c.MaxPrice != nil {
		p.Price = &PriceRange{Min: c.MinPrice, Max: c.MaxPrice}
	}

	if c.MinSeats != nil {
		seats := *c.MinSeats
		p.MinSeats = &seats
		if seats >= opts.LargeGroupSeats && len(opts.DenyList) > 0 {
			p.Exclude = append([]string(nil), opts.DenyList...)
		}
	}

	return p
}

// Relaxed widens the seat floor to max(MinSeats-1, floor) and drops the
// denylist. Price, type and city are kept. Without a seat floor p is
// returned unchanged.
func (p Predicates) Relaxed(floor int) Predicates {
	if p.MinSeats == nil {
		return p
	}
	seats := *p.MinSeats - 1
	if seats < floor {
		seats = floor
	}
	p.MinSeats = &seats
	p.Exclude = nil
	return p
}

// HasDenyList reports whether the city-car exclusion is active.
func (p Predicates) HasDenyList() bool {
	return len(p.Exclude) > 0
}
