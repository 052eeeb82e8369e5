package types

// ReasoningPriority selects which derivation branch the arbiter tries first.
type ReasoningPriority string

const (
	SymbolicPriority    ReasoningPriority = "symbolic"
	HolographicPriority ReasoningPriority = "holographic"
)

// UnbindMode selects the exact codec's unbind algorithm. Mode A (multiset
// subtraction) is the production default; mode B (index-based cancellation)
// exists for saturation diagnostics.
type UnbindMode string

const (
	UnbindModeA UnbindMode = "A"
	UnbindModeB UnbindMode = "B"
)

// SessionOptions is the single typed options record accepted by the session
// constructor. Zero values fall back to the documented defaults.
type SessionOptions struct {
	Geometry               int
	HDCStrategy            string
	ReasoningPriority      ReasoningPriority
	ReasoningProfile       string
	ClosedWorldAssumption  bool
	RejectContradictions   bool
	ExactUnbindMode        UnbindMode
	DepthLimit             int
	TimeoutMS              int
	Seed                   uint64
	PersistPath            string
	StrictIdentifiers      bool
}

// DefaultOptions returns the documented session defaults.
func DefaultOptions() SessionOptions {
	return SessionOptions{
		HDCStrategy:       "dense-binary",
		ReasoningPriority: SymbolicPriority,
		ReasoningProfile:  "theoryDriven",
		ExactUnbindMode:   UnbindModeA,
		DepthLimit:        16,
		Seed:              0,
	}
}

// Normalize fills unset fields with defaults and returns the result.
func (o SessionOptions) Normalize() SessionOptions {
	def := DefaultOptions()
	if o.HDCStrategy == "" {
		o.HDCStrategy = def.HDCStrategy
	}
	if o.ReasoningPriority == "" {
		o.ReasoningPriority = def.ReasoningPriority
	}
	if o.ReasoningProfile == "" {
		o.ReasoningProfile = def.ReasoningProfile
	}
	if o.ExactUnbindMode == "" {
		o.ExactUnbindMode = def.ExactUnbindMode
	}
	if o.DepthLimit <= 0 {
		o.DepthLimit = def.DepthLimit
	}
	return o
}

// QueryOpts carries the per-call knobs of a query.
type QueryOpts struct {
	MaxResults int
	TimeoutMS  int
}
