package feature

// State is the initialization state of a single feature.
type State int

const (
	// StatePending indicates the feature has not started initializing.
	StatePending State = iota
	// StateInitializing indicates Initialize is running.
	StateInitializing
	// StateInitialized indicates Initialize returned successfully.
	StateInitialized
	// StateFailed indicates Initialize failed. It is terminal.
	StateFailed
)

// States lists every state, in lifecycle order.
var States = []State{StatePending, StateInitializing, StateInitialized, StateFailed}

// String returns a string representation of the feature state
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func stateNames() []string {
	names := make([]string, len(States))
	for i, s := range States {
		names[i] = s.String()
	}
	return names
}

// FeatureStatus is a snapshot of one feature.
type FeatureStatus struct {
	Name  string `json:"name" yaml:"name"`
	State string `json:"state" yaml:"state"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
