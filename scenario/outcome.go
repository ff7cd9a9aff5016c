package scenario

import "fmt"

// Kind classifies the observable result of a scenario run.
type Kind int

const (
	// KindSum: every branch completed (or substituted a fallback) and the
	// results were aggregated.
	KindSum Kind = iota
	// KindCaught: a failure was caught, either by a supervisor handler or
	// by the caller at a fail-fast join. Tag says which.
	KindCaught
	// KindUnhandled: a failure escaped asynchronously; no catch saw it.
	KindUnhandled
	// KindNever: the scenario did not finish within the watchdog window.
	KindNever
)

func (k Kind) String() string {
	switch k {
	case KindSum:
		return "sum"
	case KindCaught:
		return "caught"
	case KindUnhandled:
		return "unhandled"
	case KindNever:
		return "never-completes"
	default:
		return "unknown"
	}
}

// Tag values for KindCaught outcomes.
const (
	TagSupervisor = "supervisor"
	TagScope      = "scope"
)

// Outcome is the observable result of one scenario run.
type Outcome struct {
	Kind Kind
	Sum  int    // valid for KindSum
	Tag  string // valid for KindCaught
	Err  error  // the caught or escaped failure, if any
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindSum:
		return fmt.Sprintf("sum(%d)", o.Sum)
	case KindCaught:
		return fmt.Sprintf("caught(%s: %v)", o.Tag, o.Err)
	case KindUnhandled:
		return fmt.Sprintf("unhandled(%v)", o.Err)
	default:
		return o.Kind.String()
	}
}
