// internal/scan/state.go
package scan

import "fmt"

// State is the scanner's lifecycle position.
type State int32

const (
	Idle State = iota
	Scanning
	Flushing
	Merging
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Flushing:
		return "flushing"
	case Merging:
		return "merging"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// next reports whether from -> to is a legal transition.
func next(from, to State) bool {
	if to == Failed {
		return from != Done && from != Failed
	}
	switch from {
	case Idle:
		return to == Scanning
	case Scanning:
		return to == Flushing || to == Merging || to == Done
	case Flushing:
		return to == Scanning || to == Merging
	case Merging:
		return to == Done
	}
	return false
}
