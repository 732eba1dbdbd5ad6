package fst

import "fmt"

// StateRangeError is the panic value for a lookup of a state that does not
// exist. Such a lookup is a caller bug.
type StateRangeError struct {
	State     StateID
	NumStates int
}

func (e *StateRangeError) Error() string {
	return fmt.Sprintf("fst: state %d out of range [0, %d)", e.State, e.NumStates)
}
