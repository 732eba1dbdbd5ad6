// Package fst provides a mutable weighted finite-state automaton and the
// semirings used to weight its arcs.
package fst

// StateID identifies a state. States are numbered densely from 0.
type StateID int

// NoStateID is returned by Start when no start state has been set.
const NoStateID StateID = -1

// Label is an arc input or output symbol. Label 0 is conventionally epsilon.
type Label int32

// Arc is a transition owned by its source state.
type Arc[W any] struct {
	ILabel    Label
	OLabel    Label
	Weight    W
	NextState StateID
}

// Fst is the read-only view of an automaton that traversals need.
type Fst[W any] interface {
	Start() StateID
	NumStates() int
	Arcs(s StateID) []Arc[W]
	Final(s StateID) W
}

type vectorState[W any] struct {
	final W
	arcs  []Arc[W]
}

// VectorFST is an automaton stored as a slice of states, each holding its
// outgoing arcs in insertion order.
type VectorFST[W any] struct {
	sr     Semiring[W]
	start  StateID
	states []vectorState[W]
}

// NewVectorFST creates an empty automaton weighted over sr.
func NewVectorFST[W any](sr Semiring[W]) *VectorFST[W] {
	return &VectorFST[W]{sr: sr, start: NoStateID}
}

// Semiring returns the weight algebra of the automaton.
func (f *VectorFST[W]) Semiring() Semiring[W] {
	return f.sr
}

// Start returns the start state, or NoStateID.
func (f *VectorFST[W]) Start() StateID {
	return f.start
}

// SetStart marks s as the start state.
func (f *VectorFST[W]) SetStart(s StateID) {
	f.check(s)
	f.start = s
}

// AddState appends a non-final state and returns its id.
func (f *VectorFST[W]) AddState() StateID {
	f.states = append(f.states, vectorState[W]{final: f.sr.Zero()})
	return StateID(len(f.states) - 1)
}

// AddArc appends an arc leaving s.
func (f *VectorFST[W]) AddArc(s StateID, arc Arc[W]) {
	f.check(s)
	f.states[s].arcs = append(f.states[s].arcs, arc)
}

// SetFinal sets the final weight of s. Setting Zero makes s non-final.
func (f *VectorFST[W]) SetFinal(s StateID, w W) {
	f.check(s)
	f.states[s].final = w
}

// Final returns the final weight of s, which is Zero for non-final states.
func (f *VectorFST[W]) Final(s StateID) W {
	f.check(s)
	return f.states[s].final
}

// IsFinal reports whether s carries a non-Zero final weight.
func (f *VectorFST[W]) IsFinal(s StateID) bool {
	return !f.sr.IsZero(f.Final(s))
}

// Arcs returns the arcs leaving s in insertion order. The slice is owned by
// the automaton and must not be modified.
func (f *VectorFST[W]) Arcs(s StateID) []Arc[W] {
	f.check(s)
	return f.states[s].arcs
}

// NumStates returns the number of states.
func (f *VectorFST[W]) NumStates() int {
	return len(f.states)
}

// NumArcs returns the number of arcs leaving s.
func (f *VectorFST[W]) NumArcs(s StateID) int {
	f.check(s)
	return len(f.states[s].arcs)
}

// TotalArcs returns the number of arcs in the automaton.
func (f *VectorFST[W]) TotalArcs() int {
	n := 0
	for i := range f.states {
		n += len(f.states[i].arcs)
	}
	return n
}

func (f *VectorFST[W]) check(s StateID) {
	if s < 0 || int(s) >= len(f.states) {
		panic(&StateRangeError{State: s, NumStates: len(f.states)})
	}
}
