package fst

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Binary lattices are msgpack-encoded with short field keys.
type wireFST[W any] struct {
	Start  StateID        `msgpack:"s"`
	States []wireState[W] `msgpack:"st"`
}

type wireState[W any] struct {
	Final W            `msgpack:"f"`
	Arcs  []wireArc[W] `msgpack:"a,omitempty"`
}

type wireArc[W any] struct {
	ILabel    Label   `msgpack:"i"`
	OLabel    Label   `msgpack:"o"`
	Weight    W       `msgpack:"w"`
	NextState StateID `msgpack:"n"`
}

// Encode writes f to w in the binary lattice format.
func Encode[W any](w io.Writer, f *VectorFST[W]) error {
	out := wireFST[W]{Start: f.start, States: make([]wireState[W], len(f.states))}
	for i, st := range f.states {
		ws := wireState[W]{Final: st.final, Arcs: make([]wireArc[W], len(st.arcs))}
		for j, a := range st.arcs {
			ws.Arcs[j] = wireArc[W]{ILabel: a.ILabel, OLabel: a.OLabel, Weight: a.Weight, NextState: a.NextState}
		}
		out.States[i] = ws
	}
	if err := msgpack.NewEncoder(w).Encode(&out); err != nil {
		return fmt.Errorf("encode lattice: %w", err)
	}
	return nil
}

// Decode reads a lattice written by Encode. Arcs pointing outside the
// automaton are rejected.
func Decode[W any](r io.Reader, sr Semiring[W]) (*VectorFST[W], error) {
	var in wireFST[W]
	if err := msgpack.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode lattice: %w", err)
	}
	f := NewVectorFST(sr)
	for range in.States {
		f.AddState()
	}
	n := StateID(len(in.States))
	for i, ws := range in.States {
		s := StateID(i)
		f.SetFinal(s, ws.Final)
		for _, a := range ws.Arcs {
			if a.NextState < 0 || a.NextState >= n {
				return nil, fmt.Errorf("decode lattice: state %d: arc to %d out of range", s, a.NextState)
			}
			f.AddArc(s, Arc[W]{ILabel: a.ILabel, OLabel: a.OLabel, Weight: a.Weight, NextState: a.NextState})
		}
	}
	if in.Start != NoStateID {
		if in.Start < 0 || in.Start >= n {
			return nil, fmt.Errorf("decode lattice: start state %d out of range", in.Start)
		}
		f.SetStart(in.Start)
	}
	return f, nil
}
