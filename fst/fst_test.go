package fst

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func buildChain() *VectorFST[TropicalWeight] {
	f := NewVectorFST[TropicalWeight](Tropical{})
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	f.SetStart(s0)
	f.AddArc(s0, Arc[TropicalWeight]{ILabel: 3, OLabel: 4, Weight: 0.5, NextState: s1})
	f.AddArc(s0, Arc[TropicalWeight]{ILabel: 5, OLabel: 5, Weight: 1.5, NextState: s1})
	f.AddArc(s1, Arc[TropicalWeight]{ILabel: 6, OLabel: 6, Weight: 0.25, NextState: s2})
	f.SetFinal(s2, 2.0)
	return f
}

func TestVectorFST(t *testing.T) {
	f := buildChain()
	if f.NumStates() != 3 {
		t.Fatalf("NumStates = %d, want 3", f.NumStates())
	}
	if f.TotalArcs() != 3 {
		t.Errorf("TotalArcs = %d, want 3", f.TotalArcs())
	}
	if f.Start() != 0 {
		t.Errorf("Start = %d, want 0", f.Start())
	}
	arcs := f.Arcs(0)
	if len(arcs) != 2 || arcs[0].ILabel != 3 || arcs[1].ILabel != 5 {
		t.Errorf("arcs of state 0 not in insertion order: %+v", arcs)
	}
	if f.IsFinal(0) {
		t.Error("state 0 should not be final")
	}
	if !math.IsInf(float64(f.Final(1)), 1) {
		t.Errorf("Final(1) = %v, want +Inf", f.Final(1))
	}
	if f.Final(2) != 2.0 {
		t.Errorf("Final(2) = %v, want 2", f.Final(2))
	}
}

func TestVectorFSTEmptyStart(t *testing.T) {
	f := NewVectorFST[TropicalWeight](Tropical{})
	if f.Start() != NoStateID {
		t.Errorf("Start = %d, want NoStateID", f.Start())
	}
}

func TestVectorFSTOutOfRangePanics(t *testing.T) {
	f := buildChain()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if _, ok := r.(*StateRangeError); !ok {
			t.Errorf("panic value = %T, want *StateRangeError", r)
		}
	}()
	f.Arcs(7)
}

func TestTropicalTimes(t *testing.T) {
	sr := Tropical{}
	if got := sr.Times(1.5, 2.0); got != 3.5 {
		t.Errorf("Times(1.5, 2) = %v, want 3.5", got)
	}
	if !sr.IsZero(sr.Times(sr.Zero(), -5)) {
		t.Error("Zero should annihilate")
	}
	if got := sr.Times(sr.One(), 4); got != 4 {
		t.Errorf("Times(One, 4) = %v, want 4", got)
	}
}

func TestFeatures(t *testing.T) {
	sr := Features{Dim: 3}
	lm := sr.MakeAt(1)
	wp := sr.MakeAt(2)
	got := sr.Times(FeatureVector{1, 0, 0}, sr.Times(lm(2.5), wp(-1)))
	want := FeatureVector{1, 2.5, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !sr.IsZero(sr.Times(sr.Zero(), got)) {
		t.Error("Zero should annihilate")
	}
	if cost := sr.Dot(got, []float64{1, 2, 3}); cost != 3 {
		t.Errorf("Dot = %v, want 3", cost)
	}
	if cost := sr.Dot(nil, []float64{1}); !math.IsInf(float64(cost), 1) {
		t.Errorf("Dot(Zero) = %v, want +Inf", cost)
	}
}

func TestEncodeDecode(t *testing.T) {
	f := buildChain()
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	g, err := Decode[TropicalWeight](&buf, Tropical{})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if g.NumStates() != f.NumStates() || g.TotalArcs() != f.TotalArcs() || g.Start() != f.Start() {
		t.Fatalf("decoded shape differs: %d/%d/%d", g.NumStates(), g.TotalArcs(), g.Start())
	}
	if g.IsFinal(0) || g.IsFinal(1) {
		t.Error("non-final states must stay non-final")
	}
	if g.Final(2) != 2.0 {
		t.Errorf("Final(2) = %v, want 2", g.Final(2))
	}
	if a := g.Arcs(0)[0]; a.ILabel != 3 || a.OLabel != 4 || a.Weight != 0.5 || a.NextState != 1 {
		t.Errorf("first arc = %+v", a)
	}
}

func TestEncodeDecodeFeatures(t *testing.T) {
	sr := Features{Dim: 2}
	f := NewVectorFST[FeatureVector](sr)
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.AddArc(s0, Arc[FeatureVector]{ILabel: 1, OLabel: 1, Weight: FeatureVector{0.5, 1}, NextState: s1})
	f.SetFinal(s1, sr.One())

	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	g, err := Decode[FeatureVector](&buf, sr)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if g.IsFinal(s0) {
		t.Error("state 0 should not be final")
	}
	if !g.IsFinal(s1) {
		t.Error("state 1 should be final")
	}
	if w := g.Arcs(s0)[0].Weight; len(w) != 2 || w[1] != 1 {
		t.Errorf("arc weight = %v", w)
	}
}

func TestDecodeTruncated(t *testing.T) {
	f := buildChain()
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	raw := buf.Bytes()
	if _, err := Decode[TropicalWeight](bytes.NewReader(raw[:len(raw)/2]), Tropical{}); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestReadText(t *testing.T) {
	src := `# a small lattice
0	1	3	4	0.5
0	1	5	5
1	2	6
2	2
`
	f, err := ReadText(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadText error: %v", err)
	}
	if f.NumStates() != 3 || f.TotalArcs() != 3 {
		t.Fatalf("shape = %d states / %d arcs, want 3/3", f.NumStates(), f.TotalArcs())
	}
	if a := f.Arcs(0)[0]; a.OLabel != 4 || a.Weight != 0.5 {
		t.Errorf("first arc = %+v", a)
	}
	if a := f.Arcs(0)[1]; a.Weight != 0 {
		t.Errorf("unweighted arc weight = %v, want 0", a.Weight)
	}
	if a := f.Arcs(1)[0]; a.ILabel != 6 || a.OLabel != 6 {
		t.Errorf("acceptor arc = %+v", a)
	}
	if f.Final(2) != 2 {
		t.Errorf("Final(2) = %v, want 2", f.Final(2))
	}
}

func TestReadTextErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"too many fields", "0 1 2 3 4 5\n"},
		{"bad weight", "0 1 2 3 x\n"},
		{"negative id", "0 -1 2 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadText(strings.NewReader(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteTextRoundTrip(t *testing.T) {
	f := buildChain()
	var buf bytes.Buffer
	if err := WriteText(&buf, f); err != nil {
		t.Fatalf("WriteText error: %v", err)
	}
	g, err := ReadText(&buf)
	if err != nil {
		t.Fatalf("ReadText error: %v", err)
	}
	if g.NumStates() != 3 || g.TotalArcs() != 3 || g.Start() != 0 {
		t.Fatalf("round trip shape = %d/%d/%d", g.NumStates(), g.TotalArcs(), g.Start())
	}
	if g.Final(2) != 2 {
		t.Errorf("Final(2) = %v, want 2", g.Final(2))
	}
}
