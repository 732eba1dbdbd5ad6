package fst

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadText parses a tropical lattice in AT&T text form:
//
//	src dst ilabel olabel [weight]   transducer arc
//	src dst label                    acceptor arc
//	state [weight]                   final state
//
// The state on the first line is the start state. Blank lines and lines
// starting with '#' are skipped.
func ReadText(r io.Reader) (*VectorFST[TropicalWeight], error) {
	f := NewVectorFST[TropicalWeight](Tropical{})
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNum := 0
	first := true

	ensure := func(s StateID) {
		for StateID(f.NumStates()) <= s {
			f.AddState()
		}
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		var ids []int
		weight := 0.0
		var err error

		switch len(fields) {
		case 1, 3, 4:
			ids, err = parseInts(fields)
		case 2, 5:
			ids, err = parseInts(fields[:len(fields)-1])
			if err == nil {
				weight, err = strconv.ParseFloat(fields[len(fields)-1], 64)
			}
		default:
			return nil, fmt.Errorf("line %d: expected 1 to 5 fields, got %d", lineNum, len(fields))
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		src := StateID(ids[0])
		ensure(src)
		if first {
			f.SetStart(src)
			first = false
		}
		if len(ids) == 1 {
			f.SetFinal(src, TropicalWeight(weight))
			continue
		}

		dst := StateID(ids[1])
		ensure(dst)
		arc := Arc[TropicalWeight]{ILabel: Label(ids[2]), OLabel: Label(ids[2]), Weight: TropicalWeight(weight), NextState: dst}
		if len(ids) == 4 {
			arc.OLabel = Label(ids[3])
		}
		f.AddArc(src, arc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func parseInts(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, s := range fields {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", s, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative id %d", v)
		}
		out[i] = v
	}
	return out, nil
}

// WriteText writes f in the form read by ReadText. The start state is
// written first so that it survives a round trip; the other states follow
// in id order.
func WriteText(w io.Writer, f *VectorFST[TropicalWeight]) error {
	bw := bufio.NewWriter(w)
	if f.NumStates() == 0 {
		return bw.Flush()
	}
	order := make([]StateID, 0, f.NumStates())
	if f.Start() != NoStateID {
		order = append(order, f.Start())
	}
	for s := StateID(0); int(s) < f.NumStates(); s++ {
		if s != f.Start() {
			order = append(order, s)
		}
	}
	for _, s := range order {
		for _, a := range f.Arcs(s) {
			fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%s\n", s, a.NextState, a.ILabel, a.OLabel, formatWeight(a.Weight))
		}
		if f.IsFinal(s) {
			fmt.Fprintf(bw, "%d\t%s\n", s, formatWeight(f.Final(s)))
		}
	}
	return bw.Flush()
}

func formatWeight(w TropicalWeight) string {
	return strconv.FormatFloat(float64(w), 'g', -1, 64)
}
