// Package compose applies an n-gram language model to a weighted lattice on
// the fly.
//
// The output lattice pairs every reachable lattice state with the language
// model histories that reach it. Histories are interned into small context
// ids, and a (state, context id) pair is packed into one integer key, so two
// paths reaching the same state with equivalent histories share an output
// state. The full product of lattice and model is never built: only pairs
// reachable from the start state are expanded, breadth first.
package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ieee0824/applylm-go/fst"
	"github.com/ieee0824/applylm-go/internal/logger"
	"github.com/ieee0824/applylm-go/internal/mathutil"
	"github.com/ieee0824/applylm-go/language"
)

// KeySpace is the multiplier packing a lattice state and a context id into
// one key. Context ids must stay below it.
const KeySpace uint64 = 1_000_000_000

var (
	// ErrEmptyLattice is returned, with a nil lattice, when the input has no
	// states. Callers should skip the lattice rather than abort a batch.
	ErrEmptyLattice = errors.New("empty lattice")
	// ErrContractViolation marks inputs that break the engine's
	// preconditions. It indicates a caller or configuration bug.
	ErrContractViolation = errors.New("contract violation")
)

// LabelBridge maps lattice output labels onto model word ids.
type LabelBridge interface {
	Map(label fst.Label) language.WordID
}

// Config holds the scoring parameters of an Engine.
type Config struct {
	NaturalLog  bool        // costs as negated natural logs instead of log10
	LMScale     float64     // language model scale factor
	WordPenalty float64     // cost added per scored word
	Epsilons    []fst.Label // output labels transparent to the model
}

// DefaultConfig returns natural-log costs at scale 1, no word penalty, and
// label 0 as the only epsilon.
func DefaultConfig() Config {
	return Config{
		NaturalLog:  true,
		LMScale:     1.0,
		WordPenalty: 0.0,
		Epsilons:    []fst.Label{0},
	}
}

// Stats describes the output of the last Compose call.
type Stats struct {
	States   int
	Arcs     int
	Contexts int
}

type origin[S any] struct {
	state fst.StateID
	lm    S
}

// Engine applies one language model to lattices weighted over W. S is the
// model's context state type.
//
// An Engine is not safe for concurrent use. The model and the bridge are only
// read, so several engines, one per goroutine, may share them.
type Engine[W any, S any] struct {
	model       language.Model[S]
	bridge      LabelBridge
	sr          fst.Semiring[W]
	makeWeight  func(float64) W
	epsilons    map[fst.Label]struct{}
	costScale   float64
	wordPenalty float64
	log         *log.Logger

	registry map[uint64]fst.StateID
	backmap  []origin[S]
	contexts *Index
	queue    []fst.StateID
	out      *fst.VectorFST[W]
	stats    Stats
}

// New creates an engine. makeWeight turns a cost into a weight of the
// lattice semiring, for example fst.Tropical{}.FromCost.
func New[W any, S any](model language.Model[S], bridge LabelBridge, sr fst.Semiring[W], makeWeight func(float64) W, cfg Config) *Engine[W, S] {
	eps := make(map[fst.Label]struct{}, len(cfg.Epsilons))
	for _, l := range cfg.Epsilons {
		eps[l] = struct{}{}
	}
	return &Engine[W, S]{
		model:       model,
		bridge:      bridge,
		sr:          sr,
		makeWeight:  makeWeight,
		epsilons:    eps,
		costScale:   mathutil.CostScale(cfg.NaturalLog, cfg.LMScale),
		wordPenalty: cfg.WordPenalty,
		log:         logger.Discard(),
		registry:    make(map[uint64]fst.StateID),
		contexts:    NewIndex(),
	}
}

// SetLogger replaces the engine's logger, which discards by default.
func (e *Engine[W, S]) SetLogger(l *log.Logger) {
	if l != nil {
		e.log = l
	}
}

// SetWeightMaker replaces the function turning costs into weights.
func (e *Engine[W, S]) SetWeightMaker(mw func(float64) W) {
	e.makeWeight = mw
}

// Stats reports the size of the last composed lattice.
func (e *Engine[W, S]) Stats() Stats {
	return e.stats
}

// Reset clears the state registry, the backmap and the context index.
// Compose calls it before every lattice.
func (e *Engine[W, S]) Reset() {
	clear(e.registry)
	e.backmap = e.backmap[:0]
	e.contexts.Reset()
	e.queue = e.queue[:0]
	e.out = nil
}

// Compose returns a new lattice whose arcs carry the input weight times the
// scaled language model cost and the word penalty of their output label.
// Final weights are copied unchanged. An input without states yields
// ErrEmptyLattice.
func (e *Engine[W, S]) Compose(ctx context.Context, in fst.Fst[W]) (*fst.VectorFST[W], error) {
	if in.NumStates() == 0 {
		e.log.Warn("Empty lattice, skipping LM application")
		return nil, ErrEmptyLattice
	}
	start := in.Start()
	if start == fst.NoStateID {
		return nil, fmt.Errorf("%w: lattice has %d states but no start state", ErrContractViolation, in.NumStates())
	}

	e.Reset()
	e.out = fst.NewVectorFST(e.sr)

	s, _, err := e.add(e.model.NullContextState(), start, in.Final(start))
	if err != nil {
		return nil, err
	}
	e.out.SetStart(s)
	e.queue = append(e.queue, s)

	for head := 0; head < len(e.queue); head++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := e.queue[head]
		if int(s) >= len(e.backmap) {
			return nil, fmt.Errorf("%w: output state %d was never registered", ErrContractViolation, s)
		}
		src := e.backmap[s]

		for _, a := range in.Arcs(src.state) {
			lmCost, penalty, next := e.score(src.lm, a.OLabel)
			ns, visited, err := e.add(next, a.NextState, in.Final(a.NextState))
			if err != nil {
				return nil, err
			}
			w := e.sr.Times(a.Weight, e.sr.Times(e.makeWeight(lmCost), e.makeWeight(penalty)))
			e.out.AddArc(s, fst.Arc[W]{ILabel: a.ILabel, OLabel: a.OLabel, Weight: w, NextState: ns})
			if !visited {
				e.queue = append(e.queue, ns)
			}
		}
	}

	out := e.out
	e.out = nil
	e.stats = Stats{States: out.NumStates(), Arcs: out.TotalArcs(), Contexts: e.contexts.Len()}
	e.log.Info("Done", "states", e.stats.States, "arcs", e.stats.Arcs, "contexts", e.stats.Contexts)
	return out, nil
}

// score returns the scaled model cost and word penalty of emitting label
// after lm, and the context that follows.
func (e *Engine[W, S]) score(lm S, label fst.Label) (float64, float64, S) {
	if _, ok := e.epsilons[label]; ok {
		return 0, 0, lm
	}
	id := e.bridge.Map(label)
	lp, next := e.model.Score(lm, id)
	cost := lp * e.costScale
	penalty := e.wordPenalty
	// Sentence markers are not counted as words, and <s> is never scored.
	switch id {
	case language.BeginSentenceID:
		cost, penalty = 0, 0
	case language.EndSentenceID:
		penalty = 0
	}
	return cost, penalty, next
}

// add returns the output state for lattice state orig under context lm,
// creating it if needed. The boolean reports whether it already existed.
func (e *Engine[W, S]) add(lm S, orig fst.StateID, final W) (fst.StateID, bool, error) {
	buf, err := NewBuffer(e.model.Words(lm), e.model.ContextLength(lm), e.model.Order())
	if err != nil {
		return fst.NoStateID, false, err
	}
	cid := e.contexts.ID(buf)
	if uint64(cid) >= KeySpace {
		return fst.NoStateID, false, fmt.Errorf("%w: %d distinct contexts exceed key space", ErrContractViolation, cid)
	}
	key := uint64(orig)*KeySpace + uint64(cid)
	if s, ok := e.registry[key]; ok {
		return s, true, nil
	}

	s := e.out.AddState()
	e.backmap = append(e.backmap, origin[S]{state: orig, lm: lm})
	if !e.sr.IsZero(final) {
		e.out.SetFinal(s, final)
	}
	e.registry[key] = s
	e.log.Debug("New state", "state", s, "orig", orig, "context", cid)
	return s, false, nil
}
