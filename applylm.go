// Package applylm rescores word lattices with an n-gram language model.
package applylm

import (
	"context"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/ieee0824/applylm-go/compose"
	"github.com/ieee0824/applylm-go/fst"
	"github.com/ieee0824/applylm-go/idbridge"
	"github.com/ieee0824/applylm-go/internal/logger"
	"github.com/ieee0824/applylm-go/language"
)

// Applier is the top-level lattice rescorer. Its model and bridge are read
// only, so one Applier may serve many goroutines as long as each uses its own
// engine.
type Applier struct {
	LM           *language.NGramModel
	Bridge       *idbridge.Bridge
	EngineCfg    compose.Config
	FixedContext bool // treat every model state as a full order-1 word history
	Workers      int  // ApplyBatch parallelism; 0 = NumCPU
	Logger       *log.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithEngineConfig sets the scoring parameters.
func WithEngineConfig(cfg compose.Config) Option {
	return func(a *Applier) {
		a.EngineCfg = cfg
	}
}

// WithWorkers sets the number of lattices ApplyBatch composes in parallel.
func WithWorkers(n int) Option {
	return func(a *Applier) {
		a.Workers = n
	}
}

// WithFixedContext enables or disables full-length context keys.
func WithFixedContext(enabled bool) Option {
	return func(a *Applier) {
		a.FixedContext = enabled
	}
}

// WithLogger sets the logger handed to engines.
func WithLogger(l *log.Logger) Option {
	return func(a *Applier) {
		a.Logger = l
	}
}

// NewApplier creates an Applier from an ARPA model file and an optional
// wordmap. With an empty wordmapPath, lattice labels are taken to be model
// word ids.
func NewApplier(lmPath, wordmapPath string, opts ...Option) (*Applier, error) {
	lm, err := language.LoadARPAFile(lmPath)
	if err != nil {
		return nil, fmt.Errorf("load language model: %w", err)
	}

	var bridge *idbridge.Bridge
	if wordmapPath != "" {
		wm, err := idbridge.LoadWordMapFile(wordmapPath)
		if err != nil {
			return nil, fmt.Errorf("load wordmap: %w", err)
		}
		bridge = idbridge.FromWordMap(wm, lm.Vocab())
	}

	a := NewApplierFromModels(lm, bridge, opts...)
	if bridge != nil {
		a.Logger.Info("Loaded wordmap", "labels", bridge.Len(), "known", bridge.Known())
	}
	return a, nil
}

// NewApplierFromModels creates an Applier from a loaded model. A nil bridge
// selects the identity mapping over the model vocabulary.
func NewApplierFromModels(lm *language.NGramModel, bridge *idbridge.Bridge, opts ...Option) *Applier {
	a := &Applier{
		LM:        lm,
		Bridge:    bridge,
		EngineCfg: compose.DefaultConfig(),
		Logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Bridge == nil {
		a.Bridge = idbridge.Identity(lm.Vocab().Size())
	}
	if a.Logger == nil {
		a.Logger = logger.Discard()
	}
	return a
}

func (a *Applier) model() language.Model[language.State] {
	if a.FixedContext {
		return language.FixedContext[language.State](a.LM)
	}
	return a.LM
}

func (a *Applier) workers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.NumCPU()
}

// NewEngine creates an engine for tropical lattices. Engines are not safe
// for concurrent use; create one per goroutine.
func (a *Applier) NewEngine() *compose.Engine[fst.TropicalWeight, language.State] {
	e := compose.New[fst.TropicalWeight, language.State](a.model(), a.Bridge, fst.Tropical{}, fst.Tropical{}.FromCost, a.EngineCfg)
	e.SetLogger(a.Logger)
	return e
}

// Apply rescores one tropical lattice.
func (a *Applier) Apply(ctx context.Context, lat *fst.VectorFST[fst.TropicalWeight]) (*fst.VectorFST[fst.TropicalWeight], error) {
	return a.NewEngine().Compose(ctx, lat)
}

// ApplyFeatures rescores a feature-vector lattice, adding the model cost
// and word penalty into feature k of every arc.
func (a *Applier) ApplyFeatures(ctx context.Context, lat *fst.VectorFST[fst.FeatureVector], k int) (*fst.VectorFST[fst.FeatureVector], error) {
	sr, ok := lat.Semiring().(fst.Features)
	if !ok {
		return nil, fmt.Errorf("feature lattice has semiring %T", lat.Semiring())
	}
	if k < 0 || k >= sr.Dim {
		return nil, fmt.Errorf("feature index %d outside 0..%d", k, sr.Dim-1)
	}
	e := compose.New[fst.FeatureVector, language.State](a.model(), a.Bridge, sr, sr.MakeAt(k), a.EngineCfg)
	e.SetLogger(a.Logger)
	return e.Compose(ctx, lat)
}
