package fst

import "math"

// Semiring is the weight algebra an automaton is built over. Only the
// multiplicative side is needed here: path weights are combined along arcs
// and alternative paths are never summed.
type Semiring[W any] interface {
	// Times combines two weights along a path.
	Times(a, b W) W
	// One is the identity of Times.
	One() W
	// Zero is the annihilator of Times, used as the "infinite cost" final
	// weight of non-final states.
	Zero() W
	// IsZero reports whether w is Zero.
	IsZero(w W) bool
}

// TropicalWeight is a cost: lower is better, +Inf is unreachable.
type TropicalWeight float64

// Tropical is the tropical semiring restricted to its Times operation.
type Tropical struct{}

func (Tropical) Times(a, b TropicalWeight) TropicalWeight {
	if math.IsInf(float64(a), 1) || math.IsInf(float64(b), 1) {
		return TropicalWeight(math.Inf(1))
	}
	return a + b
}

func (Tropical) One() TropicalWeight  { return 0 }
func (Tropical) Zero() TropicalWeight { return TropicalWeight(math.Inf(1)) }

func (Tropical) IsZero(w TropicalWeight) bool {
	return math.IsInf(float64(w), 1)
}

// FromCost turns a plain cost into a tropical weight.
func (Tropical) FromCost(c float64) TropicalWeight {
	return TropicalWeight(c)
}

// FeatureVector holds one cost per feature. A nil vector is Zero.
type FeatureVector []float64

// Features is the semiring of fixed-dimension feature vectors, where Times
// adds component-wise. Lattices weighted this way keep every model score in
// its own coordinate so that feature weights can be tuned afterwards.
type Features struct {
	Dim int
}

func (f Features) Times(a, b FeatureVector) FeatureVector {
	if a == nil || b == nil {
		return nil
	}
	out := make(FeatureVector, f.Dim)
	copy(out, a)
	for i := 0; i < len(b) && i < f.Dim; i++ {
		out[i] += b[i]
	}
	return out
}

func (f Features) One() FeatureVector { return make(FeatureVector, f.Dim) }
func (Features) Zero() FeatureVector { return nil }

func (Features) IsZero(w FeatureVector) bool { return w == nil }

// MakeAt returns a weight maker that places a cost at feature index k.
// It panics if k is outside the vector.
func (f Features) MakeAt(k int) func(float64) FeatureVector {
	if k < 0 || k >= f.Dim {
		panic("fst: feature index out of range")
	}
	return func(c float64) FeatureVector {
		v := make(FeatureVector, f.Dim)
		v[k] = c
		return v
	}
}

// Dot collapses a feature vector into a single cost under weights lambda.
// Zero collapses to +Inf.
func (Features) Dot(v FeatureVector, lambda []float64) TropicalWeight {
	if v == nil {
		return TropicalWeight(math.Inf(1))
	}
	sum := 0.0
	for i := 0; i < len(v) && i < len(lambda); i++ {
		sum += v[i] * lambda[i]
	}
	return TropicalWeight(sum)
}
