package language

// Model is the capability a lattice rescorer needs from a language model.
// S is the model's context state; it must be a comparable value so that two
// histories can be told apart without inspecting model internals.
type Model[S any] interface {
	// Order is the maximum n-gram length.
	Order() int
	// NullContextState is the context of an empty history.
	NullContextState() S
	// Score returns the log10 probability of word after state, and the
	// state that follows it.
	Score(state S, word WordID) (float64, S)
	// Words returns the history held by state, most recent word first. Only
	// the first ContextLength entries are meaningful.
	Words(state S) []WordID
	// ContextLength is the number of valid words in state.
	ContextLength(state S) int
}

type fixedContext[S any] struct {
	Model[S]
}

// FixedContext wraps a model whose states do not record how many history
// words they hold, reporting a full Order()-1 word context for every state.
func FixedContext[S any](m Model[S]) Model[S] {
	return fixedContext[S]{Model: m}
}

func (f fixedContext[S]) ContextLength(S) int {
	return f.Order() - 1
}
