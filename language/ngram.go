package language

// MaxOrder is the highest n-gram order a model may have.
const MaxOrder = 6

// UnknownLogProb is the log10 probability of an out-of-vocabulary word when
// the model has no <unk> unigram.
const UnknownLogProb = -100.0

// State is the n-gram context after a word sequence: up to Order()-1 words,
// most recent first. Unused slots are zero, so equal histories compare equal.
type State struct {
	Words  [MaxOrder - 1]WordID
	Length uint8
}

// ngramKey holds words in sentence order.
type ngramKey struct {
	words [MaxOrder]WordID
	n     uint8
}

type ngramEntry struct {
	LogProb    float64 // log10
	LogBackoff float64 // log10
}

// NGramModel is a backoff n-gram language model over word ids.
type NGramModel struct {
	order   int
	vocab   *Vocabulary
	entries map[ngramKey]ngramEntry
	counts  [MaxOrder]int
}

// NewNGramModel creates an empty model of the given order with a fresh
// vocabulary.
func NewNGramModel(order int) *NGramModel {
	if order < 1 {
		order = 1
	}
	if order > MaxOrder {
		order = MaxOrder
	}
	return &NGramModel{
		order:   order,
		vocab:   NewVocabulary(),
		entries: make(map[ngramKey]ngramEntry),
	}
}

// Order returns the maximum n-gram length.
func (m *NGramModel) Order() int { return m.order }

// Vocab returns the model vocabulary.
func (m *NGramModel) Vocab() *Vocabulary { return m.vocab }

// NumNGrams returns how many n-grams of order n the model holds.
func (m *NGramModel) NumNGrams(n int) int {
	if n < 1 || n > MaxOrder {
		return 0
	}
	return m.counts[n-1]
}

// Add stores an n-gram given in sentence order; len(words) must be in
// 1..Order(). Words are added to the vocabulary as needed.
func (m *NGramModel) Add(words []string, logProb, logBackoff float64) {
	ids := make([]WordID, len(words))
	for i, w := range words {
		ids[i] = m.vocab.Add(w)
	}
	key := makeKey(ids)
	if _, ok := m.entries[key]; !ok {
		m.counts[len(ids)-1]++
	}
	m.entries[key] = ngramEntry{LogProb: logProb, LogBackoff: logBackoff}
}

func makeKey(ids []WordID) ngramKey {
	var k ngramKey
	copy(k.words[:], ids)
	k.n = uint8(len(ids))
	return k
}

// contextKey builds the key for the n most recent history words, followed by
// word when withWord is set.
func contextKey(st *State, n int, word WordID, withWord bool) ngramKey {
	var k ngramKey
	for i := 0; i < n; i++ {
		k.words[i] = st.Words[n-1-i]
	}
	k.n = uint8(n)
	if withWord {
		k.words[n] = word
		k.n++
	}
	return k
}

// NullContextState returns the empty history.
func (m *NGramModel) NullContextState() State {
	return State{}
}

// BeginSentenceState returns the history holding only <s>.
func (m *NGramModel) BeginSentenceState() State {
	var st State
	if m.order > 1 {
		st.Words[0] = BeginSentenceID
		st.Length = 1
	}
	return st
}

// Score returns log10 P(word | state) with backoff, and the minimized state
// after word.
func (m *NGramModel) Score(state State, word WordID) (float64, State) {
	hist := int(state.Length)
	if hist > m.order-1 {
		hist = m.order - 1
	}

	logProb := 0.0
	matched := -1
	for n := hist; n >= 0; n-- {
		if e, ok := m.entries[contextKey(&state, n, word, true)]; ok {
			logProb = e.LogProb
			matched = n
			break
		}
	}
	if matched < 0 {
		if e, ok := m.entries[makeKey([]WordID{UnknownID})]; ok {
			logProb = e.LogProb
		} else {
			logProb = UnknownLogProb
		}
		matched = 0
	}
	for n := matched + 1; n <= hist; n++ {
		if e, ok := m.entries[contextKey(&state, n, 0, false)]; ok {
			logProb += e.LogBackoff
		}
	}

	return logProb, m.nextState(state, hist, word)
}

// nextState shifts word into the history and drops the oldest words until
// the remaining history is an n-gram the model knows.
func (m *NGramModel) nextState(state State, hist int, word WordID) State {
	var next State
	if m.order < 2 {
		return next
	}
	next.Words[0] = word
	copy(next.Words[1:], state.Words[:hist])
	length := hist + 1
	if length > m.order-1 {
		length = m.order - 1
	}
	for length > 0 {
		if _, ok := m.entries[contextKey(&next, length, 0, false)]; ok {
			break
		}
		length--
	}
	for i := length; i < len(next.Words); i++ {
		next.Words[i] = 0
	}
	next.Length = uint8(length)
	return next
}

// Words returns the history words of state, most recent first.
func (m *NGramModel) Words(state State) []WordID {
	return state.Words[:]
}

// ContextLength returns the number of valid words in state.
func (m *NGramModel) ContextLength(state State) int {
	return int(state.Length)
}

// SentenceLogProb returns the total log10 probability of a word sequence,
// scored from <s> and including </s>.
func (m *NGramModel) SentenceLogProb(words []string) float64 {
	total := 0.0
	st := m.BeginSentenceState()
	var lp float64
	for _, w := range words {
		lp, st = m.Score(st, m.vocab.Convert(w))
		total += lp
	}
	lp, _ = m.Score(st, EndSentenceID)
	return total + lp
}
