package language

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ieee0824/applylm-go/internal/mathutil"
)

// Builder accumulates sentences and builds an N-gram language model.
type Builder struct {
	order  int
	counts []map[string]int // counts[k] holds (k+1)-grams, words joined by " "
}

// NewBuilder creates a new N-gram builder. order is clamped to 2..MaxOrder.
func NewBuilder(order int) *Builder {
	if order < 2 {
		order = 2
	}
	if order > MaxOrder {
		order = MaxOrder
	}
	b := &Builder{order: order, counts: make([]map[string]int, order)}
	for i := range b.counts {
		b.counts[i] = make(map[string]int)
	}
	return b
}

// Order returns the n-gram order the builder was created with.
func (b *Builder) Order() int { return b.order }

// AddSentence adds a tokenized sentence. <s> and </s> are added automatically.
// Words must not contain spaces.
func (b *Builder) AddSentence(words []string) {
	if len(words) == 0 {
		return
	}
	seq := make([]string, 0, len(words)+2)
	seq = append(seq, BeginSentenceWord)
	seq = append(seq, words...)
	seq = append(seq, EndSentenceWord)

	for i := range seq {
		for n := 1; n <= b.order && n <= i+1; n++ {
			b.counts[n-1][strings.Join(seq[i-n+1:i+1], " ")]++
		}
	}
}

// splitLast separates an n-gram key into its context and final word.
func splitLast(key string) (string, string) {
	i := strings.LastIndexByte(key, ' ')
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}

// dropFirst removes the oldest word of a context.
func dropFirst(ctx string) string {
	i := strings.IndexByte(ctx, ' ')
	if i < 0 {
		return ""
	}
	return ctx[i+1:]
}

// wbTables holds Witten-Bell probabilities and backoff weights in the
// linear domain, indexed by n-gram order minus one.
type wbTables struct {
	prob    []map[string]float64
	backoff []map[string]float64
}

// probBO is the backoff probability of word after ctx under the tables built
// so far.
func (t *wbTables) probBO(ctx, word string) float64 {
	if ctx == "" {
		return t.prob[0][word]
	}
	n := strings.Count(ctx, " ") + 2
	if p, ok := t.prob[n-1][ctx+" "+word]; ok {
		return p
	}
	bo, ok := t.backoff[n-2][ctx]
	if !ok {
		bo = 1
	}
	return bo * t.probBO(dropFirst(ctx), word)
}

func (b *Builder) estimate() *wbTables {
	t := &wbTables{
		prob:    make([]map[string]float64, b.order),
		backoff: make([]map[string]float64, b.order),
	}

	uniTotal := 0
	for _, c := range b.counts[0] {
		uniTotal += c
	}
	t.prob[0] = make(map[string]float64, len(b.counts[0]))
	for w, c := range b.counts[0] {
		t.prob[0][w] = float64(c) / float64(uniTotal)
	}

	// Witten-Bell: P(w|h) = C(h,w) / (N(h) + T(h)) where N(h) is the number
	// of tokens and T(h) the number of types following h.
	for n := 2; n <= b.order; n++ {
		total := make(map[string]int)
		types := make(map[string]int)
		for key, c := range b.counts[n-1] {
			ctx, _ := splitLast(key)
			total[ctx] += c
			types[ctx]++
		}
		t.prob[n-1] = make(map[string]float64, len(b.counts[n-1]))
		for key, c := range b.counts[n-1] {
			ctx, _ := splitLast(key)
			t.prob[n-1][key] = float64(c) / float64(total[ctx]+types[ctx])
		}
	}

	// bow(h) = (1 - sum of P(w|h) over seen w) / (1 - sum of P_bo(w|h') over
	// the same w), h' being h without its oldest word. Lower orders first so
	// that P_bo can use the weights already computed.
	for n := 1; n < b.order; n++ {
		seenHigh := make(map[string]float64)
		seenLow := make(map[string]float64)
		for key, p := range t.prob[n] {
			ctx, w := splitLast(key)
			seenHigh[ctx] += p
			seenLow[ctx] += t.probBO(dropFirst(ctx), w)
		}
		t.backoff[n-1] = make(map[string]float64)
		for ctx, high := range seenHigh {
			low := seenLow[ctx]
			if low >= 1.0 || high >= 1.0 {
				continue
			}
			t.backoff[n-1][ctx] = (1.0 - high) / (1.0 - low)
		}
	}
	return t
}

// WriteARPA writes the model in ARPA format (log10 probabilities) to w.
// Uses Witten-Bell smoothing.
func (b *Builder) WriteARPA(w io.Writer) error {
	if len(b.counts[0]) == 0 {
		return fmt.Errorf("no sentences added")
	}
	t := b.estimate()

	keys := make([][]string, b.order)
	for n := 1; n <= b.order; n++ {
		for key := range t.prob[n-1] {
			keys[n-1] = append(keys[n-1], key)
		}
		sort.Strings(keys[n-1])
	}

	fmt.Fprintln(w, "\\data\\")
	for n := 1; n <= b.order; n++ {
		if len(keys[n-1]) > 0 {
			fmt.Fprintf(w, "ngram %d=%d\n", n, len(keys[n-1]))
		}
	}
	fmt.Fprintln(w)

	for n := 1; n <= b.order; n++ {
		if len(keys[n-1]) == 0 {
			continue
		}
		fmt.Fprintf(w, "\\%d-grams:\n", n)
		for _, key := range keys[n-1] {
			lp := max(math.Log10(t.prob[n-1][key]), mathutil.LogZero)
			if n < b.order {
				if bo, ok := t.backoff[n-1][key]; ok && bo > 0 && bo != 1 {
					fmt.Fprintf(w, "%.6f\t%s\t%.6f\n", lp, key, math.Log10(bo))
					continue
				}
			}
			fmt.Fprintf(w, "%.6f\t%s\n", lp, key)
		}
		fmt.Fprintln(w)
	}

	_, err := fmt.Fprintln(w, "\\end\\")
	return err
}
