package language

import (
	"math"
	"strings"
	"testing"
)

const testARPA = `\data\
ngram 1=4
ngram 2=3

\1-grams:
-1.0	</s>
-1.0	<s>	-0.5
-0.5	東京
-0.7	タワー	-0.3

\2-grams:
-0.3	<s>	東京
-0.4	東京	タワー
-0.2	タワー	</s>

\end\
`

const trigramARPA = `\data\
ngram 1=5
ngram 2=2
ngram 3=1

\1-grams:
-1.0	<s>	-0.2
-1.0	</s>
-0.6	a	-0.1
-0.6	b	-0.1
-0.6	c

\2-grams:
-0.3	a	b	-0.05
-0.3	<s>	a

\3-grams:
-0.1	<s>	a	b

\end\
`

func loadTestModel(t *testing.T, src string) *NGramModel {
	t.Helper()
	model, err := LoadARPA(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	return model
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-10
}

func TestLoadARPA(t *testing.T) {
	model := loadTestModel(t, testARPA)

	if model.Order() != 2 {
		t.Errorf("Order = %d, want 2", model.Order())
	}
	if n := model.NumNGrams(1); n != 4 {
		t.Errorf("NumNGrams(1) = %d, want 4", n)
	}
	if n := model.NumNGrams(2); n != 3 {
		t.Errorf("NumNGrams(2) = %d, want 3", n)
	}
	// ARPA values stay in log10
	lp, _ := model.Score(model.NullContextState(), model.Vocab().Convert("東京"))
	if !approx(lp, -0.5) {
		t.Errorf("unigram 東京 = %f, want -0.5", lp)
	}
}

func TestLoadARPAErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no data section", "hello\n"},
		{"count mismatch", "\\data\\\nngram 1=2\n\n\\1-grams:\n-1.0\ta\n\n\\end\\\n"},
		{"order too high", "\\data\\\nngram 7=1\n\\end\\\n"},
		{"bad prob", "\\data\\\nngram 1=1\n\n\\1-grams:\nx\ta\n\n\\end\\\n"},
		{"too few fields", "\\data\\\nngram 2=1\n\n\\2-grams:\n-1.0\ta\n\n\\end\\\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadARPA(strings.NewReader(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestScore_Bigram(t *testing.T) {
	model := loadTestModel(t, testARPA)
	v := model.Vocab()

	lp, next := model.Score(model.BeginSentenceState(), v.Convert("東京"))
	if !approx(lp, -0.3) {
		t.Errorf("Score(<s>, 東京) = %f, want -0.3", lp)
	}
	if next.Length != 1 || next.Words[0] != v.Convert("東京") {
		t.Errorf("next state = %+v, want [東京]", next)
	}
}

func TestScore_Backoff(t *testing.T) {
	model := loadTestModel(t, testARPA)
	v := model.Vocab()

	// No <s> タワー bigram: bow(<s>) + P(タワー)
	lp, st := model.Score(model.BeginSentenceState(), v.Convert("タワー"))
	if !approx(lp, -0.5+-0.7) {
		t.Errorf("Score(<s>, タワー) = %f, want %f", lp, -1.2)
	}

	// No タワー 東京 bigram: bow(タワー) + P(東京)
	lp, _ = model.Score(st, v.Convert("東京"))
	if !approx(lp, -0.3+-0.5) {
		t.Errorf("Score(タワー, 東京) = %f, want %f", lp, -0.8)
	}
}

func TestScore_Unknown(t *testing.T) {
	model := loadTestModel(t, testARPA)
	id := model.Vocab().Convert("大阪")
	if id != UnknownID {
		t.Fatalf("Convert(大阪) = %d, want UnknownID", id)
	}
	// The unknown word still pays the backoff of its context.
	lp, next := model.Score(model.BeginSentenceState(), id)
	if !approx(lp, UnknownLogProb+-0.5) {
		t.Errorf("Score(<s>, unknown) = %f, want %f", lp, UnknownLogProb-0.5)
	}
	if next != model.NullContextState() {
		t.Errorf("state after unknown word = %+v, want empty", next)
	}
}

func TestScore_UnknownUnigram(t *testing.T) {
	src := strings.Replace(testARPA, "ngram 1=4", "ngram 1=5", 1)
	src = strings.Replace(src, "-0.5\t東京\n", "-0.5\t東京\n-4.0\t<unk>\n", 1)
	model := loadTestModel(t, src)
	lp, _ := model.Score(model.NullContextState(), model.Vocab().Convert("大阪"))
	if !approx(lp, -4.0) {
		t.Errorf("Score(unknown) = %f, want -4", lp)
	}
}

func TestScore_StateMinimization(t *testing.T) {
	model := loadTestModel(t, trigramARPA)
	v := model.Vocab()
	a, b, c := v.Convert("a"), v.Convert("b"), v.Convert("c")

	// <s> a b c: the history "b c" is not an n-gram, so only c survives.
	st := model.BeginSentenceState()
	_, st = model.Score(st, a)
	lp, st := model.Score(st, b)
	if !approx(lp, -0.1) {
		t.Errorf("Score(<s> a, b) = %f, want -0.1", lp)
	}
	if st.Length != 2 || st.Words[0] != b || st.Words[1] != a {
		t.Errorf("state after <s> a b = %+v, want [b a]", st)
	}
	lp, long := model.Score(st, c)
	// bow(a b) + bow(b) + P(c)
	if !approx(lp, -0.05+-0.1+-0.6) {
		t.Errorf("Score(a b, c) = %f, want %f", lp, -0.75)
	}

	_, short := model.Score(model.NullContextState(), c)
	if long != short {
		t.Errorf("histories ending in c differ: %+v vs %+v", long, short)
	}
	if long.Length != 1 || long.Words[0] != c {
		t.Errorf("state = %+v, want [c]", long)
	}
}

func TestSentenceLogProb(t *testing.T) {
	model := loadTestModel(t, testARPA)

	lp := model.SentenceLogProb([]string{"東京", "タワー"})
	// P(<s>, 東京) + P(東京, タワー) + P(タワー, </s>)
	want := -0.3 + -0.4 + -0.2
	if !approx(lp, want) {
		t.Errorf("SentenceLogProb = %f, want %f", lp, want)
	}
}

func TestFixedContext(t *testing.T) {
	model := loadTestModel(t, trigramARPA)
	fixed := FixedContext[State](model)
	st := model.NullContextState()
	if got := fixed.ContextLength(st); got != 2 {
		t.Errorf("ContextLength = %d, want 2", got)
	}
	if got := model.ContextLength(st); got != 0 {
		t.Errorf("model ContextLength = %d, want 0", got)
	}
	lp1, _ := fixed.Score(st, model.Vocab().Convert("a"))
	lp2, _ := model.Score(st, model.Vocab().Convert("a"))
	if lp1 != lp2 {
		t.Errorf("wrapped Score = %f, want %f", lp1, lp2)
	}
}

func TestVocabulary(t *testing.T) {
	v := NewVocabulary()
	if v.Convert(UnknownWord) != UnknownID || v.Convert(BeginSentenceWord) != BeginSentenceID || v.Convert(EndSentenceWord) != EndSentenceID {
		t.Fatal("reserved words have wrong ids")
	}
	id := v.Add("東京")
	if id != 3 {
		t.Errorf("first word id = %d, want 3", id)
	}
	if again := v.Add("東京"); again != id {
		t.Errorf("re-adding returned %d, want %d", again, id)
	}
	v.Add("東京駅")
	v.Add("大阪")
	if v.Size() != 6 {
		t.Errorf("Size = %d, want 6", v.Size())
	}
	if v.Word(id) != "東京" {
		t.Errorf("Word(%d) = %q", id, v.Word(id))
	}
	if v.Word(99) != UnknownWord {
		t.Errorf("Word(99) = %q, want %q", v.Word(99), UnknownWord)
	}
	if v.Convert("") != UnknownID || v.Convert("名古屋") != UnknownID {
		t.Error("unknown words should map to UnknownID")
	}
	got := v.WithPrefix("東京")
	if len(got) != 2 || got[0] != "東京" || got[1] != "東京駅" {
		t.Errorf("WithPrefix = %v", got)
	}
	if words := v.Words(); len(words) != 6 || words[3] != "東京" {
		t.Errorf("Words = %v", words)
	}
}
