package language

import (
	"sort"

	"github.com/tchap/go-patricia/v2/patricia"
)

// WordID is a model vocabulary index.
type WordID uint32

// Reserved vocabulary ids, assigned before any model word.
const (
	UnknownID       WordID = 0
	BeginSentenceID WordID = 1
	EndSentenceID   WordID = 2
)

// Reserved surface forms.
const (
	UnknownWord       = "<unk>"
	BeginSentenceWord = "<s>"
	EndSentenceWord   = "</s>"
)

// Vocabulary maps surface forms to dense word ids. It is filled while a model
// loads and is read-only afterwards, so it can be shared across goroutines.
type Vocabulary struct {
	trie  *patricia.Trie
	words []string
}

// NewVocabulary creates a vocabulary holding only the reserved words.
func NewVocabulary() *Vocabulary {
	v := &Vocabulary{trie: patricia.NewTrie()}
	v.Add(UnknownWord)
	v.Add(BeginSentenceWord)
	v.Add(EndSentenceWord)
	return v
}

// Add inserts word if it is new and returns its id. The empty string maps
// to UnknownID.
func (v *Vocabulary) Add(word string) WordID {
	if word == "" {
		return UnknownID
	}
	if item := v.trie.Get(patricia.Prefix(word)); item != nil {
		return item.(WordID)
	}
	id := WordID(len(v.words))
	v.trie.Insert(patricia.Prefix(word), id)
	v.words = append(v.words, word)
	return id
}

// Convert returns the id of word, or UnknownID if it is out of vocabulary.
func (v *Vocabulary) Convert(word string) WordID {
	if word == "" {
		return UnknownID
	}
	if item := v.trie.Get(patricia.Prefix(word)); item != nil {
		return item.(WordID)
	}
	return UnknownID
}

// Word returns the surface form of id, or "<unk>" for unknown ids.
func (v *Vocabulary) Word(id WordID) string {
	if int(id) >= len(v.words) {
		return UnknownWord
	}
	return v.words[id]
}

// Size returns the number of words including the reserved ones.
func (v *Vocabulary) Size() int {
	return len(v.words)
}

// Words returns all words in id order.
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.words))
	copy(out, v.words)
	return out
}

// WithPrefix returns the words starting with prefix in lexical order.
func (v *Vocabulary) WithPrefix(prefix string) []string {
	var out []string
	_ = v.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, _ patricia.Item) error {
		out = append(out, string(p))
		return nil
	})
	sort.Strings(out)
	return out
}
