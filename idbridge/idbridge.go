// Package idbridge maps lattice output labels onto language model word ids.
//
// Lattices and language models number their symbols independently: a lattice
// label is an index into the decoder's wordmap, while a model word id is an
// index into the model vocabulary. A Bridge resolves every label once, up
// front, so that scoring a label is a slice lookup. Labels the model does not
// know resolve to the vocabulary's unknown-word id.
package idbridge

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ieee0824/applylm-go/fst"
	"github.com/ieee0824/applylm-go/language"
)

// Bridge is an immutable label to word-id table. It is safe for concurrent
// use.
type Bridge struct {
	ids []language.WordID
	oov language.WordID
}

// WordMap holds the surface form of each lattice label.
type WordMap map[fst.Label]string

// FromWordMap resolves each wordmap entry against vocab.
func FromWordMap(wm WordMap, vocab *language.Vocabulary) *Bridge {
	maxLabel := fst.Label(-1)
	for l := range wm {
		if l > maxLabel {
			maxLabel = l
		}
	}
	b := &Bridge{ids: make([]language.WordID, int(maxLabel)+1), oov: language.UnknownID}
	for i := range b.ids {
		b.ids[i] = language.UnknownID
	}
	for l, w := range wm {
		if l < 0 {
			continue
		}
		b.ids[l] = vocab.Convert(w)
	}
	return b
}

// Identity maps label i to word id i for i < size, and everything else to
// the unknown id. It suits lattices whose labels were written with the
// model's own vocabulary numbering.
func Identity(size int) *Bridge {
	b := &Bridge{ids: make([]language.WordID, size), oov: language.UnknownID}
	for i := range b.ids {
		b.ids[i] = language.WordID(i)
	}
	return b
}

// Map returns the word id for label.
func (b *Bridge) Map(label fst.Label) language.WordID {
	if label < 0 || int(label) >= len(b.ids) {
		return b.oov
	}
	return b.ids[label]
}

// Len returns the number of labels with an explicit mapping slot.
func (b *Bridge) Len() int {
	return len(b.ids)
}

// Known returns how many labels resolve to a word the model knows.
func (b *Bridge) Known() int {
	n := 0
	for _, id := range b.ids {
		if id != b.oov {
			n++
		}
	}
	return n
}

// LoadWordMap reads a wordmap file with one "word id" pair per line,
// separated by a tab or spaces. Blank lines and lines starting with '#' are
// skipped.
func LoadWordMap(r io.Reader) (WordMap, error) {
	wm := make(WordMap)
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected word and id, got %d fields", lineNum, len(fields))
		}
		id, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("line %d: invalid label id %q", lineNum, fields[1])
		}
		wm[fst.Label(id)] = fields[0]
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return wm, nil
}

// LoadWordMapFile is a convenience wrapper that opens a file path.
func LoadWordMapFile(path string) (WordMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadWordMap(f)
}
