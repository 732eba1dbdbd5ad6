package compose

import (
	"fmt"

	"github.com/ieee0824/applylm-go/language"
)

// Buffer is a language model history normalized to a fixed length: the valid
// words of a context state, most recent first, followed by zeros. Two states
// with equal buffers are interchangeable for the rest of a lattice.
type Buffer [language.MaxOrder - 1]language.WordID

// ContextID is the interned id of a Buffer. Ids start at 1.
type ContextID uint64

// NewBuffer copies the first length entries of words into a Buffer for a
// model of the given order.
func NewBuffer(words []language.WordID, length, order int) (Buffer, error) {
	var b Buffer
	if order < 1 || order > language.MaxOrder {
		return b, fmt.Errorf("%w: model order %d outside 1..%d", ErrContractViolation, order, language.MaxOrder)
	}
	if length < 0 || length > order-1 {
		return b, fmt.Errorf("%w: context length %d exceeds order-1 = %d", ErrContractViolation, length, order-1)
	}
	if length > len(words) {
		return b, fmt.Errorf("%w: context length %d but state holds %d words", ErrContractViolation, length, len(words))
	}
	copy(b[:], words[:length])
	return b, nil
}

// Index interns history buffers. The zero value is not usable; call
// NewIndex.
type Index struct {
	ids  map[Buffer]ContextID
	last ContextID
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{ids: make(map[Buffer]ContextID)}
}

// ID returns the id of b, assigning the next one if b is new.
func (x *Index) ID(b Buffer) ContextID {
	if id, ok := x.ids[b]; ok {
		return id
	}
	x.last++
	x.ids[b] = x.last
	return x.last
}

// Len returns the number of distinct buffers seen.
func (x *Index) Len() int {
	return len(x.ids)
}

// Reset forgets every buffer and restarts numbering at 1.
func (x *Index) Reset() {
	clear(x.ids)
	x.last = 0
}
