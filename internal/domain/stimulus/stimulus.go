// Package stimulus defines stimulus identifiers and the ordered sequences
// annotators walk through. Identifiers are opaque but carry a canonical
// string form so values read from URLs, stored records, and task definitions
// compare equal after normalization.
package stimulus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// idWidth is the zero-padded width of numeric identifiers.
const idWidth = 5

// ID is the canonical identifier of a single stimulus within a task.
type ID string

// ErrDuplicateIdentifier indicates a sequence was constructed with the same
// identifier appearing more than once.
var ErrDuplicateIdentifier = errors.New("duplicate stimulus identifier")

// FromIndex returns the canonical identifier for a position in a task's
// media listing.
func FromIndex(i int) ID {
	return ID(fmt.Sprintf("%0*d", idWidth, i))
}

// Normalize converts a raw textual identifier into its canonical form.
// Numeric values are re-padded to the canonical width so "3", "003" and
// "00003" all compare equal; non-numeric identifiers pass through trimmed.
func Normalize(raw string) ID {
	s := strings.TrimSpace(raw)

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return ID(s)
	}

	return FromIndex(n)
}

// Ref binds an identifier to the media file backing it.
type Ref struct {
	ID   ID
	Path string
}

// Sequence is the immutable ordered list of identifiers for one task.
// Construction rejects duplicates; after that the sequence is read-only and
// safe for concurrent use.
type Sequence struct {
	ids   []ID
	index map[ID]int
}

// NewSequence builds a sequence from identifiers in presentation order.
func NewSequence(ids []ID) (*Sequence, error) {
	index := make(map[ID]int, len(ids))
	ordered := make([]ID, len(ids))

	for i, id := range ids {
		if _, exists := index[id]; exists {
			return nil, fmt.Errorf("%w: %s at position %d", ErrDuplicateIdentifier, id, i)
		}
		index[id] = i
		ordered[i] = id
	}

	return &Sequence{ids: ordered, index: index}, nil
}

// Len returns the number of identifiers in the sequence.
func (s *Sequence) Len() int { return len(s.ids) }

// IDs returns the identifiers in presentation order. Callers must not
// modify the returned slice.
func (s *Sequence) IDs() []ID { return s.ids }

// IndexOf returns the position of id within the sequence.
func (s *Sequence) IndexOf(id ID) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// At returns the identifier at position i.
func (s *Sequence) At(i int) (ID, bool) {
	if i < 0 || i >= len(s.ids) {
		return "", false
	}
	return s.ids[i], true
}

// Contains reports whether id is part of the sequence.
func (s *Sequence) Contains(id ID) bool {
	_, ok := s.index[id]
	return ok
}
