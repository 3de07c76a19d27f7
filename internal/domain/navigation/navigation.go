// Package navigation decides which stimulus an annotator should see next,
// given a task's sequence, the process-wide exclusion registry, and
// (optionally) the set of already-answered identifiers. All queries are
// pure functions of their inputs; exhaustion is a value, not an error.
package navigation

import (
	"github.com/annolab/vidmark/internal/domain/exclusion"
	"github.com/annolab/vidmark/internal/domain/stimulus"
)

// Direction selects which way Step walks the sequence.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Outcome classifies the result of a Step query.
type Outcome int

const (
	// Found means a valid identifier was located in the requested direction.
	Found Outcome = iota

	// StayOnCurrent means no valid identifier exists in the requested
	// direction but the starting identifier itself is still presentable.
	// Callers keep the annotator where they are rather than erroring.
	StayOnCurrent

	// NotFound means the walk exhausted the sequence and not even the
	// starting identifier can be presented.
	NotFound
)

// StepResult is the outcome of a Step query. ID is meaningful for Found and
// StayOnCurrent.
type StepResult struct {
	Outcome Outcome
	ID      stimulus.ID
}

// FirstValid returns the first identifier in sequence order that is not
// excluded. The second return is false when every identifier is excluded.
func FirstValid(seq *stimulus.Sequence, excl *exclusion.Registry) (stimulus.ID, bool) {
	for _, id := range seq.IDs() {
		if !excl.IsExcluded(id) {
			return id, true
		}
	}
	return "", false
}

// Step walks one identifier at a time from the position of `from` in the
// given direction, skipping exclusions, without wraparound.
//
// When `from` is not part of the sequence the walk starts just outside the
// boundary appropriate to the direction: one-before-start going forward,
// one-past-end going backward.
func Step(seq *stimulus.Sequence, excl *exclusion.Registry, from stimulus.ID, dir Direction) StepResult {
	start, ok := seq.IndexOf(from)
	if !ok {
		if dir == Forward {
			start = -1
		} else {
			start = seq.Len()
		}
	}

	delta := 1
	if dir == Backward {
		delta = -1
	}

	for i := start + delta; ; i += delta {
		id, inRange := seq.At(i)
		if !inRange {
			break
		}
		if !excl.IsExcluded(id) {
			return StepResult{Outcome: Found, ID: id}
		}
	}

	if ok && !excl.IsExcluded(from) {
		return StepResult{Outcome: StayOnCurrent, ID: from}
	}

	return StepResult{Outcome: NotFound}
}

// NextUnfilled scans forward from the position of `from` (inclusive) to the
// end of the sequence for the first identifier that is neither excluded nor
// in `completed`, wrapping around to scan from the start up to (not
// including) the starting position. Unknown `from` starts the scan at 0.
// The second return is false only when every identifier is excluded or
// completed.
func NextUnfilled(
	seq *stimulus.Sequence,
	excl *exclusion.Registry,
	completed map[stimulus.ID]struct{},
	from stimulus.ID,
) (stimulus.ID, bool) {
	start, ok := seq.IndexOf(from)
	if !ok {
		start = 0
	}

	n := seq.Len()
	for offset := 0; offset < n; offset++ {
		id, _ := seq.At((start + offset) % n)
		if excl.IsExcluded(id) {
			continue
		}
		if _, done := completed[id]; done {
			continue
		}
		return id, true
	}

	return "", false
}

// Resolve applies the direct-lookup policy: an excluded identifier requested
// directly (e.g. via URL) is never presented; the annotator is redirected
// forward to the next valid identifier instead. A valid identifier resolves
// to itself. The second return is false when nothing after `id` is valid.
func Resolve(seq *stimulus.Sequence, excl *exclusion.Registry, id stimulus.ID) (stimulus.ID, bool) {
	if seq.Contains(id) && !excl.IsExcluded(id) {
		return id, true
	}

	res := Step(seq, excl, id, Forward)
	if res.Outcome == Found {
		return res.ID, true
	}

	return "", false
}
