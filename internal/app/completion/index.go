// Package completion derives, on demand, the set of stimuli already
// answered for a scope: one annotator, or everyone. The index is never
// cached; every query re-reads the result store so navigation always sees
// the latest writes.
package completion

import (
	"context"
	"errors"

	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/internal/infra/storage/resultstore"
	"github.com/annolab/vidmark/pkg/common/logger"
)

// Scope selects whose answers count as "completed".
type Scope string

const (
	// ScopeYou counts only the requesting annotator's answers.
	ScopeYou Scope = "you"

	// ScopeAny counts answers from every annotator.
	ScopeAny Scope = "any"
)

// ParseScope maps a raw query value onto a scope, defaulting to ScopeYou.
func ParseScope(raw string) Scope {
	if Scope(raw) == ScopeAny {
		return ScopeAny
	}
	return ScopeYou
}

// ResultSource is the slice of the result store the index reads.
type ResultSource interface {
	Read(ctx context.Context, annotator, taskName string) ([]string, error)
	ListAnnotators(ctx context.Context) ([]string, error)
}

// Index computes completion sets from a result source.
type Index struct {
	source ResultSource
	logger *logger.Logger
}

// NewIndex creates an index over the given source.
func NewIndex(source ResultSource, log *logger.Logger) *Index {
	return &Index{
		source: source,
		logger: log.With("component", "completion_index"),
	}
}

// Completed returns the set of identifiers recorded for the scope. Every
// stored value is normalized to canonical form before insertion so records
// written in drifting textual forms still match the sequence. A malformed
// record file costs a warning and its contents, never the query: navigation
// would rather under-report completion than crash.
func (ix *Index) Completed(ctx context.Context, taskName string, scope Scope, annotator string) (map[stimulus.ID]struct{}, error) {
	annotators := []string{annotator}

	if scope == ScopeAny {
		all, err := ix.source.ListAnnotators(ctx)
		if err != nil {
			return nil, err
		}
		annotators = all
	}

	done := make(map[stimulus.ID]struct{})

	for _, name := range annotators {
		raw, err := ix.source.Read(ctx, name, taskName)
		if err != nil {
			if errors.Is(err, resultstore.ErrNoRecords) {
				continue
			}
			ix.logger.Warn(ctx, "skipping unreadable record file",
				"annotator", name, "task", taskName, "error", err)
			continue
		}

		for _, v := range raw {
			done[stimulus.Normalize(v)] = struct{}{}
		}
	}

	return done, nil
}
