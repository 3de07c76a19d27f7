package completion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/internal/infra/storage/resultstore"
	"github.com/annolab/vidmark/pkg/common/logger"
)

// fakeSource serves scripted record values per (annotator, task) pair.
type fakeSource struct {
	records map[string][]string // keyed by annotator
	broken  map[string]struct{} // annotators whose files fail to parse
}

func (f *fakeSource) Read(ctx context.Context, annotator, taskName string) ([]string, error) {
	if _, ok := f.broken[annotator]; ok {
		return nil, fmt.Errorf("parsing record file: bad quoting")
	}
	vals, ok := f.records[annotator]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", resultstore.ErrNoRecords, annotator, taskName)
	}
	return vals, nil
}

func (f *fakeSource) ListAnnotators(ctx context.Context) ([]string, error) {
	var names []string
	for name := range f.records {
		names = append(names, name)
	}
	for name := range f.broken {
		names = append(names, name)
	}
	return names, nil
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ScopeAny, ParseScope("any"))
	assert.Equal(t, ScopeYou, ParseScope("you"))
	assert.Equal(t, ScopeYou, ParseScope(""))
	assert.Equal(t, ScopeYou, ParseScope("everyone"))
}

func TestCompletedScopeYou(t *testing.T) {
	t.Parallel()

	ix := NewIndex(&fakeSource{records: map[string][]string{
		"alice": {"00000", "00002"},
		"bob":   {"00001"},
	}}, logger.Noop())

	done, err := ix.Completed(context.Background(), "clips", ScopeYou, "alice")
	require.NoError(t, err)

	assert.Contains(t, done, stimulus.ID("00000"))
	assert.Contains(t, done, stimulus.ID("00002"))
	assert.NotContains(t, done, stimulus.ID("00001"))
}

func TestCompletedScopeAny(t *testing.T) {
	t.Parallel()

	ix := NewIndex(&fakeSource{records: map[string][]string{
		"alice": {"00000"},
		"bob":   {"00001"},
	}}, logger.Noop())

	done, err := ix.Completed(context.Background(), "clips", ScopeAny, "alice")
	require.NoError(t, err)

	assert.Len(t, done, 2)
	assert.Contains(t, done, stimulus.ID("00000"))
	assert.Contains(t, done, stimulus.ID("00001"))
}

// Stored values may carry drifted textual forms; the index canonicalizes
// them before membership checks.
func TestCompletedNormalizesStoredValues(t *testing.T) {
	t.Parallel()

	ix := NewIndex(&fakeSource{records: map[string][]string{
		"alice": {"3", "003", " 12 "},
	}}, logger.Noop())

	done, err := ix.Completed(context.Background(), "clips", ScopeYou, "alice")
	require.NoError(t, err)

	assert.Len(t, done, 2)
	assert.Contains(t, done, stimulus.ID("00003"))
	assert.Contains(t, done, stimulus.ID("00012"))
}

func TestCompletedUnknownAnnotatorIsEmpty(t *testing.T) {
	t.Parallel()

	ix := NewIndex(&fakeSource{records: map[string][]string{}}, logger.Noop())

	done, err := ix.Completed(context.Background(), "clips", ScopeYou, "nobody")
	require.NoError(t, err)
	assert.Empty(t, done)
}

// One unreadable record file must not poison the whole query.
func TestCompletedSkipsMalformedFiles(t *testing.T) {
	t.Parallel()

	ix := NewIndex(&fakeSource{
		records: map[string][]string{"alice": {"00000"}},
		broken:  map[string]struct{}{"mallory": {}},
	}, logger.Noop())

	done, err := ix.Completed(context.Background(), "clips", ScopeAny, "alice")
	require.NoError(t, err)

	assert.Len(t, done, 1)
	assert.Contains(t, done, stimulus.ID("00000"))
}

// The source surfacing a hard error on ListAnnotators is the one failure
// the index cannot absorb.
func TestCompletedListFailure(t *testing.T) {
	t.Parallel()

	ix := NewIndex(failingList{}, logger.Noop())

	_, err := ix.Completed(context.Background(), "clips", ScopeAny, "alice")
	assert.Error(t, err)
}

type failingList struct{}

func (failingList) Read(ctx context.Context, annotator, taskName string) ([]string, error) {
	return nil, errors.New("unreachable")
}

func (failingList) ListAnnotators(ctx context.Context) ([]string, error) {
	return nil, errors.New("results root unreadable")
}
