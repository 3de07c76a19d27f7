package resultstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/internal/domain/task"
)

func testTask(t *testing.T) *task.Task {
	t.Helper()

	tk, err := task.New("clips", "Clips", []task.Field{
		{Kind: task.SingleChoice, Label: "Mood", Required: true, Choices: []string{"happy", "sad"}},
		{Kind: task.FreeText, Label: "Comment"},
	}, []stimulus.Ref{
		{ID: "00000", Path: "a.mp4"},
		{ID: "00001", Path: "b.mp4"},
	})
	require.NoError(t, err)
	return tk
}

func testRecord(id stimulus.ID) Record {
	return Record{
		Annotator:   "alice",
		StimulusID:  id,
		RecordID:    uuid.NewString(),
		SubmittedAt: time.Now(),
		Values:      map[string]string{"Mood": "happy"},
		Notes:       "clear case",
	}
}

func TestAppendAndRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewStore(t.TempDir())
	tk := testTask(t)

	require.NoError(t, store.Append(ctx, tk, testRecord("00000")))
	require.NoError(t, store.Append(ctx, tk, testRecord("00001")))

	ids, err := store.Read(ctx, "alice", "clips")
	require.NoError(t, err)
	assert.Equal(t, []string{"00000", "00001"}, ids)
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	store := NewStore(root)
	tk := testTask(t)

	require.NoError(t, store.Append(ctx, tk, testRecord("00000")))
	require.NoError(t, store.Append(ctx, tk, testRecord("00001")))

	data, err := os.ReadFile(filepath.Join(root, "alice", "clips.csv"))
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(string(data), "stimulus_id"))
	assert.Contains(t, string(data), "Mood,Comment,notes,unsure")
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	_, err := store.Read(context.Background(), "nobody", "clips")
	assert.ErrorIs(t, err, ErrNoRecords)
}

// Files written before the header convention was adopted have no header
// row; every row is then treated as data with the identifier in column 0.
func TestReadHeaderlessFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "bob")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "clips.csv"),
		[]byte("3,old-record,2024-01-01\n12,old-record,2024-01-02\n"),
		0o640,
	))

	ids, err := NewStore(root).Read(context.Background(), "bob", "clips")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "12"}, ids)
}

func TestListAnnotators(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	store := NewStore(root)
	tk := testTask(t)

	rec := testRecord("00000")
	require.NoError(t, store.Append(ctx, tk, rec))

	rec.Annotator = "carol"
	require.NoError(t, store.Append(ctx, tk, rec))

	names, err := store.ListAnnotators(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "carol"}, names)
}

func TestListAnnotatorsMissingRoot(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "never-created"))

	names, err := store.ListAnnotators(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
