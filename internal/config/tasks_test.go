package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/internal/domain/task"
)

func writeMedia(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o640))
	}
}

func TestTaskSpecBuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMedia(t, dir, "clip_b.mp4", "clip_a.mp4", "clip_c.mp4", "notes.txt")

	tf := TasksFile{Tasks: []TaskSpec{{
		Name:     "clips",
		Title:    "Clip review",
		MediaDir: dir,
		Fields: []FieldSpec{
			{Kind: "single-choice", Label: "Verdict", Required: true, Choices: []string{"keep", "drop"}},
		},
	}}}

	tasks, err := tf.Build()
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	tk := tasks[0]
	assert.Equal(t, "clips", tk.Name)
	assert.Equal(t, 3, tk.Sequence.Len())

	// Identifiers are positional over the name-sorted listing, so clip_a
	// comes first regardless of directory order.
	ref, ok := tk.Ref(stimulus.FromIndex(0))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "clip_a.mp4"), ref.Path)

	require.Len(t, tk.Fields, 1)
	assert.Equal(t, task.SingleChoice, tk.Fields[0].Kind)
}

func TestTaskSpecBuildCustomPattern(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMedia(t, dir, "a.webm", "b.webm", "c.mp4")

	tf := TasksFile{Tasks: []TaskSpec{{
		Name:     "clips",
		MediaDir: dir,
		Pattern:  "*.webm",
	}}}

	tasks, err := tf.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, tasks[0].Sequence.Len())
}

func TestTaskSpecBuildMissingDir(t *testing.T) {
	t.Parallel()

	tf := TasksFile{Tasks: []TaskSpec{{
		Name:     "clips",
		MediaDir: filepath.Join(t.TempDir(), "absent"),
	}}}

	_, err := tf.Build()
	assert.Error(t, err)
}

func TestTaskSpecBuildBadField(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMedia(t, dir, "a.mp4")

	tf := TasksFile{Tasks: []TaskSpec{{
		Name:     "clips",
		MediaDir: dir,
		Fields:   []FieldSpec{{Kind: "dial", Label: "Rating"}},
	}}}

	_, err := tf.Build()
	assert.Error(t, err)
}
