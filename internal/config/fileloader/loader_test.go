package fileloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoaderLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tasks:
  - name: clips
    title: Clip review
    media_dir: /data/clips
    fields:
      - kind: single-choice
        label: Verdict
        required: true
        choices: [keep, drop]
      - kind: free-text
        label: Comment
        placeholder: anything notable
`), 0o640))

	tf, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, tf.Tasks, 1)
	spec := tf.Tasks[0]
	assert.Equal(t, "clips", spec.Name)
	assert.Equal(t, "/data/clips", spec.MediaDir)
	require.Len(t, spec.Fields, 2)
	assert.Equal(t, []string{"keep", "drop"}, spec.Fields[0].Choices)
	assert.True(t, spec.Fields[0].Required)
}

func TestFileLoaderMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewFileLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load(context.Background())
	assert.Error(t, err)
}

func TestFileLoaderBadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tasks: [unclosed"), 0o640))

	_, err := NewFileLoader(path).Load(context.Background())
	assert.Error(t, err)
}
