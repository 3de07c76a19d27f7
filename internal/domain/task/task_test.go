package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab/vidmark/internal/domain/stimulus"
)

func testRefs(n int) []stimulus.Ref {
	refs := make([]stimulus.Ref, n)
	for i := range refs {
		refs[i] = stimulus.Ref{ID: stimulus.FromIndex(i), Path: "clip.mp4"}
	}
	return refs
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		taskName string
		fields   []Field
		refs     []stimulus.Ref
		wantErr  bool
	}{
		{
			name:     "valid task",
			taskName: "emotions",
			fields: []Field{
				{Kind: SingleChoice, Label: "Mood", Required: true, Choices: []string{"happy", "sad"}},
				{Kind: FreeText, Label: "Comment"},
			},
			refs: testRefs(3),
		},
		{
			name:     "empty name",
			taskName: "",
			refs:     testRefs(1),
			wantErr:  true,
		},
		{
			name:     "field without label",
			taskName: "emotions",
			fields:   []Field{{Kind: FreeText}},
			refs:     testRefs(1),
			wantErr:  true,
		},
		{
			name:     "choice field without choices",
			taskName: "emotions",
			fields:   []Field{{Kind: MultiChoice, Label: "Tags"}},
			refs:     testRefs(1),
			wantErr:  true,
		},
		{
			name:     "unknown field kind",
			taskName: "emotions",
			fields:   []Field{{Kind: "slider", Label: "Rating"}},
			refs:     testRefs(1),
			wantErr:  true,
		},
		{
			name:     "duplicate stimulus reference",
			taskName: "emotions",
			refs: []stimulus.Ref{
				{ID: "00000", Path: "a.mp4"},
				{ID: "00000", Path: "b.mp4"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tk, err := New(tt.taskName, "Title", tt.fields, tt.refs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.refs), tk.Sequence.Len())
		})
	}
}

func TestTaskRefs(t *testing.T) {
	t.Parallel()

	refs := []stimulus.Ref{
		{ID: "00000", Path: "a.mp4"},
		{ID: "00001", Path: "b.mp4"},
	}
	tk, err := New("clips", "Clips", nil, refs)
	require.NoError(t, err)

	assert.Equal(t, refs, tk.Refs())

	ref, ok := tk.Ref("00001")
	require.True(t, ok)
	assert.Equal(t, "b.mp4", ref.Path)

	_, ok = tk.Ref("00009")
	assert.False(t, ok)
}

func TestRequiredFields(t *testing.T) {
	t.Parallel()

	tk, err := New("clips", "Clips", []Field{
		{Kind: FreeText, Label: "Optional note"},
		{Kind: SingleChoice, Label: "Verdict", Required: true, Choices: []string{"yes", "no"}},
	}, testRefs(1))
	require.NoError(t, err)

	req := tk.RequiredFields()
	require.Len(t, req, 1)
	assert.Equal(t, "Verdict", req[0].Label)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	a, err := New("alpha", "Alpha", nil, testRefs(1))
	require.NoError(t, err)
	b, err := New("beta", "Beta", nil, testRefs(1))
	require.NoError(t, err)

	reg, err := NewRegistry(a, b)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta"}, reg.Names())

	got, err := reg.Get("beta")
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = reg.Get("gamma")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	a, err := New("alpha", "Alpha", nil, testRefs(1))
	require.NoError(t, err)
	dup, err := New("alpha", "Alpha again", nil, testRefs(1))
	require.NoError(t, err)

	_, err = NewRegistry(a, dup)
	assert.Error(t, err)
}
