package exclusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annolab/vidmark/internal/domain/stimulus"
)

func TestRegistryIsExcluded(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("00001", "00003")

	assert.True(t, reg.IsExcluded("00001"))
	assert.True(t, reg.IsExcluded("00003"))
	assert.False(t, reg.IsExcluded("00000"))
	assert.False(t, reg.IsExcluded("00002"))
}

func TestRegistryNilIsEmpty(t *testing.T) {
	t.Parallel()

	var reg *Registry

	assert.False(t, reg.IsExcluded("00000"))
	assert.Equal(t, 0, reg.Len())
	assert.Nil(t, reg.IDs())
}

func TestRegistryCollapsesDuplicates(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("00002", "00002", "00002")
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryIDsSorted(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("00009", "00001", "00004")
	assert.Equal(t, []stimulus.ID{"00001", "00004", "00009"}, reg.IDs())
}
