package affytools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryFirstSeenOrder(t *testing.T) {

	reg := NewRegistry("individual", 0)

	for i, label := range []string{"P1", "P2", "P3"} {
		id, isNew := reg.Register(label)
		require.True(t, isNew)
		assert.Equal(t, i, id)
	}

	// repeated labels keep their identifiers
	id, isNew := reg.Register("P2")
	assert.False(t, isNew)
	assert.Equal(t, 1, id)

	id, isNew = reg.Register("P1")
	assert.False(t, isNew)
	assert.Equal(t, 0, id)

	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"P1", "P2", "P3"}, reg.Labels())
	assert.Equal(t, "individual", reg.Name())
}

func TestRegistryBijection(t *testing.T) {

	reg := NewRegistry("marker", 4)

	labels := []string{"rs1", "rs2", "rs1", "SNP_A-1", "rs2", "rs3"}
	for _, label := range labels {
		reg.Register(label)
	}

	for _, label := range labels {
		id, ok := reg.Lookup(label)
		require.True(t, ok)
		assert.Equal(t, label, reg.Label(id))
	}

	for id := 0; id < reg.Len(); id++ {
		found, ok := reg.Lookup(reg.Label(id))
		require.True(t, ok)
		assert.Equal(t, id, found)
	}
}

func TestRegistryCaseSensitive(t *testing.T) {

	reg := NewRegistry("genotype", 0)

	aa, _ := reg.Register("AA")
	lower, isNew := reg.Register("aa")

	assert.True(t, isNew)
	assert.NotEqual(t, aa, lower)
}

func TestRegistryUnknown(t *testing.T) {

	reg := NewRegistry("marker", -1)

	_, ok := reg.Lookup("rs1")
	assert.False(t, ok)
	assert.Equal(t, "", reg.Label(0))
	assert.Equal(t, "", reg.Label(-1))

	// returned labels are a copy
	reg.Register("rs1")
	labels := reg.Labels()
	labels[0] = "changed"
	assert.Equal(t, "rs1", reg.Label(0))
}
