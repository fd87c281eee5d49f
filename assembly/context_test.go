package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guyde2011/assemblies/brain"
)

func TestBindBrainEnterExitRoundTripLeavesStateUnchanged(t *testing.T) {
	before := Current()

	b, err := brain.New(0.1, 1, 1)
	require.NoError(t, err)
	scope := BindBrain(b)
	assert.Same(t, b, Current().Brain)
	require.NoError(t, scope.Exit())

	after := Current()
	assert.Equal(t, before, after)
}

func TestNestedScopesInheritUnsetFields(t *testing.T) {
	b, err := brain.New(0.1, 1, 1)
	require.NoError(t, err)
	outer := BindBrain(b)
	defer outer.Exit()

	rec := NewRecording()
	inner := BindRecording(rec)
	assert.Same(t, b, Current().Brain, "inner scope should inherit the outer brain")
	assert.Same(t, rec, Current().Recording)
	require.NoError(t, inner.Exit())

	assert.Same(t, b, Current().Brain)
	assert.Nil(t, Current().Recording)
}

func TestExitOutOfLIFOOrderFails(t *testing.T) {
	b, err := brain.New(0.1, 1, 1)
	require.NoError(t, err)
	outer := BindBrain(b)
	inner := BindBrain(b)

	err = outer.Exit()
	assert.ErrorContains(t, err, "scope")

	// Restore a clean stack in the correct order so later tests in this
	// package don't observe a leftover scope.
	require.NoError(t, inner.Exit())
	require.NoError(t, outer.Exit())
}
