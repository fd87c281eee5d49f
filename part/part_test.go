package part

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAreaDefaultsKToSqrtN(t *testing.T) {
	a, err := NewArea(AreaConfig{N: 1000, Beta: 0.1})
	require.NoError(t, err)
	assert.Equal(t, 31, a.K())
}

func TestNewAreaRejectsInvalidParameters(t *testing.T) {
	_, err := NewArea(AreaConfig{N: 0, Beta: 0.1})
	assert.ErrorContains(t, err, "invalid parameter")

	_, err = NewArea(AreaConfig{N: 10, K: 11, Beta: 0.1})
	assert.ErrorContains(t, err, "invalid parameter")

	_, err = NewArea(AreaConfig{N: 10, K: 5, Beta: -1})
	assert.ErrorContains(t, err, "invalid parameter")
}

func TestNewAreaKEqualsNIsAllowed(t *testing.T) {
	a, err := NewArea(AreaConfig{N: 10, K: 10, Beta: 0})
	require.NoError(t, err)
	assert.Equal(t, 10, a.K())
	assert.Equal(t, 10, a.Size())
}

func TestAreaIdentityIsStableAndUnique(t *testing.T) {
	a1, err := NewArea(AreaConfig{N: 10, Beta: 0})
	require.NoError(t, err)
	a2, err := NewArea(AreaConfig{N: 10, Beta: 0})
	require.NoError(t, err)

	assert.True(t, a1.ID().Equal(a1.ID()))
	assert.False(t, a1.ID().Equal(a2.ID()))
}

func TestNewStimulusRejectsInvalidParameters(t *testing.T) {
	_, err := NewStimulus(StimulusConfig{N: 0})
	assert.ErrorContains(t, err, "invalid parameter")

	_, err = NewStimulus(StimulusConfig{N: 10, Beta: -0.5})
	assert.ErrorContains(t, err, "invalid parameter")
}

func TestStimulusHasNoWinnersConcept(t *testing.T) {
	s, err := NewStimulus(StimulusConfig{N: 50, Beta: 0.2})
	require.NoError(t, err)
	assert.Equal(t, KindStimulus, s.Kind())
	assert.Equal(t, 50, s.Size())
}
