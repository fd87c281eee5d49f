package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guyde2011/assemblies/connectome"
	"github.com/guyde2011/assemblies/part"
)

func TestTopKSelectsLargestWithLowerIndexTieBreak(t *testing.T) {
	totals := []float32{5, 5, 3, 5, 1}
	winners, err := topK(totals, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, winners)
}

func TestTopKZeroReturnsEmpty(t *testing.T) {
	winners, err := topK([]float32{1, 2, 3}, 0)
	require.NoError(t, err)
	assert.Empty(t, winners)
}

func TestTopKRejectsOutOfRangeK(t *testing.T) {
	_, err := topK([]float32{1, 2, 3}, 5)
	assert.ErrorContains(t, err, "dimension mismatch")
	_, err = topK([]float32{1, 2, 3}, -1)
	assert.ErrorContains(t, err, "dimension mismatch")
}

func TestTopKAllEqualPicksLowestIndices(t *testing.T) {
	totals := make([]float32, 10)
	for i := range totals {
		totals[i] = 1
	}
	winners, err := topK(totals, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, winners)
}

func TestRoundStimulusDrivesWinnersAndSupport(t *testing.T) {
	stim, err := part.NewStimulus(part.StimulusConfig{N: 20, Beta: 0.1})
	require.NoError(t, err)
	area, err := part.NewArea(part.AreaConfig{N: 30, K: 5, Beta: 0.2})
	require.NoError(t, err)

	store, err := connectome.NewStore(0.5, 7, 2)
	require.NoError(t, err)

	err = Round(store, []Input{{Dest: area, Sources: []part.Part{stim}}}, 2)
	require.NoError(t, err)

	winners := store.Winners(area.ID())
	assert.Len(t, winners, 5)

	support := store.Support(area.ID())
	assert.ElementsMatch(t, winners, support)
}

func TestRoundTwiceWithSameStoreIsStableAcrossRepeatedSelection(t *testing.T) {
	stim, err := part.NewStimulus(part.StimulusConfig{N: 40, Beta: 0})
	require.NoError(t, err)
	area, err := part.NewArea(part.AreaConfig{N: 50, K: 8, Beta: 0})
	require.NoError(t, err)
	store, err := connectome.NewStore(0.3, 123, 2)
	require.NoError(t, err)

	input := []Input{{Dest: area, Sources: []part.Part{stim}}}
	require.NoError(t, Round(store, input, 2))
	first := store.Winners(area.ID())
	require.NoError(t, Round(store, input, 2))
	second := store.Winners(area.ID())

	assert.Equal(t, first, second, "zero-beta stimulus-only rounds are idempotent")
}

func TestRoundRejectsMissingConnectionWhenLazyDisabled(t *testing.T) {
	stim, err := part.NewStimulus(part.StimulusConfig{N: 10, Beta: 0.1})
	require.NoError(t, err)
	area, err := part.NewArea(part.AreaConfig{N: 10, K: 2, Beta: 0.1})
	require.NoError(t, err)
	store, err := connectome.NewStore(0.5, 1, 1)
	require.NoError(t, err)
	store.DisableLazyInit()

	err = Round(store, []Input{{Dest: area, Sources: []part.Part{stim}}}, 1)
	assert.ErrorContains(t, err, "missing connection")
}

func TestRoundRejectsOutOfRangeSourceWinnerWithoutPanicking(t *testing.T) {
	srcArea, err := part.NewArea(part.AreaConfig{N: 10, K: 2, Beta: 0.1})
	require.NoError(t, err)
	dest, err := part.NewArea(part.AreaConfig{N: 10, K: 2, Beta: 0.1})
	require.NoError(t, err)
	store, err := connectome.NewStore(0.5, 1, 2)
	require.NoError(t, err)

	_, err = store.Get(srcArea, dest)
	require.NoError(t, err)

	// Seed a winner index past srcArea's size, simulating a stale or
	// corrupted winner set rather than one produced by topK.
	store.SeedWinners(srcArea.ID(), []int{srcArea.Size() + 5})

	err = Round(store, []Input{{Dest: dest, Sources: []part.Part{srcArea}}}, 2)
	assert.ErrorContains(t, err, "dimension mismatch")
}

func TestRoundSkipsPlasticityWhenDisabled(t *testing.T) {
	stim, err := part.NewStimulus(part.StimulusConfig{N: 10, Beta: 0.5})
	require.NoError(t, err)
	area, err := part.NewArea(part.AreaConfig{N: 10, K: 3, Beta: 0.5})
	require.NoError(t, err)
	store, err := connectome.NewStore(1.0, 1, 1)
	require.NoError(t, err)
	store.DisablePlasticity()

	c, err := store.Get(stim, area)
	require.NoError(t, err)
	before := append([]float32(nil), c.W.Data...)

	require.NoError(t, Round(store, []Input{{Dest: area, Sources: []part.Part{stim}}}, 1))
	assert.Equal(t, before, c.W.Data)
}
