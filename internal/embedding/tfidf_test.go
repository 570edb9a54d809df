package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"Book | title: Intro to Science | subject: science | description: experiments energy matter",
	"Book | title: World Atlas | subject: geography | description: maps countries oceans",
	"User profile | name: Alice | role: student | department: Science School",
}

func TestPrepareAndEmbed(t *testing.T) {
	e := NewTFIDFEmbedder()
	require.NoError(t, e.Prepare(corpus))
	assert.Greater(t, e.Dimension(), 0)

	vec, err := e.Embed("science experiments")
	require.NoError(t, err)
	assert.Len(t, vec, e.Dimension())

	// L2 normalized
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestEmbedUnpreparedFails(t *testing.T) {
	e := NewTFIDFEmbedder()
	_, err := e.Embed("anything")
	assert.Error(t, err)
}

func TestEmbedUnknownTokensYieldsZeroVector(t *testing.T) {
	e := NewTFIDFEmbedder()
	require.NoError(t, e.Prepare(corpus))

	vec, err := e.Embed("qqqq zzzz")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStateRoundTrip(t *testing.T) {
	e := NewTFIDFEmbedder()
	require.NoError(t, e.Prepare(corpus))

	restored, err := NewFromState(e.State())
	require.NoError(t, err)
	assert.Equal(t, e.Dimension(), restored.Dimension())

	want, err := e.Embed("maps of science")
	require.NoError(t, err)
	got, err := restored.Embed("maps of science")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestInvalidState(t *testing.T) {
	_, err := NewFromState(State{Terms: []string{"a"}, IDF: nil})
	assert.Error(t, err)
	_, err = NewFromState(State{})
	assert.Error(t, err)
}

func TestPrepareEmptyCorpus(t *testing.T) {
	e := NewTFIDFEmbedder()
	assert.Error(t, e.Prepare(nil))
}
