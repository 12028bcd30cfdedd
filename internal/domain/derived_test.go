package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinnerProScore(t *testing.T) {
	assert.Equal(t, 1.0, WinnerPro.ProScore())
	assert.Equal(t, 0.0, WinnerCon.ProScore())
	assert.Equal(t, 0.5, WinnerTie.ProScore())
	assert.Equal(t, 0.5, Winner("").ProScore(), "unknown outcomes score as ties")
}

func TestWinnerDecided(t *testing.T) {
	assert.True(t, WinnerPro.Decided())
	assert.True(t, WinnerCon.Decided())
	assert.False(t, WinnerTie.Decided())
	assert.False(t, Winner("").Decided())
}

func TestNewDerivedDataSerializesEmptyCollections(t *testing.T) {
	raw, err := json.Marshal(NewDerivedData())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{
		"models", "dimensions", "model_stats", "head_to_head",
		"topic_winrates", "judge_agreement", "judge_bias",
		"debate_rows", "judge_rows",
	} {
		v, ok := decoded[key]
		require.True(t, ok, "key %s missing", key)
		assert.NotNil(t, v, "key %s must serialize as [], not null", key)
		assert.IsType(t, []any{}, v)
	}
}
