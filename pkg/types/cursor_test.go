package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorFinishDropsBag(t *testing.T) {
	c := Cursor{
		Quota: 5,
		State: CursorRunning,
		Bag:   map[string]string{"pending": `[{"spec":{},"index":3}]`},
	}

	done := c.Finish()
	assert.True(t, done.Done())
	assert.Empty(t, done.Bag)
	assert.Equal(t, 5, done.Quota)
}

func TestCursorZeroValueIsFresh(t *testing.T) {
	var c Cursor
	assert.False(t, c.Done())
	assert.Empty(t, c.Bag)
}

func TestCursorJSONRoundTrip(t *testing.T) {
	c := Cursor{Quota: 1, State: CursorRunning, Bag: map[string]string{"pending": "[]"}}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded Cursor
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, c, decoded)
}
