package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiceRollsZero(t *testing.T) {
	d := New()
	assert.Equal(t, Const{}, d.Expr())
	assert.Equal(t, 0, d.Roll())
	assert.Equal(t, "0", d.String())
}

func TestDiceHistory(t *testing.T) {
	d, err := FromString("1d6+1d4")
	require.NoError(t, err)
	d.SetSource(&sequenceSource{values: []int{6, 4, 1, 2}})

	assert.Nil(t, d.Last())
	assert.Equal(t, 10, d.Roll())
	assert.Equal(t, 3, d.Roll())
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 3, d.Last().Value)

	latest, err := d.Log(0)
	require.NoError(t, err)
	assert.Equal(t, "| d6: 1 | d4: 2 ", latest)

	previous, err := d.Log(1)
	require.NoError(t, err)
	assert.Equal(t, "| d6: 6 | d4: 4 ", previous)

	_, err = d.Log(2)
	assert.ErrorIs(t, err, ErrNoSuchRoll)
	_, err = d.Log(-1)
	assert.ErrorIs(t, err, ErrNoSuchRoll)
}

func TestDiceName(t *testing.T) {
	d, err := FromString("d20 + 5")
	require.NoError(t, err)
	assert.Equal(t, "1d20 + 5", d.String())

	d.SetName("Longsword")
	assert.Equal(t, "Longsword", d.Name())
	assert.Equal(t, "Longsword: 1d20 + 5", d.String())
}

func TestFromStringError(t *testing.T) {
	_, err := FromString("1d4+")
	assert.ErrorIs(t, err, ErrInvalidMath)
}
