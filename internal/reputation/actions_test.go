package reputation

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_KeysUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Actions() {
		require.False(t, seen[a.Key], "duplicate key %q", a.Key)
		seen[a.Key] = true
		assert.NotEmpty(t, a.Description)
	}
}

func TestCatalog_Grouping(t *testing.T) {
	pos, neg := PositiveActions(), NegativeActions()
	assert.Equal(t, len(Actions()), len(pos)+len(neg))
	for _, a := range pos {
		assert.Greater(t, a.Value, int64(0), a.Key)
	}
	for _, a := range neg {
		assert.LessOrEqual(t, a.Value, int64(0), a.Key)
	}
}

func TestDelta(t *testing.T) {
	d, err := Delta("helpful_post")
	require.NoError(t, err)
	assert.Equal(t, int64(5), d)

	d, err = Delta("spam_flagged")
	require.NoError(t, err)
	assert.Equal(t, int64(-20), d)

	_, err = Delta("nonexistent-key")
	assert.True(t, errors.Is(err, common.ErrUnknownAction))
	assert.Contains(t, err.Error(), "nonexistent-key")
}

func TestActions_ReturnsCopy(t *testing.T) {
	a := Actions()
	a[0].Value = 9999
	d, err := Delta(a[0].Key)
	require.NoError(t, err)
	assert.NotEqual(t, int64(9999), d)
}
