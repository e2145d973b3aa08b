package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShuffleSecret(t *testing.T) {
	a, err := GenerateShuffleSecret()
	require.NoError(t, err)
	b, err := GenerateShuffleSecret()
	require.NoError(t, err)

	assert.Len(t, a, ShuffleSecretLength)
	assert.Regexp(t, `^[A-Za-z0-9]+$`, a)
	assert.NotEqual(t, a, b)
}
