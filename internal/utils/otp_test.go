package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureCodeLength(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		code, err := GenerateSecureCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		assert.True(t, DigitsOnly(code))
	}
}

func TestGenerateSecureCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateSecureCode(6)
		require.NoError(t, err)
		seen[code] = true
	}
	// 50 draws from a million values colliding down to a handful would
	// mean a broken generator.
	assert.Greater(t, len(seen), 40)
}

func TestDigitsOnly(t *testing.T) {
	assert.True(t, DigitsOnly("012345"))
	assert.False(t, DigitsOnly(""))
	assert.False(t, DigitsOnly("12a456"))
	assert.False(t, DigitsOnly("12 456"))
}
