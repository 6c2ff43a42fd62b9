package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("garlic-bread-42")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "garlic-bread-42", hash)
}

func TestComparePassword(t *testing.T) {
	hash, _ := HashPassword("garlic-bread-42")

	t.Run("correct password", func(t *testing.T) {
		assert.NoError(t, ComparePassword(hash, "garlic-bread-42"))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.Error(t, ComparePassword(hash, "wrong-password"))
	})
}
