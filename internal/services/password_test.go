package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Str0ng!Pass"))
	assert.True(t, IsStrongPassword("12345678"))
	assert.False(t, IsStrongPassword("short"))
	assert.False(t, IsStrongPassword(""))
	assert.False(t, IsStrongPassword("1234567"))
}

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Pass", hash)

	assert.True(t, CompareHash("Str0ng!Pass", hash))
	assert.False(t, CompareHash("wrong-password", hash))
	assert.False(t, CompareHash("", hash))
}

func TestCompareHash_EmptyHash(t *testing.T) {
	// Users created through SSO have no password hash stored.
	assert.False(t, CompareHash("anything", ""))
}
