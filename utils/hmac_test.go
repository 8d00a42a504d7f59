package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeHMACSHA256IsDeterministic(t *testing.T) {
	a := ComputeHMACSHA256("secret", "image-id|owner_x/key.png")
	b := ComputeHMACSHA256("secret", "image-id|owner_x/key.png")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestComputeHMACSHA256DependsOnKeyAndMessage(t *testing.T) {
	base := ComputeHMACSHA256("secret", "message")

	assert.NotEqual(t, base, ComputeHMACSHA256("other-secret", "message"))
	assert.NotEqual(t, base, ComputeHMACSHA256("secret", "other-message"))
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare("abc", "abc"))
	assert.False(t, SecureCompare("abc", "abd"))
	assert.False(t, SecureCompare("abc", "abcd"))
	assert.False(t, SecureCompare("", "a"))
}
