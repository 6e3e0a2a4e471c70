package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	encoded, err := HashPassword("pw123456")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("pw123456", encoded))
	assert.False(t, VerifyPassword("pw1234567", encoded))
	assert.False(t, VerifyPassword("", encoded))
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword("same-password", first))
	assert.True(t, VerifyPassword("same-password", second))
}

func TestHashPasswordEncoding(t *testing.T) {
	encoded, err := HashPassword("secret")
	require.NoError(t, err)

	parts := strings.Split(encoded, separator)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], keyLen*2)  // hex-encoded derived key
	assert.Len(t, parts[1], saltLen*2) // hex-encoded salt
}

func TestVerifyPasswordMalformed(t *testing.T) {
	cases := []string{
		"",
		"no-separator",
		"deadbeef.",
		".deadbeef",
		"zzzz.deadbeef",
		"deadbeef.zzzz",
		"deadbeef.deadbeef", // key too short
	}

	for _, encoded := range cases {
		assert.False(t, VerifyPassword("anything", encoded), "encoded=%q", encoded)
	}
}
