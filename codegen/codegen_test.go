package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsHexAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		require.Len(t, id, 32)
		assert.Regexp(t, "^[0-9a-f]{32}$", id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewJoinCodeAlphabet(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := NewJoinCode()
		require.NoError(t, err)
		assert.Len(t, code, JoinCodeLength)
		assert.True(t, ValidJoinCode(code), "invalid code %q", code)
	}
}

func TestValidJoinCode(t *testing.T) {
	cases := map[string]bool{
		"ABC123":  true,
		"000000":  true,
		"abc123":  false,
		"ABC12":   false,
		"ABC1234": false,
		"AB-123":  false,
		"":        false,
	}
	for code, want := range cases {
		assert.Equal(t, want, ValidJoinCode(code), code)
	}
}

func TestNormalizeJoinCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeJoinCode("  ab12cd "))
}
