package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailFingerprint(t *testing.T) {
	first, err := EmailFingerprint("pepe@rone.com")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := EmailFingerprint("pepe@rone.com")
	require.NoError(t, err)

	// deterministic: same address, same fingerprint
	assert.Equal(t, first, second)

	// case and whitespace do not change the fingerprint
	mixed, err := EmailFingerprint("  Pepe@Rone.COM ")
	require.NoError(t, err)
	assert.Equal(t, first, mixed)

	other, err := EmailFingerprint("other@rone.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	// the fingerprint never leaks the address
	assert.NotContains(t, first, "pepe")
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"lowercase passthrough", "pepe@rone.com", "pepe@rone.com"},
		{"mixed case", "Pepe@Rone.COM", "pepe@rone.com"},
		{"surrounding whitespace", "  pepe@rone.com\t", "pepe@rone.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeEmail(tt.email))
		})
	}
}

func TestHasActiveSession(t *testing.T) {
	var missing *User
	assert.False(t, missing.HasActiveSession())

	assert.False(t, (&User{}).HasActiveSession())
	assert.True(t, (&User{RefreshTokenHash: "$2a$10$something"}).HasActiveSession())
}
