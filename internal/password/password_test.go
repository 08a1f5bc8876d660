package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("password123")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$v="))

	ok, err := Verify("password123", encoded)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Verify("password124", encoded)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashSaltsEveryCall(t *testing.T) {
	first, err := Hash("Admin@12345")
	require.NoError(t, err)
	second, err := Hash("Admin@12345")
	require.NoError(t, err)

	require.NotEqual(t, first, second)

	for _, encoded := range []string{first, second} {
		ok, err := Verify("Admin@12345", encoded)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestHashRejectsShortPasswords(t *testing.T) {
	_, err := Hash("hunter2")
	require.Error(t, err)
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	good, err := Hash("password123")
	require.NoError(t, err)

	bad := []string{
		"",
		"not a phc string",
		"$argon2id$v=19$m=65536,t=1,p=4$onlyfiveparts",
		strings.Replace(good, "argon2id", "bcrypt", 1),
		strings.Replace(good, "v=19", "v=18", 1),
		good + "!", // corrupt the hash base64
	}
	for _, encoded := range bad {
		_, err := Verify("password123", encoded)
		require.ErrorIs(t, err, ErrInvalidHash, "hash %q", encoded)
	}
}
