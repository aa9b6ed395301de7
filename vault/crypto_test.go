package vault

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hash is plain SHA-256.
func TestHash(t *testing.T) {
	assert.Equal(t, sha256.Sum256([]byte("abc")), Hash([]byte("abc")))
}

// SaltedHash digests the raw concatenation of secret and salt.
func TestSaltedHash(t *testing.T) {
	assert.Equal(t, sha256.Sum256([]byte("secretsalt")), SaltedHash([]byte("secret"), []byte("salt")))
	assert.NotEqual(t, SaltedHash([]byte("secret"), []byte("a")), SaltedHash([]byte("secret"), []byte("b")))
}

// RandBytes returns the requested length and differs between calls.
func TestRandBytes(t *testing.T) {
	a, err := RandBytes(32)
	require.NoError(t, err)
	b, err := RandBytes(32)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	empty, err := RandBytes(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// RandomText stays inside printable ASCII 33..126.
func TestRandomText(t *testing.T) {
	for _, n := range []int{0, 1, 32, 1000} {
		s, err := RandomText(n)
		require.NoError(t, err)
		assert.Len(t, s, n)
		for i := 0; i < len(s); i++ {
			assert.GreaterOrEqual(t, s[i], byte(33))
			assert.LessOrEqual(t, s[i], byte(126))
		}
	}
}

// Over many draws every printable character shows up.
func TestRandomTextCoversRange(t *testing.T) {
	seen := make(map[byte]bool)
	for n := 0; n < 5; n++ {
		s, err := RandomText(MaxTextLen)
		require.NoError(t, err)
		for i := 0; i < len(s); i++ {
			seen[s[i]] = true
		}
	}
	assert.Len(t, seen, 94)
}

// Lengths outside 0..MaxTextLen are rejected.
func TestRandomTextBounds(t *testing.T) {
	_, err := RandomText(-1)
	assert.ErrorIs(t, err, ErrCrypto)
	_, err = RandomText(MaxTextLen + 1)
	assert.ErrorIs(t, err, ErrCrypto)
}

// DeriveKey is deterministic in passphrase and params, and sensitive to both.
func TestDeriveKey(t *testing.T) {
	params := &KDFParams{Time: 1, Memory: 8 * 1024, Threads: 1, Salt: []byte("0123456789abcdef")}

	k1, err := DeriveKey([]byte("correct horse"), params)
	require.NoError(t, err)
	k2, err := DeriveKey([]byte("correct horse"), params)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, KeyLen)

	k3, err := DeriveKey([]byte("battery staple"), params)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	other := *params
	other.Salt = []byte("fedcba9876543210")
	k4, err := DeriveKey([]byte("correct horse"), &other)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)
}

// Missing salt or zero cost parameters are rejected.
func TestDeriveKeyBadParams(t *testing.T) {
	_, err := DeriveKey([]byte("x"), nil)
	assert.ErrorIs(t, err, ErrCrypto)

	_, err = DeriveKey([]byte("x"), &KDFParams{Time: 1, Memory: 8, Threads: 1})
	assert.ErrorIs(t, err, ErrCrypto)

	_, err = DeriveKey([]byte("x"), &KDFParams{Time: 0, Memory: 8, Threads: 1, Salt: []byte("s")})
	assert.ErrorIs(t, err, ErrCrypto)

	_, err = DeriveKey([]byte("x"), &KDFParams{Time: 1, Memory: MaxKDFMemory + 1, Threads: 1, Salt: []byte("s")})
	assert.ErrorIs(t, err, ErrCrypto)
}

// Cost parameters must be positive and within the limits.
func TestKDFParamsCheck(t *testing.T) {
	assert.NoError(t, DefaultKDFParams().Check())
	assert.NoError(t, (&KDFParams{Time: MaxKDFTime, Memory: MaxKDFMemory, Threads: MaxKDFThreads}).Check())

	for _, p := range []KDFParams{
		{Time: 0, Memory: 8, Threads: 1},
		{Time: 1, Memory: 0, Threads: 1},
		{Time: 1, Memory: 8, Threads: 0},
		{Time: MaxKDFTime + 1, Memory: 8, Threads: 1},
		{Time: 1, Memory: MaxKDFMemory + 1, Threads: 1},
		{Time: 1, Memory: 8, Threads: MaxKDFThreads + 1},
	} {
		assert.Error(t, p.Check(), "%+v", p)
	}
}

// Error unwraps to both its kind and its cause.
func TestErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	err := newError(ErrIO, "write", cause)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrFormat)
	assert.Equal(t, "write: vault: i/o failure: "+cause.Error(), err.Error())
}
