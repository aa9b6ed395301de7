package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"math/big"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	printableMin = 33
	printableMax = 126
)

// MaxTextLen bounds RandomText.
const MaxTextLen = 4096

var printableSpan = big.NewInt(printableMax - printableMin + 1)

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Zero securely wipes a byte slice from memory.
func Zero(b []byte) {
	zero(b)
}

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandBytes returns n bytes from the operating system CSPRNG.
func RandBytes(n int) ([]byte, error) {
	b, err := randBytes(n)
	if err != nil {
		return nil, newError(ErrCrypto, "random bytes", err)
	}
	return b, nil
}

// RandomText returns n characters drawn uniformly from printable ASCII
// (33 through 126). It is meant for generated passwords, not key material.
func RandomText(n int) (string, error) {
	if n < 0 || n > MaxTextLen {
		return "", newError(ErrCrypto, "random text", errBadTextLen)
	}
	out := make([]byte, n)
	for i := range out {
		c, err := rand.Int(rand.Reader, printableSpan)
		if err != nil {
			return "", newError(ErrCrypto, "random text", err)
		}
		out[i] = byte(printableMin + c.Int64())
	}
	return string(out), nil
}

func Hash(input []byte) [32]byte {
	return sha256.Sum256(input)
}

// SaltedHash digests secret || salt.
func SaltedHash(secret, salt []byte) [32]byte {
	buf := make([]byte, 0, len(secret)+len(salt))
	buf = append(buf, secret...)
	buf = append(buf, salt...)
	sum := sha256.Sum256(buf)
	zero(buf)
	return sum
}

func DefaultKDFParams() *KDFParams { return &KDFParams{Time: 3, Memory: 64 * 1024, Threads: 1} }

// Upper bounds on Argon2id cost accepted from a store file or config.
const (
	MaxKDFTime    = 64
	MaxKDFMemory  = 4 * 1024 * 1024 // KiB, 4 GiB
	MaxKDFThreads = 64
)

// Check reports whether the cost parameters are positive and within the
// limits above. The salt is not inspected.
func (p *KDFParams) Check() error {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return errBadKDFParams
	}
	if p.Time > MaxKDFTime || p.Memory > MaxKDFMemory || p.Threads > MaxKDFThreads {
		return errKDFTooCostly
	}
	return nil
}

func (p *KDFParams) check() error {
	if len(p.Salt) == 0 {
		return errMissingKDFSalt
	}
	return p.Check()
}

// DeriveKey stretches the passphrase with Argon2id under params.Salt and
// expands the result into the 32-byte entry key with HKDF-SHA256. The
// passphrase is left untouched; callers wipe it.
func DeriveKey(passphrase []byte, params *KDFParams) ([]byte, error) {
	if params == nil {
		return nil, newError(ErrCrypto, "derive key", errMissingKDFSalt)
	}
	if err := params.check(); err != nil {
		return nil, newError(ErrCrypto, "derive key", err)
	}
	master := argon2.IDKey(passphrase, params.Salt, params.Time, params.Memory, params.Threads, KeyLen)
	defer zero(master)

	h := hkdf.New(sha256.New, master, nil, []byte(keyInfo))
	key := make([]byte, KeyLen)
	if _, err := io.ReadFull(h, key); err != nil {
		zero(key)
		return nil, newError(ErrCrypto, "derive key", err)
	}
	return key, nil
}

func aeadSeal(key, nonce, plaintext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, newError(ErrCrypto, "seal", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, newError(ErrCrypto, "seal", errBadNonce)
	}
	return aead.Seal(nil, nonce, plaintext, ad), nil
}

func aeadOpen(key, nonce, ciphertext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, newError(ErrCrypto, "open", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, newError(ErrAuthFailed, "open", errBadNonce)
	}
	pt, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, newError(ErrAuthFailed, "open", err)
	}
	return pt, nil
}
