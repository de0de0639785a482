// Package cryptox hashes and verifies account passwords with argon2id.
//
// Encoded hashes have the form
//
//	argon2id$<time>$<memory KiB>$<threads>$<base64 salt>$<base64 key>
//
// so parameters can be raised later without invalidating stored hashes.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize      = 16
	keySize       = 32
	argonTime     = 1
	argonMemory   = 64 * 1024
	argonThreads  = 4
	hashAlgorithm = "argon2id"
)

var ErrMalformedHash = errors.New("malformed password hash")

var b64 = base64.RawStdEncoding

// HashPassword derives an argon2id key from password with a fresh random salt
// and returns the encoded hash.
func HashPassword(password []byte) string {
	salt := common.GenerateRandByteArray(saltSize)
	key := argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, keySize)
	return strings.Join([]string{
		hashAlgorithm,
		strconv.Itoa(argonTime),
		strconv.Itoa(argonMemory),
		strconv.Itoa(argonThreads),
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	}, "$")
}

// VerifyPassword reports whether password matches the encoded hash. The key
// comparison is constant time.
func VerifyPassword(encoded string, password []byte) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != hashAlgorithm {
		return false, ErrMalformedHash
	}

	t, err1 := strconv.ParseUint(parts[1], 10, 32)
	m, err2 := strconv.ParseUint(parts[2], 10, 32)
	p, err3 := strconv.ParseUint(parts[3], 10, 8)
	if err := errors.Join(err1, err2, err3); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}

	candidate := argon2.IDKey(password, salt, uint32(t), uint32(m), uint8(p), uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}
