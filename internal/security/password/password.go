// Package password implements salted PBKDF2 credential hashing.
//
// The stored format is base64(salt) + "." + base64(digest), compatible with
// hashes produced by the previous loyalty backend, so existing accounts keep
// working after migration.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Params are the key-derivation parameters.
type Params struct {
	SaltLen    int // bytes
	Iterations int
	KeyLen     int // bytes
}

// Default matches the legacy backend: 128-bit salt, 100k iterations of
// HMAC-SHA256, 256-bit digest.
var Default = Params{SaltLen: 16, Iterations: 100_000, KeyLen: 32}

// Hash derives a digest for plain with a fresh random salt and returns the
// encoded salt.digest pair.
func Hash(p Params, plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("empty password")
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := pbkdf2.Key([]byte(plain), salt, p.Iterations, p.KeyLen, sha256.New)
	return base64.StdEncoding.EncodeToString(salt) + "." + base64.StdEncoding.EncodeToString(dk), nil
}

// Verify re-derives plain against the stored salt.digest pair and compares in
// constant time. Returns false, never an error, on malformed input.
func Verify(plain, stored string) bool {
	salt, dkStored, ok := decode(stored)
	if !ok {
		return false
	}
	dk := pbkdf2.Key([]byte(plain), salt, Default.Iterations, len(dkStored), sha256.New)
	return subtle.ConstantTimeCompare(dk, dkStored) == 1
}

func decode(stored string) (salt, digest []byte, ok bool) {
	parts := strings.Split(stored, ".")
	if len(parts) != 2 {
		return nil, nil, false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(salt) == 0 {
		return nil, nil, false
	}
	digest, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(digest) == 0 {
		return nil, nil, false
	}
	return salt, digest, true
}
