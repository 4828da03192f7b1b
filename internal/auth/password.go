package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Argon2id parameters, OWASP 2025 recommendation.
const (
	argonTime    = 3         // iterations
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 1         // parallelism
	argonKeyLen  = 32        // output hash length
	argonSaltLen = 16        // salt length

	// maxArgonMemory caps the memory cost accepted from a stored hash (KiB).
	maxArgonMemory = 1024 * 1024
)

// Legacy PBKDF2 parameters of hashes stored as "saltHex:keyHex".
const (
	legacyIterations = 1000
	legacyKeyLen     = 64
)

// UnusablePasswordHash marks an account that cannot log in with a password.
// Any hash starting with "!" never verifies.
const UnusablePasswordHash = "!unusable"

// HashPassword hashes a plaintext password using Argon2id and returns it
// in PHC string format: $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword checks a plaintext password against a stored hash.
//
// Argon2id PHC strings and legacy "saltHex:keyHex" PBKDF2-SHA512 strings are
// both accepted. Unusable hashes return false without error. A malformed
// hash returns an error.
func VerifyPassword(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "!"):
		return false, nil
	case strings.HasPrefix(encodedHash, "$"):
		return verifyArgon2id(password, encodedHash)
	default:
		return verifyLegacy(password, encodedHash)
	}
}

func verifyArgon2id(password, encodedHash string) (bool, error) {
	salt, hash, params, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(hash))) //nolint:gosec // G115: hash length always fits uint32

	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

// verifyLegacy checks a PBKDF2-HMAC-SHA512 hash. The salt is the hex text
// itself, not its decoded bytes.
func verifyLegacy(password, encodedHash string) (bool, error) {
	saltHex, keyHex, ok := strings.Cut(encodedHash, ":")
	if !ok || saltHex == "" {
		return false, fmt.Errorf("invalid legacy hash format")
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != legacyKeyLen {
		return false, fmt.Errorf("invalid legacy hash format")
	}

	candidate := pbkdf2.Key([]byte(password), []byte(saltHex), legacyIterations, legacyKeyLen, sha512.New)

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// IsLegacyHash reports whether a stored hash uses the PBKDF2 format.
func IsLegacyHash(encodedHash string) bool {
	return encodedHash != "" && !strings.HasPrefix(encodedHash, "$") && !strings.HasPrefix(encodedHash, "!")
}

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

// decodePHC parses an Argon2id PHC string format into its components.
func decodePHC(encoded string) (salt, hash []byte, params argonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 { //nolint:mnd // PHC format has exactly 6 $-delimited parts
		return nil, nil, params, fmt.Errorf("invalid PHC hash format")
	}

	if parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return nil, nil, params, fmt.Errorf("parsing version: %w", err)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return nil, nil, params, fmt.Errorf("parsing parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding salt: %w", err)
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding hash: %w", err)
	}

	// argon2.IDKey panics on zero parallelism or key length.
	if len(salt) == 0 || len(hash) == 0 || params.threads < 1 || params.time < 1 ||
		params.memory < 8*uint32(params.threads) || params.memory > maxArgonMemory {
		return nil, nil, params, fmt.Errorf("invalid PHC hash format")
	}

	return salt, hash, params, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// verifyDummy burns the same work as a real Argon2id verification so that
// the unknown-user path of a login takes about as long as the wrong-password path.
func verifyDummy(password string) {
	dummyHashOnce.Do(func() {
		h, err := HashPassword("frontdesk-timing-equaliser")
		if err == nil {
			dummyHash = h
		}
	})
	if dummyHash != "" {
		VerifyPassword(password, dummyHash) //nolint:errcheck // result intentionally discarded
	}
}
