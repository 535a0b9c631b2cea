// Package passhash provides one-way password hashing using argon2id.
// Hashes are encoded in the standard PHC string format, so parameters
// travel with the hash and can be tightened later without invalidating
// existing credentials.
package passhash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithm = "argon2id"

// Params holds the argon2id cost parameters.
type Params struct {
	Memory      uint32 // Memory in KiB
	Time        uint32 // Number of passes
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the recommended cost parameters.
// 64MB memory, 3 passes, 4 lanes: the same defaults the argon2
// reference implementation ships for interactive logins.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher hashes and verifies passwords with argon2id.
type Hasher struct {
	params Params
}

// New creates a Hasher with the given parameters.
func New(params Params) (*Hasher, error) {
	if params.Memory < 8*1024 {
		return nil, fmt.Errorf("memory must be at least 8192 KiB")
	}
	if params.Time < 1 {
		return nil, fmt.Errorf("time must be at least 1")
	}
	if params.Parallelism < 1 {
		return nil, fmt.Errorf("parallelism must be at least 1")
	}
	if params.SaltLength < 16 {
		return nil, fmt.Errorf("salt length must be at least 16")
	}
	if params.KeyLength < 16 {
		return nil, fmt.Errorf("key length must be at least 16")
	}
	return &Hasher{params: params}, nil
}

// Hash derives an argon2id hash from the plaintext password and
// returns it in PHC format:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether the plaintext password matches the encoded
// hash. The comparison is constant time. The cost parameters are taken
// from the encoded hash, not from the Hasher, so hashes produced with
// older parameters still verify.
func (h *Hasher) Verify(password string, encoded string) (bool, error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// decode parses a PHC format argon2id hash string.
func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Params{}, nil, nil, fmt.Errorf("invalid hash format")
	}
	if parts[1] != algorithm {
		return Params{}, nil, nil, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, fmt.Errorf("invalid version segment: %w", err)
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("unsupported argon2 version: %d", version)
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Parallelism); err != nil {
		return Params{}, nil, nil, fmt.Errorf("invalid parameter segment: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("invalid salt encoding: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("invalid key encoding: %w", err)
	}
	if len(key) == 0 {
		return Params{}, nil, nil, fmt.Errorf("empty key")
	}

	return params, salt, key, nil
}
