// Package cryptox implements one-way password hashing. Two algorithms are
// available: bcrypt (the default) and argon2id encoded in PHC string format.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/astroprofile/internal/common"
	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names accepted by NewHasher.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// DefaultBcryptCost matches the salt rounds of the original deployment.
const DefaultBcryptCost = 10

// PasswordHasher hashes and verifies plaintext passwords.
//
// Hash is salted: two calls with the same input return different strings.
// Verify returns (false, nil) on mismatch; an error only when the stored hash
// cannot be interpreted. All errors match common.ErrHashing.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// NewHasher returns the hasher registered under algorithm.
func NewHasher(algorithm string, bcryptCost int) (PasswordHasher, error) {
	switch algorithm {
	case "", AlgorithmBcrypt:
		return NewBcryptHasher(bcryptCost), nil
	case AlgorithmArgon2id:
		return NewArgon2idHasher(DefaultArgon2Params), nil
	default:
		return nil, oops.In("cryptox").Code("unknown_algorithm").Errorf("unknown password hashing algorithm %q", algorithm)
	}
}

func hashingError(code string, err error) error {
	return oops.In("cryptox").Code(code).Wrap(fmt.Errorf("%w: %w", common.ErrHashing, err))
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher; out-of-range costs fall back to
// DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// bcryptMaxLen is the number of input bytes bcrypt consumes; longer
// passwords are cut so they hash instead of failing.
const bcryptMaxLen = 72

func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxLen {
		b = b[:bcryptMaxLen]
	}
	return b
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", hashingError("hashing_failed", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, hashingError("invalid_hash", err)
	}
}

// Argon2Params tunes argon2id.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultArgon2Params are the OWASP-recommended argon2id settings.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct {
	params Argon2Params
}

func NewArgon2idHasher(p Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

// Hash encodes the result as $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", hashingError("salt_failed", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, hashingError("invalid_hash", errors.New("invalid hash format"))
	}
	if parts[1] != AlgorithmArgon2id {
		return false, hashingError("invalid_hash", fmt.Errorf("unsupported hash algorithm: %s", parts[1]))
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, hashingError("invalid_hash", err)
	}
	if version != argon2.Version {
		return false, hashingError("invalid_hash", fmt.Errorf("unsupported argon2 version %d", version))
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, hashingError("invalid_hash", err)
	}
	if threads == 0 || threads > 255 {
		return false, hashingError("invalid_hash", fmt.Errorf("threads value %d out of range", threads))
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, hashingError("invalid_hash", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, hashingError("invalid_hash", err)
	}
	if len(expected) == 0 || len(expected) > 1<<10 {
		return false, hashingError("invalid_hash", fmt.Errorf("invalid key length %d", len(expected)))
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
