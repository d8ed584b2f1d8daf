package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidHash = errors.New("invalid hash format")

const saltLength = 16

type PasswordConfig struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// Default password hashing configuration
var DefaultPasswordConfig = PasswordConfig{
	Time:    3,         // Number of iterations
	Memory:  64 * 1024, // 64MB
	Threads: 2,         // Number of threads to use
	KeyLen:  32,        // Length of the generated key
}

// PasswordHasher hashes with Argon2id and verifies Argon2id or legacy bcrypt hashes
type PasswordHasher struct {
	cfg PasswordConfig
}

// NewPasswordHasher returns a hasher for cfg; zero fields fall back to the defaults.
func NewPasswordHasher(cfg PasswordConfig) *PasswordHasher {
	if cfg.Time == 0 {
		cfg.Time = DefaultPasswordConfig.Time
	}
	if cfg.Memory == 0 {
		cfg.Memory = DefaultPasswordConfig.Memory
	}
	if cfg.Threads == 0 {
		cfg.Threads = DefaultPasswordConfig.Threads
	}
	if cfg.KeyLen == 0 {
		cfg.KeyLen = DefaultPasswordConfig.KeyLen
	}
	return &PasswordHasher{cfg: cfg}
}

// Hash hashes a password using Argon2id with a fresh random salt
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, h.cfg.Time, h.cfg.Memory, h.cfg.Threads, h.cfg.KeyLen)

	// Format: $argon2id$v=19$m=memory,t=time,p=threads$salt$hash
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.cfg.Memory,
		h.cfg.Time,
		h.cfg.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks if a password matches an encoded hash.
//
// bcrypt hashes ($2a$, $2b$, $2y$) written by the previous backend are still accepted.
func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	if isBcrypt(encodedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}

	// Extract the parameters, salt and hash from the encoded hash string
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrInvalidHash
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	// Compute the hash of the provided password using the same parameters
	otherHash := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, otherHash) == 1, nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
