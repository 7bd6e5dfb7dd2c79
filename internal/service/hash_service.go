package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters for merchant API key hashes. Keys are verified
// once per request, so memory-hard hashing stays affordable.
const (
	hashTime    = 1
	hashMemory  = 64 * 1024
	hashThreads = 4
	hashKeyLen  = 32
	hashSaltLen = 16
)

// Argon2HashService implements ports.HashService. Full API keys are stored
// only as Argon2id hashes; the lookup prefix stays plaintext.
type Argon2HashService struct{}

func NewArgon2HashService() *Argon2HashService {
	return &Argon2HashService{}
}

// Hash derives an Argon2id hash of secret under a fresh random salt, encoded
// in the standard $argon2id$v=19$m=...,t=...,p=...$salt$hash form.
func (s *Argon2HashService) Hash(secret string) (string, error) {
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	sum := argon2.IDKey([]byte(secret), salt, hashTime, hashMemory, hashThreads, hashKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, hashMemory, hashTime, hashThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum))
	return encoded, nil
}

// Verify reports whether secret matches encoded. The parameters recorded in
// the encoded hash are used, so old hashes survive cost changes.
func (s *Argon2HashService) Verify(secret string, encoded string) (bool, error) {
	var (
		version                  int
		memory, timeCost, keyLen uint32
		threads                  uint8
	)

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("malformed argon2id hash")
	}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("parsing hash version: %w", err)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return false, fmt.Errorf("parsing hash parameters: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decoding salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decoding hash: %w", err)
	}
	keyLen = uint32(len(want))

	got := argon2.IDKey([]byte(secret), salt, timeCost, memory, threads, keyLen)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}
