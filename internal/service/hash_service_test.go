package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_HashAndVerify(t *testing.T) {
	svc := NewArgon2HashService()

	apiKey := "mypay_0123456789abcdef"
	hash, err := svc.Hash(apiKey)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	// Format check
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v="), "hash should start with $argon2id$v=")

	match, err := svc.Verify(apiKey, hash)
	require.NoError(t, err)
	assert.True(t, match, "correct key should verify")
}

func TestArgon2HashService_VerifyWrongKey(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("mypay_correct")
	require.NoError(t, err)

	match, err := svc.Verify("mypay_wrong", hash)
	require.NoError(t, err)
	assert.False(t, match, "wrong key should not verify")
}

func TestArgon2HashService_UniqueSalts(t *testing.T) {
	svc := NewArgon2HashService()

	hash1, err := svc.Hash("same-secret")
	require.NoError(t, err)

	hash2, err := svc.Hash("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2, "same secret should produce different hashes (different salts)")
}

func TestArgon2HashService_VerifyInvalidFormat(t *testing.T) {
	svc := NewArgon2HashService()

	_, err := svc.Verify("secret", "not-a-valid-hash")
	assert.Error(t, err)
}

func TestArgon2HashService_HashContainsParams(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("test")
	require.NoError(t, err)

	assert.Contains(t, hash, "m=65536,t=1,p=4", "hash should contain Argon2id params")
}
