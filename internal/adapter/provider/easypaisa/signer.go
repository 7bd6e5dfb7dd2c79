package easypaisa

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"

	"wallet-link-gateway/pkg/apperror"
)

// Field is a single (key, value) pair of a signed request. Easypaisa signs
// the compact JSON rendering of the request object, and object-key order is
// part of the signed content, so requests are modeled as an explicit ordered
// slice rather than a map.
type Field struct {
	Key   string
	Value string
}

// RequestFields is an ordered field list. Its JSON form is a compact object
// whose keys appear exactly in slice order, with no extra whitespace.
type RequestFields []Field

// MarshalJSON renders the fields as a compact JSON object preserving order.
func (f RequestFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(field.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal field key %q: %w", field.Key, err)
		}
		v, err := json.Marshal(field.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field value for %q: %w", field.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SignatureEncoding selects the signature output encoding. Both forms are
// used across Easypaisa endpoints.
type SignatureEncoding int

const (
	EncodingBase64 SignatureEncoding = iota
	EncodingHex
)

// Signer produces RSA-SHA256 signatures over the canonical JSON of a
// request. It holds the private key for the process lifetime and has no
// other mutable state.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner parses a PEM-encoded RSA private key (PKCS#1 or PKCS#8).
func NewSigner(pemData []byte) (*Signer, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, apperror.FatalConfig("signing key is not valid PEM", nil)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &Signer{key: key}, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, apperror.FatalConfig("parsing signing key", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, apperror.FatalConfig("signing key is not an RSA key", nil)
	}
	return &Signer{key: rsaKey}, nil
}

// NewSignerFromFile loads the private key from disk. A missing or unreadable
// key is a fatal boot-time condition, not a per-request error.
func NewSignerFromFile(path string) (*Signer, error) {
	pemData, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.FatalConfig(fmt.Sprintf("reading signing key from %s", path), err)
	}
	return NewSigner(pemData)
}

// Sign computes the RSA-SHA256 signature over the UTF-8 bytes of the
// compact JSON rendering of fields, encoded per enc.
func (s *Signer) Sign(fields RequestFields, enc SignatureEncoding) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal signed payload: %w", err)
	}

	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("rsa sign: %w", err)
	}

	if enc == EncodingHex {
		return hex.EncodeToString(sig), nil
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// PublicKey returns the public half of the signing key.
func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}

// Verify checks a signature against the canonical JSON of fields. Used for
// testing and self-validation only; live provider responses are not
// signature-verified.
func Verify(pub *rsa.PublicKey, fields RequestFields, signature string, enc SignatureEncoding) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal signed payload: %w", err)
	}

	var sig []byte
	if enc == EncodingHex {
		sig, err = hex.DecodeString(signature)
	} else {
		sig, err = base64.StdEncoding.DecodeString(signature)
	}
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	digest := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}
