// Package keyagree derives directional secrets between two parties that
// share nothing in advance.
//
// Both sides use NIST P-256 ECDH. Public keys travel as DER-encoded
// SubjectPublicKeyInfo so they can be produced and consumed by any X.509
// capable peer. A conversation uses two independent key pairs per side, one
// for each direction, so the two directional secrets are unrelated.
package keyagree

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/seqlink-go/internal/core/domain"
)

const (
	// PublicKeySize is the length of a DER-encoded P-256 SubjectPublicKeyInfo.
	PublicKeySize = 91

	// SeedSize is the length of a seed produced by ExpandSeed.
	SeedSize = 32
)

// Direction labels bind an expanded seed to the direction it keys. Both
// peers expand the secret of a direction with the same label.
const (
	LabelInitiatorToResponder = "seqlink/v1/i2r"
	LabelResponderToInitiator = "seqlink/v1/r2i"
)

var curve = ecdh.P256()

// KeyPair is a fresh P-256 key pair. The private half is never serialized.
type KeyPair struct {
	private *ecdh.PrivateKey
	public  []byte
}

// GenerateKeyPair creates a new key pair from crypto/rand.
func GenerateKeyPair() (*KeyPair, error) {
	return generate(rand.Reader)
}

func generate(r io.Reader) (*KeyPair, error) {
	priv, err := curve.GenerateKey(r)
	if err != nil {
		return nil, fmt.Errorf("keyagree: generate p-256 key: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(priv.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("keyagree: encode public key: %w", err)
	}
	return &KeyPair{private: priv, public: pub}, nil
}

// PublicKey returns the SubjectPublicKeyInfo encoding of the public key.
func (kp *KeyPair) PublicKey() []byte {
	out := make([]byte, len(kp.public))
	copy(out, kp.public)
	return out
}

// Destroy drops the private key. The key pair is unusable afterwards.
func (kp *KeyPair) Destroy() {
	if kp != nil {
		kp.private = nil
	}
}

// ParsePublicKey decodes and validates a peer's SubjectPublicKeyInfo.
// Any failure is reported as domain.ErrInvalidRemoteKey.
func ParsePublicKey(b []byte) (*ecdh.PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, domain.ErrInvalidRemoteKey.WithDetails(fmt.Sprintf("expected %d bytes, got %d", PublicKeySize, len(b)))
	}
	parsed, err := x509.ParsePKIXPublicKey(b)
	if err != nil {
		return nil, domain.ErrInvalidRemoteKey.WithCause(err)
	}

	var pub *ecdh.PublicKey
	switch k := parsed.(type) {
	case *ecdsa.PublicKey:
		pub, err = k.ECDH()
		if err != nil {
			return nil, domain.ErrInvalidRemoteKey.WithCause(err)
		}
	case *ecdh.PublicKey:
		pub = k
	default:
		return nil, domain.ErrInvalidRemoteKey.WithDetails(fmt.Sprintf("unsupported key type %T", parsed))
	}
	if pub.Curve() != curve {
		return nil, domain.ErrInvalidRemoteKey.WithDetails("public key is not on P-256")
	}
	return pub, nil
}

// Derive computes the shared secret between the local key pair and a
// peer's encoded public key. Derive(a, b.PublicKey()) equals
// Derive(b, a.PublicKey()).
func Derive(local *KeyPair, remote []byte) ([]byte, error) {
	if local == nil || local.private == nil {
		return nil, errors.New("keyagree: key pair destroyed")
	}
	pub, err := ParsePublicKey(remote)
	if err != nil {
		return nil, err
	}
	secret, err := local.private.ECDH(pub)
	if err != nil {
		return nil, domain.ErrInvalidRemoteKey.WithCause(err)
	}
	return secret, nil
}

// ExpandSeed turns a raw shared secret into a SeedSize engine seed bound to
// label using HKDF-SHA256.
func ExpandSeed(secret []byte, label string) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, []byte(label))
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("keyagree: hkdf expand: %w", err)
	}
	return seed, nil
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	clear(b)
}
