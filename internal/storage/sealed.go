package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/yndnr/seqlink-go/pkg/crypto/adaptive"
)

// Argon2id parameters for deriving the at-rest key from a passphrase.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	// SaltLength is the length of the at-rest key derivation salt.
	SaltLength = 16
)

// ErrSealBroken is returned when a stored value fails authentication.
var ErrSealBroken = errors.New("storage: sealed value failed authentication")

// Sealed encrypts values before handing them to the wrapped Store. Each
// value is bound to its key, so swapping values between keys is detected.
type Sealed struct {
	inner  Store
	cipher adaptive.Cipher
}

// NewSealed wraps inner with at-rest encryption.
func NewSealed(inner Store, cipher adaptive.Cipher) *Sealed {
	return &Sealed{inner: inner, cipher: cipher}
}

// Store implements Store.
func (s *Sealed) Store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	sealed, err := s.cipher.Encrypt(value, []byte(key))
	if err != nil {
		return fmt.Errorf("storage: seal %q: %w", key, err)
	}
	return s.inner.Store(ctx, key, sealed, ttl)
}

// Get implements Store.
func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	value, err := s.cipher.Decrypt(sealed, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSealBroken, key, err)
	}
	return value, nil
}

// Delete implements Store.
func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Close implements Store.
func (s *Sealed) Close() error {
	return s.inner.Close()
}

// DeriveSealKey derives the at-rest key from a passphrase with Argon2id.
func DeriveSealKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("storage: empty passphrase")
	}
	if len(salt) < SaltLength {
		return nil, fmt.Errorf("storage: salt must be at least %d bytes", SaltLength)
	}
	return argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, adaptive.KeySize), nil
}

// LoadOrCreateSalt reads the salt stored at path, creating it with random
// bytes on first use. The salt must survive restarts for sealed data to
// stay readable.
func LoadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != SaltLength {
			return nil, fmt.Errorf("storage: salt file %s has %d bytes, want %d", path, len(salt), SaltLength)
		}
		return salt, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("storage: read salt: %w", err)
	}

	salt = make([]byte, SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("storage: generate salt: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage: create salt dir: %w", err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("storage: write salt: %w", err)
	}
	return salt, nil
}
