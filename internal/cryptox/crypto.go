// Package cryptox holds the primitives behind the credential store:
// the AES-GCM file envelope, bcrypt password hashes and key material.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/facegate/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of the file encryption key (AES-256).
const KeySize = 32

const (
	envelopeVersion byte = 0x01
	nonceSize            = 12
	tagSize              = 16
)

var (
	ErrInvalidKeyOrCorruptFile = fmt.Errorf("%w: invalid key or corrupt file", common.ErrStoreFault)
	ErrMalformedKey            = fmt.Errorf("%w: malformed key", common.ErrStoreFault)
)

// DeriveKey stretches a passphrase into a file key with argon2id.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedKey, len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under key. The envelope is
// version(1) || nonce(12) || ciphertext+tag.
func Seal(key, plaintext []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(nonceSize)

	out := make([]byte, 0, 1+nonceSize+len(plaintext)+tagSize)
	out = append(out, envelopeVersion)
	out = append(out, nonce...)
	return aesgcm.Seal(out, nonce, plaintext, nil), nil
}

// Open reverses Seal. Any envelope that does not authenticate under key,
// including truncated or foreign data, yields ErrInvalidKeyOrCorruptFile.
func Open(key, envelope []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(envelope) < 1+nonceSize+tagSize {
		return nil, fmt.Errorf("%w: envelope too short", ErrInvalidKeyOrCorruptFile)
	}
	if envelope[0] != envelopeVersion {
		return nil, fmt.Errorf("%w: unknown envelope version %#x", ErrInvalidKeyOrCorruptFile, envelope[0])
	}

	nonce := envelope[1 : 1+nonceSize]
	plaintext, err := aesgcm.Open(nil, nonce, envelope[1+nonceSize:], nil)
	if err != nil {
		return nil, ErrInvalidKeyOrCorruptFile
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// IsSealed reports whether data starts like a Seal envelope.
func IsSealed(data []byte) bool {
	return len(data) >= 1+nonceSize+tagSize && bytes.HasPrefix(data, []byte{envelopeVersion})
}
