// Package sealbox encrypts sensitive application fields before they are stored.
//
// Sealed values are base64url strings of nonce||secretbox(ciphertext). The key
// is derived from a configured secret with HKDF-SHA256.
package sealbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	hkdfInfo  = "proxybid field sealing v1"
)

var (
	ErrEmptySecret = errors.New("sealbox: empty secret")
	ErrMalformed   = errors.New("sealbox: malformed sealed value")
	ErrOpen        = errors.New("sealbox: cannot open sealed value")
)

// Box seals and opens values with a single key
type Box struct {
	key [keySize]byte
}

// New derives the sealing key from secret
func New(secret string) (*Box, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	b := &Box{}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, b.key[:]); err != nil {
		return nil, err
	}
	return b, nil
}

// Seal encrypts plaintext with a fresh random nonce
func (b *Box) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}

	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal
func (b *Box) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrMalformed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	out, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrOpen
	}
	return string(out), nil
}

// Mask hides all but the last visible characters of s, e.g. for resident IDs in listings
func Mask(s string, visible int) string {
	r := []rune(s)
	if visible < 0 {
		visible = 0
	}
	if len(r) <= visible {
		return s
	}
	for i := 0; i < len(r)-visible; i++ {
		if r[i] != '-' {
			r[i] = '*'
		}
	}
	return string(r)
}
