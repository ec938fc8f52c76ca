// Copyright 2025 The go-uomiagent Authors
// This file is part of the go-uomiagent library.
//
// The go-uomiagent library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-uomiagent library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-uomiagent library. If not, see <http://www.gnu.org/licenses/>.

package blockcodec

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var sealedKeyInfo = []byte("uomi-agent sealed payload v1")

// SealedCodec encrypts payloads with XChaCha20-Poly1305. Every Encode draws a
// fresh nonce which is stored in front of the ciphertext.
type SealedCodec struct {
	aead cipher.AEAD
	rand io.Reader
}

// NewSealed derives the AEAD key from the configured key with HKDF-SHA256.
func NewSealed(key []byte) (*SealedCodec, error) {
	if err := checkKeyLen(key); err != nil {
		return nil, err
	}
	derived := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, sealedKeyInfo), derived); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, err
	}
	return &SealedCodec{aead: aead, rand: rand.Reader}, nil
}

// Encode seals the text. The output is nonce || ciphertext || tag.
func (c *SealedCodec) Encode(plaintext string) ([]byte, error) {
	if len(plaintext) > MaxPlaintextSize {
		return nil, ErrInputTooLarge
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, fmt.Errorf("failed to draw nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decode opens a payload produced by Encode.
func (c *SealedCodec) Decode(ciphertext []byte) (string, error) {
	if len(ciphertext) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", fmt.Errorf("%w: %d bytes is shorter than nonce and tag", ErrMalformedCiphertext, len(ciphertext))
	}
	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plain), nil
}
