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

// Package blockcodec implements the symmetric payload encoding shared with the
// off-chain agent runtime.
//
// The legacy wire format pads text with ASCII spaces to a multiple of the
// 16 byte AES block size and encrypts every block independently (ECB, no IV).
// Equal plaintext blocks therefore produce equal ciphertext blocks, and a text
// ending in spaces cannot be told apart from its padding. The framed and
// sealed modes exist for deployments that are not bound to that format.
package blockcodec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// BlockSize is the cipher block size every legacy and framed payload is
	// aligned to.
	BlockSize = 16

	// MaxPlaintextSize is the largest text Encode accepts.
	MaxPlaintextSize = 1 << 20

	padByte = ' '
)

var (
	// ErrInputTooLarge is returned by Encode for texts over MaxPlaintextSize.
	ErrInputTooLarge = errors.New("plaintext exceeds 1 MiB")

	// ErrMalformedCiphertext is returned by Decode when the payload cannot
	// have been produced by Encode.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// ErrAuthentication is returned when a sealed payload fails verification.
	ErrAuthentication = errors.New("payload authentication failed")

	errInvalidKey = errors.New("invalid codec key")
)

// Mode selects the payload format.
type Mode string

const (
	// ModeLegacy is the space padded ECB format understood by the agent runtime.
	ModeLegacy Mode = "legacy"

	// ModeFramed prefixes the text with its length before padding, so
	// trailing spaces survive a round trip.
	ModeFramed Mode = "framed"

	// ModeSealed encrypts with XChaCha20-Poly1305 and a random nonce.
	ModeSealed Mode = "sealed"
)

// Codec encodes text into an on-chain payload and back.
type Codec interface {
	Encode(plaintext string) ([]byte, error)
	Decode(ciphertext []byte) (string, error)
}

// Config selects and keys a codec.
type Config struct {
	Mode Mode
	Key  string `toml:",omitempty"` // hex encoded, 16, 24 or 32 bytes
}

// DefaultConfig is the codec configuration expected by the agent runtime.
// The key has to be supplied by the operator.
var DefaultConfig = Config{
	Mode: ModeLegacy,
}

// New creates the codec described by the config.
func New(cfg Config) (Codec, error) {
	key, err := parseKey(cfg.Key)
	if err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeLegacy, "":
		return NewLegacy(key)
	case ModeFramed:
		return NewFramed(key)
	case ModeSealed:
		return NewSealed(key)
	default:
		return nil, fmt.Errorf("unknown codec mode %q", cfg.Mode)
	}
}

// parseKey decodes a hex key, with or without 0x prefix.
func parseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: no key configured", errInvalidKey)
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	key, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidKey, err)
	}
	return key, checkKeyLen(key)
}

func checkKeyLen(key []byte) error {
	switch len(key) {
	case 16, 24, 32:
		return nil
	}
	return fmt.Errorf("%w: length %d, want 16, 24 or 32 bytes", errInvalidKey, len(key))
}
