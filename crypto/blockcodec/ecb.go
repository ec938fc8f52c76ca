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
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
)

// frameHeaderSize is the length prefix of framed payloads.
const frameHeaderSize = 4

// BlockCodec is the space padded AES-ECB codec. It is safe for concurrent use.
type BlockCodec struct {
	block  cipher.Block
	framed bool
}

// NewLegacy creates the codec used by the off-chain runtime.
func NewLegacy(key []byte) (*BlockCodec, error) {
	return newBlockCodec(key, false)
}

// NewFramed creates a block codec that stores the text length in the first
// encrypted block.
func NewFramed(key []byte) (*BlockCodec, error) {
	return newBlockCodec(key, true)
}

func newBlockCodec(key []byte, framed bool) (*BlockCodec, error) {
	if err := checkKeyLen(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidKey, err)
	}
	return &BlockCodec{block: block, framed: framed}, nil
}

// Encode pads the text with spaces to a whole number of blocks and encrypts
// every block on its own. A text whose length is already a multiple of
// BlockSize gets no padding, so the empty string encodes to nothing in
// legacy mode.
func (c *BlockCodec) Encode(plaintext string) ([]byte, error) {
	if len(plaintext) > MaxPlaintextSize {
		return nil, ErrInputTooLarge
	}
	size := len(plaintext)
	if c.framed {
		size += frameHeaderSize
	}
	if rem := size % BlockSize; rem != 0 {
		size += BlockSize - rem
	}
	buf := make([]byte, size)
	off := 0
	if c.framed {
		binary.BigEndian.PutUint32(buf, uint32(len(plaintext)))
		off = frameHeaderSize
	}
	n := copy(buf[off:], plaintext)
	for i := off + n; i < len(buf); i++ {
		buf[i] = padByte
	}
	for i := 0; i < len(buf); i += BlockSize {
		c.block.Encrypt(buf[i:i+BlockSize], buf[i:i+BlockSize])
	}
	return buf, nil
}

// Decode decrypts every block and removes the padding. In legacy mode the
// trailing spaces of the final block are stripped, which also removes spaces
// that belonged to the original text.
func (c *BlockCodec) Decode(ciphertext []byte) (string, error) {
	if len(ciphertext)%BlockSize != 0 {
		return "", fmt.Errorf("%w: length %d is not a multiple of %d", ErrMalformedCiphertext, len(ciphertext), BlockSize)
	}
	buf := make([]byte, len(ciphertext))
	for i := 0; i < len(buf); i += BlockSize {
		c.block.Decrypt(buf[i:i+BlockSize], ciphertext[i:i+BlockSize])
	}
	if c.framed {
		return unframe(buf)
	}
	return string(trimFinalBlock(buf)), nil
}

// trimFinalBlock drops trailing pad bytes, never looking past the start of
// the last block.
func trimFinalBlock(buf []byte) []byte {
	if len(buf) == 0 {
		return buf
	}
	start := len(buf) - BlockSize
	end := len(buf)
	for end > start && buf[end-1] == padByte {
		end--
	}
	return buf[:end]
}

func unframe(buf []byte) (string, error) {
	if len(buf) < frameHeaderSize {
		return "", fmt.Errorf("%w: missing length header", ErrMalformedCiphertext)
	}
	n := binary.BigEndian.Uint32(buf)
	body := buf[frameHeaderSize:]
	if uint64(n) > uint64(len(body)) || len(body)-int(n) >= BlockSize {
		return "", fmt.Errorf("%w: length header %d does not match %d payload bytes", ErrMalformedCiphertext, n, len(body))
	}
	if !bytes.Equal(body[n:], bytes.Repeat([]byte{padByte}, len(body)-int(n))) {
		return "", fmt.Errorf("%w: corrupt padding", ErrMalformedCiphertext)
	}
	return string(body[:n]), nil
}
