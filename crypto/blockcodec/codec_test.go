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
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f"

func newTestCodec(t *testing.T, mode Mode) Codec {
	t.Helper()
	c, err := New(Config{Mode: mode, Key: testKey})
	require.NoError(t, err)
	return c
}

// The single block case must match the FIPS-197 AES-128 vector, since the
// runtime on the other side is a plain AES implementation.
func TestLegacyKnownAnswer(t *testing.T) {
	c := newTestCodec(t, ModeLegacy)
	plain := string(hexutil.MustDecode("0x00112233445566778899aabbccddeeff"))

	out, err := c.Encode(plain)
	require.NoError(t, err)
	assert.Equal(t, "0x69c4e0d86a7b0430d8cdb78070b4c55a", hexutil.Encode(out))
}

func TestLegacyHelloWorld(t *testing.T) {
	c := newTestCodec(t, ModeLegacy)

	out, err := c.Encode("Hello World!")
	require.NoError(t, err)
	require.Len(t, out, BlockSize)

	padded, err := c.Encode("Hello World!    ")
	require.NoError(t, err)
	assert.Equal(t, padded, out, "padding should be four ASCII spaces")

	back, err := c.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "Hello World!", back)
}

func TestLegacyEmpty(t *testing.T) {
	c := newTestCodec(t, ModeLegacy)

	out, err := c.Encode("")
	require.NoError(t, err)
	assert.Empty(t, out, "empty text is already block aligned and gets no padding block")

	back, err := c.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "", back)
}

func TestLegacyAlignedInputNoExtraBlock(t *testing.T) {
	c := newTestCodec(t, ModeLegacy)
	for _, n := range []int{16, 32, 160} {
		out, err := c.Encode(strings.Repeat("x", n))
		require.NoError(t, err)
		assert.Len(t, out, n)
	}
	out, err := c.Encode(strings.Repeat("x", 17))
	require.NoError(t, err)
	assert.Len(t, out, 32)
}

func TestLegacyDeterministic(t *testing.T) {
	c := newTestCodec(t, ModeLegacy)
	text := strings.Repeat("A", 2*BlockSize)

	a, err := c.Encode(text)
	require.NoError(t, err)
	b, err := c.Encode(text)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Known weakness of the wire format: equal blocks leak.
	assert.Equal(t, a[:BlockSize], a[BlockSize:])
}

func TestLegacyTrailingSpaces(t *testing.T) {
	c := newTestCodec(t, ModeLegacy)

	out, err := c.Encode("abc  ")
	require.NoError(t, err)
	back, err := c.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "abc", back, "legacy format cannot preserve trailing spaces")

	// Spaces in the middle of the final block are kept.
	out, err = c.Encode("a b c")
	require.NoError(t, err)
	back, err = c.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "a b c", back)
}

func TestLegacyStripsFinalBlockOnly(t *testing.T) {
	c := newTestCodec(t, ModeLegacy)
	text := "a" + strings.Repeat(" ", 20)

	out, err := c.Encode(text)
	require.NoError(t, err)
	require.Len(t, out, 2*BlockSize)

	back, err := c.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "a"+strings.Repeat(" ", BlockSize-1), back)
}

func TestEncodeSizeLimit(t *testing.T) {
	for _, mode := range []Mode{ModeLegacy, ModeFramed, ModeSealed} {
		c := newTestCodec(t, mode)

		_, err := c.Encode(strings.Repeat("a", MaxPlaintextSize+1))
		assert.ErrorIs(t, err, ErrInputTooLarge, "mode %s", mode)

		out, err := c.Encode(strings.Repeat("a", MaxPlaintextSize))
		require.NoError(t, err, "mode %s", mode)
		assert.GreaterOrEqual(t, len(out), MaxPlaintextSize)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, mode := range []Mode{ModeLegacy, ModeFramed} {
		c := newTestCodec(t, mode)
		for _, n := range []int{1, 15, 17, 33} {
			_, err := c.Decode(make([]byte, n))
			assert.ErrorIs(t, err, ErrMalformedCiphertext, "mode %s length %d", mode, n)
		}
	}
}

func TestFramedRoundTrip(t *testing.T) {
	c := newTestCodec(t, ModeFramed)
	for _, text := range []string{"", " ", "abc  ", "Hello World!", strings.Repeat("z", 12), strings.Repeat(" ", 40), "ciao come stai"} {
		out, err := c.Encode(text)
		require.NoError(t, err)
		assert.Zero(t, len(out)%BlockSize)

		back, err := c.Decode(out)
		require.NoError(t, err)
		assert.Equal(t, text, back)
	}
}

func TestFramedRejectsLegacyPayload(t *testing.T) {
	legacy := newTestCodec(t, ModeLegacy)
	framed := newTestCodec(t, ModeFramed)

	out, err := legacy.Encode("not a framed payload at all")
	require.NoError(t, err)
	_, err = framed.Decode(out)
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestSealed(t *testing.T) {
	c := newTestCodec(t, ModeSealed)

	a, err := c.Encode("trailing  ")
	require.NoError(t, err)
	b, err := c.Encode("trailing  ")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "every message gets a fresh nonce")

	back, err := c.Decode(a)
	require.NoError(t, err)
	assert.Equal(t, "trailing  ", back)

	tampered := bytes.Clone(a)
	tampered[len(tampered)-1] ^= 0x01
	_, err = c.Decode(tampered)
	assert.ErrorIs(t, err, ErrAuthentication)

	_, err = c.Decode(a[:10])
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestKeysAreIndependent(t *testing.T) {
	a := newTestCodec(t, ModeLegacy)
	b, err := New(Config{Mode: ModeLegacy, Key: "0x0f0e0d0c0b0a09080706050403020100"})
	require.NoError(t, err)

	x, err := a.Encode("same text")
	require.NoError(t, err)
	y, err := b.Encode("same text")
	require.NoError(t, err)
	assert.NotEqual(t, x, y)
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default mode", Config{Key: testKey}, true},
		{"prefixed key", Config{Mode: ModeLegacy, Key: "0x" + testKey}, true},
		{"aes-256", Config{Mode: ModeFramed, Key: testKey + testKey}, true},
		{"sealed", Config{Mode: ModeSealed, Key: testKey}, true},
		{"missing key", Config{Mode: ModeLegacy}, false},
		{"short key", Config{Mode: ModeLegacy, Key: "0011"}, false},
		{"bad hex", Config{Mode: ModeLegacy, Key: "zz"}, false},
		{"unknown mode", Config{Mode: "cbc", Key: testKey}, false},
	}
	for _, tt := range tests {
		_, err := New(tt.cfg)
		if tt.ok {
			assert.NoError(t, err, tt.name)
		} else {
			assert.Error(t, err, tt.name)
		}
	}
}
