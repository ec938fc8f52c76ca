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

// Package accounts loads the signing key used to send contract transactions.
package accounts

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrNoKey        = errors.New("no signing key configured")
	ErrAmbiguousKey = errors.New("both a raw key and a keystore file are configured")
)

// KeyConfig names where the signing key comes from. Exactly one of Hex and
// Keystore should be set.
type KeyConfig struct {
	Hex          string `toml:"-"`
	Keystore     string `toml:",omitempty"`
	PasswordFile string `toml:",omitempty"`
}

// Load resolves the configured key.
func (c KeyConfig) Load() (*ecdsa.PrivateKey, error) {
	switch {
	case c.Hex != "" && c.Keystore != "":
		return nil, ErrAmbiguousKey
	case c.Hex != "":
		return FromHex(c.Hex)
	case c.Keystore != "":
		password, err := readPassword(c.PasswordFile)
		if err != nil {
			return nil, err
		}
		return FromKeystore(c.Keystore, password)
	}
	return nil, ErrNoKey
}

// FromHex parses a hex encoded secp256k1 key, with or without 0x prefix.
func FromHex(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// FromKeystore decrypts a web3 secret storage file.
func FromKeystore(path, password string) (*ecdsa.PrivateKey, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := keystore.DecryptKey(blob, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", path, err)
	}
	return key.PrivateKey, nil
}

func readPassword(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read password file: %w", err)
	}
	// Only the first line counts, like every other keystore tool.
	return strings.TrimRight(strings.SplitN(string(blob), "\n", 2)[0], "\r"), nil
}

// Address returns the account of a key.
func Address(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

// SignText signs msg the way personal_sign does, so agent owners can prove
// control of an account off chain.
func SignText(key *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// VerifyText reports whether sig is a personal_sign signature of msg by addr.
func VerifyText(addr common.Address, msg, sig []byte) bool {
	if len(sig) != crypto.SignatureLength || (sig[crypto.RecoveryIDOffset] != 27 && sig[crypto.RecoveryIDOffset] != 28) {
		return false
	}
	cpy := append([]byte(nil), sig...)
	cpy[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(msg), cpy)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == addr
}
