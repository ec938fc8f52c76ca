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

// Package units converts between decimal currency strings and integer base
// units, the way ether amounts are written by humans and stored on chain.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/uomi-network/go-uomiagent/params"
)

var (
	errEmptyAmount    = errors.New("empty amount")
	errNegativeAmount = errors.New("negative amount")
	errTooPrecise     = errors.New("amount has more decimals than the unit allows")
	errOverflow       = errors.New("amount does not fit in 256 bits")
)

// ParseUnits parses a decimal string such as "1.5" into an integer amount
// with the given number of decimals. The result always fits a uint256.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyAmount
	}
	if strings.HasPrefix(s, "-") {
		return nil, errNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %q", errTooPrecise, s)
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))

	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(big.Int), nil
	}
	v, err := uint256.FromDecimal(digits)
	if errors.Is(err, uint256.ErrBig256Range) {
		return nil, fmt.Errorf("%w: %q", errOverflow, s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %v", s, err)
	}
	return v.ToBig(), nil
}

// ParseEther parses a decimal ether amount into wei.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, params.EtherDecimals)
}

// FormatUnits renders an integer amount with the given number of decimals,
// trimming insignificant zeros ("1.5", "0", "0.000001").
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	digits := new(big.Int).Abs(v).String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	whole, frac := digits[:len(digits)-decimals], strings.TrimRight(digits[len(digits)-decimals:], "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FormatEther renders a wei amount as decimal ether.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, params.EtherDecimals)
}

// FitsUint256 reports whether v can be passed as a uint256 contract argument.
func FitsUint256(v *big.Int) bool {
	if v == nil || v.Sign() < 0 {
		return false
	}
	_, overflow := uint256.FromBig(v)
	return !overflow
}
