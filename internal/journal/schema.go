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

package journal

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// requestPrefix + requestID (uint256 big endian) -> Entry
	requestPrefix = []byte("r")

	// ticketPrefix + ticket -> requestID
	ticketPrefix = []byte("t")
)

// requestKey = requestPrefix + requestID (uint256 big endian). Fixed width keeps
// iteration in numeric order.
func requestKey(id *big.Int) []byte {
	return append(append([]byte{}, requestPrefix...), common.BigToHash(id).Bytes()...)
}

// ticketKey = ticketPrefix + ticket
func ticketKey(ticket string) []byte {
	return append(append([]byte{}, ticketPrefix...), ticket...)
}
