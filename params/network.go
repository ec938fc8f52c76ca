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

package params

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Network describes a known UOMI deployment of the agent contract.
type Network struct {
	Name        string
	RPC         string
	ChainID     uint64 // 0 means the chain id is queried from the node
	Contract    common.Address
	IpfsStorage common.Address
	Explorer    string
}

var (
	// FinneyNetwork is the network the agent contract was first published on.
	FinneyNetwork = Network{
		Name:        "finney",
		RPC:         "https://finney.uomi.ai/",
		Contract:    common.HexToAddress("0xDB5e49D00321ACC34C76Af6fa02E7D9766b6e0F5"),
		IpfsStorage: common.HexToAddress("0x2C236e3f14bC72242ba0e9CDDb367331A9E0102C"),
		Explorer:    "https://explorer.uomi.ai",
	}

	// TuringNetwork is the public testnet.
	TuringNetwork = Network{
		Name:     "turing",
		RPC:      "https://turing-a.uomi.ai",
		ChainID:  4386,
		Explorer: "https://explorer.uomi.ai",
	}

	// DevNetwork points at a local development node.
	DevNetwork = Network{
		Name:    "dev",
		RPC:     "http://127.0.0.1:8545",
		ChainID: 1337,
	}
)

var networks = map[string]Network{
	FinneyNetwork.Name: FinneyNetwork,
	TuringNetwork.Name: TuringNetwork,
	DevNetwork.Name:    DevNetwork,
}

// LookupNetwork returns the preset with the given name.
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[name]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q (known: %v)", name, NetworkNames())
	}
	return n, nil
}

// NetworkNames returns the sorted names of all presets.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
