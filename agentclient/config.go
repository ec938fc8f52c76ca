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

package agentclient

import (
	"errors"
	"math/big"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uomi-network/go-uomiagent/crypto/blockcodec"
	"github.com/uomi-network/go-uomiagent/params"
)

var errBadPoll = errors.New("invalid poll configuration")

// PollConfig shapes the wait for a request output.
type PollConfig struct {
	Interval    time.Duration // Delay before the second attempt
	MaxInterval time.Duration // Upper bound of the backoff delay
	Multiplier  float64       // Growth factor applied after every attempt
	MaxAttempts int           // Attempts before giving up, 0 means until the context ends
}

// DefaultPollConfig replaces the fixed sleeps agents were historically awaited
// with. Validators need a few blocks, so the first retries come quickly and
// later ones back off.
var DefaultPollConfig = PollConfig{
	Interval:    2 * time.Second,
	MaxInterval: 30 * time.Second,
	Multiplier:  1.5,
	MaxAttempts: 40,
}

func (c PollConfig) validate() error {
	switch {
	case c.Interval <= 0:
		return errBadPoll
	case c.MaxInterval < c.Interval:
		return errBadPoll
	case c.Multiplier < 1:
		return errBadPoll
	case c.MaxAttempts < 0:
		return errBadPoll
	}
	return nil
}

// Defaults contains default settings for the finney deployment.
var Defaults = Config{
	Network:        params.FinneyNetwork.Name,
	RPC:            params.FinneyNetwork.RPC,
	Contract:       params.FinneyNetwork.Contract,
	GasTipCap:      big.NewInt(params.GWei / 2),
	ReceiptTimeout: 2 * time.Minute,
	Poll:           DefaultPollConfig,
	AgentCacheSize: 256,
	RPCRateLimit:   10,
	RPCRateBurst:   20,
	ValidateInput:  true,
	Codec:          blockcodec.DefaultConfig,
}

func init() {
	home := os.Getenv("HOME")
	if home == "" {
		if user, err := user.Current(); err == nil {
			home = user.HomeDir
		}
	}
	if runtime.GOOS == "darwin" {
		Defaults.Journal = filepath.Join(home, "Library", "UomiAgent", "journal")
	} else if runtime.GOOS == "windows" {
		localappdata := os.Getenv("LOCALAPPDATA")
		if localappdata != "" {
			Defaults.Journal = filepath.Join(localappdata, "UomiAgent", "journal")
		} else {
			Defaults.Journal = filepath.Join(home, "AppData", "Local", "UomiAgent", "journal")
		}
	} else {
		Defaults.Journal = filepath.Join(home, ".uomiagent", "journal")
	}
}

// Config contains the settings of an agent client.
type Config struct {
	// Deployment
	Network  string         // Preset the endpoint and contract were taken from
	RPC      string         // JSON-RPC endpoint of a UOMI node
	Contract common.Address // Address of the agent contract
	ChainID  uint64         // Chain id used for signing, 0 queries the node

	// Transaction options
	GasTipCap      *big.Int      `toml:",omitempty"` // Priority fee, nil uses the node's suggestion
	GasLimit       uint64        // Fixed gas limit, 0 estimates every transaction
	MintValue      *big.Int      `toml:",omitempty"` // Value sent with safeMint, nil reads FIXED_PRICE
	ReceiptTimeout time.Duration // Wait for a receipt at most this long, 0 waits for the context

	// Reads
	Poll           PollConfig
	AgentCacheSize int     // Number of agent records kept in memory
	RPCRateLimit   float64 // Contract reads per second, 0 disables throttling
	RPCRateBurst   int

	ValidateInput bool // Check call inputs against the agent input schema
	EncodeInput   bool // Encode call inputs with the codec before submission

	Journal string // Request journal directory, empty disables it

	Codec blockcodec.Config
}

// SetNetwork points the config at a preset deployment. Fields the preset leaves
// unset keep their current value.
func (c *Config) SetNetwork(n params.Network) {
	c.Network = n.Name
	c.RPC = n.RPC
	c.ChainID = n.ChainID
	if n.Contract != (common.Address{}) {
		c.Contract = n.Contract
	}
}
