// Copyright 2025 The go-uomiagent Authors
// This file is part of go-uomiagent.
//
// go-uomiagent is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-uomiagent is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-uomiagent. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"strings"

	"github.com/uomi-network/go-uomiagent/params"
	"gopkg.in/urfave/cli.v1"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	networkFlag = cli.StringFlag{
		Name:  "network",
		Usage: "Network preset (" + strings.Join(params.NetworkNames(), ", ") + ")",
	}
	rpcFlag = cli.StringFlag{
		Name:  "rpc",
		Usage: "JSON-RPC endpoint of a UOMI node",
	}
	contractFlag = cli.StringFlag{
		Name:  "contract",
		Usage: "Address of the agent contract",
	}
	chainIDFlag = cli.Uint64Flag{
		Name:  "chainid",
		Usage: "Chain id to sign for (0 = ask the node)",
	}
	keyFlag = cli.StringFlag{
		Name:   "key",
		Usage:  "Hex encoded private key of the signing account",
		EnvVar: "PRIVATE_KEY",
	}
	keystoreFlag = cli.StringFlag{
		Name:  "keystore",
		Usage: "Encrypted key file of the signing account",
	}
	passwordFlag = cli.StringFlag{
		Name:  "password",
		Usage: "File holding the keystore password",
	}
	tipFlag = cli.StringFlag{
		Name:  "tip",
		Usage: "Priority fee per gas in gwei",
	}
	codecModeFlag = cli.StringFlag{
		Name:  "codec.mode",
		Usage: "Payload codec (legacy, framed, sealed)",
	}
	codecKeyFlag = cli.StringFlag{
		Name:   "codec.key",
		Usage:  "Hex encoded payload codec key",
		EnvVar: "UOMI_CODEC_KEY",
	}
	journalFlag = cli.StringFlag{
		Name:  "journal",
		Usage: "Request journal directory",
	}
	noJournalFlag = cli.BoolFlag{
		Name:  "nojournal",
		Usage: "Do not record submitted requests",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	logJSONFlag = cli.BoolFlag{
		Name:  "log.json",
		Usage: "Format logs with JSON",
	}
	metricsFlag = cli.BoolFlag{
		Name:  "metrics",
		Usage: "Collect client metrics and print them on exit",
	}

	// Command flags
	toFlag = cli.StringFlag{
		Name:  "to",
		Usage: "Recipient account (default: the signer)",
	}
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "Only list agents of this account",
	}
	inputCIDFlag = cli.StringFlag{
		Name:  "input-cid",
		Usage: "CID of an input file stored on IPFS",
	}
	waitFlag = cli.BoolFlag{
		Name:  "wait",
		Usage: "Wait for the agent output",
	}
	fetchFlag = cli.BoolFlag{
		Name:  "fetch",
		Usage: "Claim and read the result once the output is settled",
	}
	yamlFlag = cli.BoolFlag{
		Name:  "yaml",
		Usage: "Print the agent as a manifest",
	}
	roleFlag = cli.StringFlag{
		Name:  "role",
		Usage: "Hex encoded role id (default: admin role)",
	}
)

var globalFlags = []cli.Flag{
	configFileFlag,
	networkFlag,
	rpcFlag,
	contractFlag,
	chainIDFlag,
	keyFlag,
	keystoreFlag,
	passwordFlag,
	tipFlag,
	codecModeFlag,
	codecKeyFlag,
	journalFlag,
	noJournalFlag,
	verbosityFlag,
	logJSONFlag,
	metricsFlag,
}
