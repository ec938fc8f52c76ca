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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/uomi-network/go-uomiagent/accounts"
	"gopkg.in/urfave/cli.v1"
)

var accountCommand = cli.Command{
	Name:     "account",
	Usage:    "Inspect the signing account",
	Category: "ACCOUNT COMMANDS",
	Description: `
The signing key is taken from --key (or the PRIVATE_KEY environment
variable), or from an encrypted --keystore file unlocked with --password.`,
	Subcommands: []cli.Command{
		{
			Name:   "address",
			Usage:  "Print the address of the signing key",
			Action: accountAddress,
		},
		{
			Name:      "sign",
			Usage:     "Sign a text message with the signing key",
			ArgsUsage: "<message>",
			Action:    accountSign,
		},
		{
			Name:      "verify",
			Usage:     "Check a text message signature",
			ArgsUsage: "<address> <signature> <message>",
			Action:    accountVerify,
		},
	},
}

func accountAddress(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	key, err := cfg.Key.Load()
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, accounts.Address(key).Hex())
	return nil
}

func accountSign(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need exactly one message argument")
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	key, err := cfg.Key.Load()
	if err != nil {
		return err
	}
	sig, err := accounts.SignText(key, []byte(ctx.Args().First()))
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, hexutil.Encode(sig))
	return nil
}

func accountVerify(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return errors.New("need <address> <signature> <message>")
	}
	addr, err := parseAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	sig, err := hexutil.Decode(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid signature: %v", err)
	}
	if !accounts.VerifyText(addr, []byte(ctx.Args().Get(2)), sig) {
		return errors.New("signature mismatch")
	}
	fmt.Fprintln(ctx.App.Writer, "signature valid")
	return nil
}
