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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/urfave/cli.v1"
)

var adminCommand = cli.Command{
	Name:     "admin",
	Usage:    "Contract administration (requires the admin role)",
	Category: "ADMIN COMMANDS",
	Subcommands: []cli.Command{
		{
			Name:      "set-ipfs",
			Usage:     "Set the IPFS storage contract address",
			ArgsUsage: "<address>",
			Action:    adminSetIpfs,
		},
		{
			Name:   "cash-out",
			Usage:  "Withdraw the collected fees to the signer",
			Action: adminCashOut,
		},
		{
			Name:      "grant-role",
			Usage:     "Grant a role to an account",
			ArgsUsage: "<account>",
			Action:    adminGrantRole,
			Flags:     []cli.Flag{roleFlag},
		},
		{
			Name:      "revoke-role",
			Usage:     "Revoke a role from an account",
			ArgsUsage: "<account>",
			Action:    adminRevokeRole,
			Flags:     []cli.Flag{roleFlag},
		},
	},
}

func adminSetIpfs(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need exactly one address argument")
	}
	addr, err := parseAddress(ctx.Args().First())
	if err != nil {
		return err
	}
	cctx, cancel := commandContext()
	defer cancel()

	client, err := makeClient(ctx, cctx, true)
	if err != nil {
		return err
	}
	defer client.Close()

	receipt, err := client.SetIpfsStorage(cctx, addr)
	if err != nil {
		return err
	}
	log.Info("IPFS storage updated", "storage", addr, "tx", receipt.TxHash)
	return nil
}

func adminCashOut(ctx *cli.Context) error {
	cctx, cancel := commandContext()
	defer cancel()

	client, err := makeClient(ctx, cctx, true)
	if err != nil {
		return err
	}
	defer client.Close()

	receipt, err := client.CashOut(cctx)
	if err != nil {
		return err
	}
	log.Info("Fees withdrawn", "to", client.Address(), "tx", receipt.TxHash)
	return nil
}

// parseRole reads --role; the zero role is the contract's admin role.
func parseRole(ctx *cli.Context) ([32]byte, error) {
	var role [32]byte
	if !ctx.IsSet(roleFlag.Name) {
		return role, nil
	}
	b, err := hexutil.Decode(ctx.String(roleFlag.Name))
	if err != nil || len(b) != common.HashLength {
		return role, fmt.Errorf("invalid role %q, want 32 hex encoded bytes", ctx.String(roleFlag.Name))
	}
	copy(role[:], b)
	return role, nil
}

func adminGrantRole(ctx *cli.Context) error {
	return changeRole(ctx, true)
}

func adminRevokeRole(ctx *cli.Context) error {
	return changeRole(ctx, false)
}

func changeRole(ctx *cli.Context, grant bool) error {
	if ctx.NArg() != 1 {
		return errors.New("need exactly one account argument")
	}
	account, err := parseAddress(ctx.Args().First())
	if err != nil {
		return err
	}
	role, err := parseRole(ctx)
	if err != nil {
		return err
	}
	cctx, cancel := commandContext()
	defer cancel()

	client, err := makeClient(ctx, cctx, true)
	if err != nil {
		return err
	}
	defer client.Close()

	if grant {
		_, err = client.GrantRole(cctx, role, account)
	} else {
		_, err = client.RevokeRole(cctx, role, account)
	}
	if err != nil {
		return err
	}
	log.Info("Role updated", "role", common.Hash(role), "account", account, "granted", grant)
	return nil
}
