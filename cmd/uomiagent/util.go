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
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"os/signal"

	"github.com/uomi-network/go-uomiagent/agentclient"
	"github.com/uomi-network/go-uomiagent/crypto/blockcodec"
	"github.com/uomi-network/go-uomiagent/internal/journal"
	"gopkg.in/urfave/cli.v1"
)

// commandContext is cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// signingKey loads the configured key; it is optional for read-only commands.
func signingKey(cfg uomiagentConfig, required bool) (*ecdsa.PrivateKey, error) {
	if cfg.Key.Hex == "" && cfg.Key.Keystore == "" && !required {
		return nil, nil
	}
	return cfg.Key.Load()
}

// makeClient dials the configured node.
func makeClient(ctx *cli.Context, cctx context.Context, needKey bool) (*agentclient.Client, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	key, err := signingKey(cfg, needKey)
	if err != nil {
		return nil, err
	}
	return agentclient.Dial(cctx, cfg.Client, key)
}

func makeCodec(ctx *cli.Context) (blockcodec.Codec, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	return blockcodec.New(cfg.Client.Codec)
}

func openJournal(ctx *cli.Context) (*journal.Journal, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Client.Journal == "" {
		return nil, fmt.Errorf("request journal is disabled")
	}
	return journal.Open(cfg.Client.Journal)
}

// parseBig parses a decimal or 0x prefixed integer argument.
func parseBig(what, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", what, s)
	}
	return v, nil
}

// argBig parses positional argument i.
func argBig(ctx *cli.Context, i int, what string) (*big.Int, error) {
	if ctx.NArg() <= i {
		return nil, fmt.Errorf("missing %s argument", what)
	}
	return parseBig(what, ctx.Args().Get(i))
}
