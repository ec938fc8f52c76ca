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
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/urfave/cli.v1"
)

var codecCommand = cli.Command{
	Name:     "codec",
	Usage:    "Encode and decode agent payloads",
	Category: "MISCELLANEOUS COMMANDS",
	Description: `
The payload codec is configured with --codec.mode and --codec.key (or the
UOMI_CODEC_KEY environment variable). Text is read from the argument, or
from stdin when the argument is "-".`,
	Subcommands: []cli.Command{
		{
			Name:      "encode",
			Usage:     "Encode text into a hex payload",
			ArgsUsage: "<text>",
			Action:    codecEncode,
		},
		{
			Name:      "decode",
			Usage:     "Decode a hex payload into text",
			ArgsUsage: "<hex>",
			Action:    codecDecode,
		},
	},
}

func codecArg(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", errors.New("need exactly one argument")
	}
	arg := ctx.Args().First()
	if arg != "-" {
		return arg, nil
	}
	blob, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

func codecEncode(ctx *cli.Context) error {
	text, err := codecArg(ctx)
	if err != nil {
		return err
	}
	codec, err := makeCodec(ctx)
	if err != nil {
		return err
	}
	payload, err := codec.Encode(text)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, hexutil.Encode(payload))
	return nil
}

func codecDecode(ctx *cli.Context) error {
	arg, err := codecArg(ctx)
	if err != nil {
		return err
	}
	payload, err := hexutil.Decode(strings.TrimSpace(arg))
	if err != nil {
		return fmt.Errorf("invalid payload: %v", err)
	}
	codec, err := makeCodec(ctx)
	if err != nil {
		return err
	}
	text, err := codec.Decode(payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, text)
	return nil
}
