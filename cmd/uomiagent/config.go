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
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/naoina/toml"
	"github.com/uomi-network/go-uomiagent/accounts"
	"github.com/uomi-network/go-uomiagent/agentclient"
	"github.com/uomi-network/go-uomiagent/common/units"
	"github.com/uomi-network/go-uomiagent/crypto/blockcodec"
	"github.com/uomi-network/go-uomiagent/params"
	"gopkg.in/urfave/cli.v1"
)

var dumpConfigCommand = cli.Command{
	Action:      dumpConfig,
	Name:        "dumpconfig",
	Usage:       "Show configuration values",
	ArgsUsage:   "[<file>]",
	Category:    "MISCELLANEOUS COMMANDS",
	Description: `The dumpconfig command shows the effective configuration, with flags applied.`,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type uomiagentConfig struct {
	Client agentclient.Config
	Key    accounts.KeyConfig
}

func defaultConfig() uomiagentConfig {
	return uomiagentConfig{Client: agentclient.Defaults}
}

func loadConfig(file string, cfg *uomiagentConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration file, if any, and applies the flags.
func makeConfig(ctx *cli.Context) (uomiagentConfig, error) {
	cfg := defaultConfig()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyFlags(ctx, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFlags(ctx *cli.Context, cfg *uomiagentConfig) error {
	if ctx.GlobalIsSet(networkFlag.Name) {
		n, err := params.LookupNetwork(ctx.GlobalString(networkFlag.Name))
		if err != nil {
			return err
		}
		cfg.Client.SetNetwork(n)
	}
	if ctx.GlobalIsSet(rpcFlag.Name) {
		cfg.Client.RPC = ctx.GlobalString(rpcFlag.Name)
	}
	if ctx.GlobalIsSet(contractFlag.Name) {
		addr, err := parseAddress(ctx.GlobalString(contractFlag.Name))
		if err != nil {
			return fmt.Errorf("--%s: %v", contractFlag.Name, err)
		}
		cfg.Client.Contract = addr
	}
	if ctx.GlobalIsSet(chainIDFlag.Name) {
		cfg.Client.ChainID = ctx.GlobalUint64(chainIDFlag.Name)
	}
	if ctx.GlobalIsSet(tipFlag.Name) {
		tip, err := units.ParseUnits(ctx.GlobalString(tipFlag.Name), 9)
		if err != nil {
			return fmt.Errorf("--%s: %v", tipFlag.Name, err)
		}
		cfg.Client.GasTipCap = tip
	}
	if ctx.GlobalIsSet(codecModeFlag.Name) {
		cfg.Client.Codec.Mode = blockcodec.Mode(ctx.GlobalString(codecModeFlag.Name))
	}
	if key := ctx.GlobalString(codecKeyFlag.Name); key != "" {
		cfg.Client.Codec.Key = key
	}
	if ctx.GlobalIsSet(journalFlag.Name) {
		cfg.Client.Journal = ctx.GlobalString(journalFlag.Name)
	}
	if ctx.GlobalBool(noJournalFlag.Name) {
		cfg.Client.Journal = ""
	}
	if key := ctx.GlobalString(keyFlag.Name); key != "" {
		cfg.Key.Hex = key
	}
	if ctx.GlobalIsSet(keystoreFlag.Name) {
		cfg.Key.Keystore = ctx.GlobalString(keystoreFlag.Name)
	}
	if ctx.GlobalIsSet(passwordFlag.Name) {
		cfg.Key.PasswordFile = ctx.GlobalString(passwordFlag.Name)
	}
	return nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	comment := ""
	if cfg.Client.Codec.Key != "" {
		cfg.Client.Codec.Key = ""
		comment += "# Note: this config doesn't contain the codec key.\n\n"
	}

	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	fmt.Fprint(dump, comment)
	_, err = dump.Write(out)
	return err
}
