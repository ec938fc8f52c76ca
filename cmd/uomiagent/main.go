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

// uomiagent is a command line client for the UOMI agent contract.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/uomi-network/go-uomiagent/params"
	"gopkg.in/urfave/cli.v1"
)

const clientIdentifier = "uomiagent"

var (
	// Git information set by linker when building with ci.go.
	gitCommit = ""
	gitDate   = ""

	app = newApp()
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = clientIdentifier
	app.Usage = "the UOMI agent contract command line interface"
	app.Version = params.VersionWithCommit(gitCommit, gitDate)
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		accountCommand,
		agentCommand,
		callCommand,
		outputCommand,
		awaitCommand,
		claimCommand,
		readCommand,
		fetchCommand,
		historyCommand,
		adminCommand,
		codecCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx.GlobalInt(verbosityFlag.Name), ctx.GlobalBool(logJSONFlag.Name), errWriter(ctx))
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		if metrics.Enabled {
			metrics.WriteOnce(metrics.DefaultRegistry, errWriter(ctx))
		}
		return nil
	}
	return app
}

func errWriter(ctx *cli.Context) io.Writer {
	if ctx.App.ErrWriter != nil {
		return ctx.App.ErrWriter
	}
	return os.Stderr
}

// setupLogging installs the root log handler. Colors are used only when
// writing to a terminal.
func setupLogging(verbosity int, json bool, w io.Writer) {
	var handler log.Logger
	if json {
		handler = log.NewLogger(log.JSONHandlerWithLevel(w, log.FromLegacyLevel(verbosity)))
	} else {
		usecolor := false
		if f, ok := w.(*os.File); ok {
			usecolor = (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
			if usecolor {
				w = colorable.NewColorable(f)
			}
		}
		handler = log.NewLogger(log.NewTerminalHandlerWithLevel(w, log.FromLegacyLevel(verbosity), usecolor))
	}
	log.SetDefault(handler)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
