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
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/uomi-network/go-uomiagent/agentclient"
	"github.com/uomi-network/go-uomiagent/core/agents"
	"gopkg.in/urfave/cli.v1"
)

var (
	callCommand = cli.Command{
		Name:      "call",
		Usage:     "Send a paid request to an agent",
		ArgsUsage: "<agent id> <input>",
		Action:    callAgent,
		Flags:     []cli.Flag{inputCIDFlag, waitFlag, fetchFlag},
		Category:  "REQUEST COMMANDS",
		Description: `
The call pays the price of the agent and prints the request id assigned by
the contract. With --wait the command polls until the validators settled the
output, with --fetch it also claims and reads the result.`,
	}
	outputCommand = cli.Command{
		Name:      "output",
		Usage:     "Print the output gathered so far for a request",
		ArgsUsage: "<request id>",
		Action:    requestOutput,
		Category:  "REQUEST COMMANDS",
	}
	awaitCommand = cli.Command{
		Name:      "await",
		Usage:     "Wait until the output of the requests is settled",
		ArgsUsage: "<request id> [<request id>...]",
		Action:    requestAwait,
		Category:  "REQUEST COMMANDS",
	}
	claimCommand = cli.Command{
		Name:      "claim",
		Usage:     "Claim the result of a settled request",
		ArgsUsage: "<request id>",
		Action:    requestClaim,
		Category:  "REQUEST COMMANDS",
	}
	readCommand = cli.Command{
		Name:      "read",
		Usage:     "Read the result of a claimed request",
		ArgsUsage: "<request id>",
		Action:    requestRead,
		Category:  "REQUEST COMMANDS",
	}
	fetchCommand = cli.Command{
		Name:      "fetch",
		Usage:     "Claim, read and decode the result of a request",
		ArgsUsage: "<request id>",
		Action:    requestFetch,
		Category:  "REQUEST COMMANDS",
	}
	historyCommand = cli.Command{
		Name:     "history",
		Usage:    "List the requests recorded in the local journal",
		Action:   requestHistory,
		Category: "REQUEST COMMANDS",
	}
)

// outputText renders an output payload, decoded when a codec is configured.
func outputText(client *agentclient.Client, output []byte) string {
	text, err := client.DecodeOutput(output)
	if err != nil {
		if !errors.Is(err, agentclient.ErrNoCodec) {
			log.Warn("Failed to decode output", "err", err)
		}
		return hexutil.Encode(output)
	}
	return text
}

// resultText picks what to print for a fetched result. Decoded text may
// legitimately be empty, so raw hex is only shown without a codec.
func resultText(client *agentclient.Client, res *agents.Result, text string) string {
	if client.Codec() == nil {
		return hexutil.Encode(res.Output)
	}
	return text
}

func callAgent(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("need <agent id> <input>")
	}
	nftID, err := argBig(ctx, 0, "agent id")
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

	req, _, err := client.CallAgent(cctx, nftID, ctx.String(inputCIDFlag.Name), ctx.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, "request", req.RequestID)
	if !ctx.Bool(waitFlag.Name) && !ctx.Bool(fetchFlag.Name) {
		return nil
	}
	out, err := client.AwaitOutput(cctx, req.RequestID)
	if err != nil {
		return err
	}
	if !ctx.Bool(fetchFlag.Name) {
		fmt.Fprintln(ctx.App.Writer, outputText(client, out.Output))
		return nil
	}
	res, text, err := client.FetchResult(cctx, req.RequestID)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "validations %v/%v\n%s\n", res.ValidationCount, res.TotalValidator, resultText(client, res, text))
	return nil
}

func requestOutput(ctx *cli.Context) error {
	id, err := argBig(ctx, 0, "request id")
	if err != nil {
		return err
	}
	cctx, cancel := commandContext()
	defer cancel()

	client, err := makeClient(ctx, cctx, false)
	if err != nil {
		return err
	}
	defer client.Close()

	out, err := client.GetAgentOutput(cctx, id)
	if err != nil {
		return err
	}
	if !out.Ready() {
		fmt.Fprintf(ctx.App.Writer, "pending (executions %v, consensus %v)\n", out.TotalExecutions, out.TotalConsensus)
		return nil
	}
	fmt.Fprintf(ctx.App.Writer, "executions %v, consensus %v\n%s\n", out.TotalExecutions, out.TotalConsensus, outputText(client, out.Output))
	return nil
}

func requestAwait(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("missing request id argument")
	}
	ids := make([]*big.Int, ctx.NArg())
	for i := range ids {
		id, err := argBig(ctx, i, "request id")
		if err != nil {
			return err
		}
		ids[i] = id
	}
	cctx, cancel := commandContext()
	defer cancel()

	client, err := makeClient(ctx, cctx, false)
	if err != nil {
		return err
	}
	defer client.Close()

	outs, err := client.AwaitAll(cctx, ids)
	if err != nil {
		return err
	}
	for i, out := range outs {
		fmt.Fprintf(ctx.App.Writer, "%v: %s\n", ids[i], outputText(client, out.Output))
	}
	return nil
}

func requestClaim(ctx *cli.Context) error {
	id, err := argBig(ctx, 0, "request id")
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

	receipt, err := client.ClaimAgentResult(cctx, id)
	if err != nil {
		return err
	}
	log.Info("Result claimed", "request", id, "tx", receipt.TxHash, "block", receipt.BlockNumber)
	return nil
}

func requestRead(ctx *cli.Context) error {
	id, err := argBig(ctx, 0, "request id")
	if err != nil {
		return err
	}
	cctx, cancel := commandContext()
	defer cancel()

	client, err := makeClient(ctx, cctx, false)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.ReadAgentResult(cctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "agent %v, validations %v/%v\n%s\n", res.NftID, res.ValidationCount, res.TotalValidator, outputText(client, res.Output))
	return nil
}

func requestFetch(ctx *cli.Context) error {
	id, err := argBig(ctx, 0, "request id")
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

	res, text, err := client.FetchResult(cctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "agent %v, validations %v/%v\n%s\n", res.NftID, res.ValidationCount, res.TotalValidator, resultText(client, res, text))
	return nil
}

func requestHistory(ctx *cli.Context) error {
	db, err := openJournal(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.List()
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Request", "Agent", "Status", "Submitted", "Ticket", "Tx"})
	for _, e := range entries {
		table.Append([]string{
			e.RequestID.String(),
			e.NftID.String(),
			e.Status.String(),
			e.Time().UTC().Format("2006-01-02 15:04:05"),
			e.Ticket,
			e.TxHash.TerminalString(),
		})
	}
	table.Render()
	return nil
}
