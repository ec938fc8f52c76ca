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
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/uomi-network/go-uomiagent/common/units"
	"github.com/uomi-network/go-uomiagent/core/agents"
	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"
)

var agentCommand = cli.Command{
	Name:     "agent",
	Usage:    "Mint, update and inspect agents",
	Category: "AGENT COMMANDS",
	Description: `
Agents are ERC-721 tokens of the UomiAgent contract. Mint and update read
the agent from a YAML or JSON manifest, with the price in ether:

    name: chat
    description: general purpose chat agent
    inputSchema: {"type": "string"}
    tags: [chat, llm]
    price: "0.5"
    minValidators: 3
    minBlocks: 1
    agentCID: Qm...`,
	Subcommands: []cli.Command{
		{
			Name:      "mint",
			Usage:     "Mint a new agent from a manifest",
			ArgsUsage: "<manifest>",
			Action:    agentMint,
			Flags:     []cli.Flag{toFlag},
		},
		{
			Name:      "update",
			Usage:     "Replace the record of an owned agent",
			ArgsUsage: "<id> <manifest>",
			Action:    agentUpdate,
		},
		{
			Name:      "show",
			Usage:     "Print an agent record",
			ArgsUsage: "<id>",
			Action:    agentShow,
			Flags:     []cli.Flag{yamlFlag},
		},
		{
			Name:   "list",
			Usage:  "List minted agents",
			Action: agentList,
			Flags:  []cli.Flag{ownerFlag},
		},
		{
			Name:      "transfer",
			Usage:     "Transfer an agent to another account",
			ArgsUsage: "<id> <to>",
			Action:    agentTransfer,
		},
	},
}

func loadAgent(path string) (*agents.Agent, error) {
	m, err := agents.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return m.Agent()
}

func agentMint(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need exactly one manifest argument")
	}
	agent, err := loadAgent(ctx.Args().First())
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

	to := client.Address()
	if ctx.IsSet(toFlag.Name) {
		if to, err = parseAddress(ctx.String(toFlag.Name)); err != nil {
			return err
		}
	}
	id, receipt, err := client.CreateAgent(cctx, agent, to)
	if err != nil {
		return err
	}
	log.Info("Agent minted", "id", id, "owner", to, "tx", receipt.TxHash, "block", receipt.BlockNumber)
	fmt.Fprintln(ctx.App.Writer, id)
	return nil
}

func agentUpdate(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("need <id> <manifest>")
	}
	id, err := argBig(ctx, 0, "agent id")
	if err != nil {
		return err
	}
	agent, err := loadAgent(ctx.Args().Get(1))
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

	receipt, err := client.UpdateAgent(cctx, id, agent)
	if err != nil {
		return err
	}
	log.Info("Agent updated", "id", id, "tx", receipt.TxHash, "block", receipt.BlockNumber)
	return nil
}

func agentShow(ctx *cli.Context) error {
	id, err := argBig(ctx, 0, "agent id")
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

	agent, err := client.GetAgent(cctx, id)
	if err != nil {
		return err
	}
	if ctx.Bool(yamlFlag.Name) {
		out, err := yaml.Marshal(agents.NewManifest(agent))
		if err != nil {
			return err
		}
		_, err = ctx.App.Writer.Write(out)
		return err
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetAutoWrapText(false)
	table.AppendBulk([][]string{
		{"id", id.String()},
		{"name", agent.Name},
		{"description", agent.Description},
		{"price", units.FormatEther(agent.Price) + " UOMI"},
		{"minValidators", agent.MinValidators.String()},
		{"minBlocks", agent.MinBlocks.String()},
		{"agentCID", agent.AgentCID},
		{"inputSchema", agent.InputSchema},
		{"outputSchema", agent.OutputSchema},
	})
	table.Render()
	return nil
}

func agentList(ctx *cli.Context) error {
	var owner common.Address
	if ctx.IsSet(ownerFlag.Name) {
		var err error
		if owner, err = parseAddress(ctx.String(ownerFlag.Name)); err != nil {
			return err
		}
	}
	cctx, cancel := commandContext()
	defer cancel()

	client, err := makeClient(ctx, cctx, false)
	if err != nil {
		return err
	}
	defer client.Close()

	list, err := client.ListAgents(cctx, owner)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"ID", "Owner", "Name", "Price", "Tags", "CID"})
	for _, l := range list {
		table.Append([]string{
			l.ID.String(),
			l.Owner.Hex(),
			l.Agent.Name,
			units.FormatEther(l.Agent.Price),
			strings.Join(l.Agent.Tags, ","),
			l.Agent.AgentCID,
		})
	}
	table.Render()
	return nil
}

func agentTransfer(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("need <id> <to>")
	}
	id, err := argBig(ctx, 0, "agent id")
	if err != nil {
		return err
	}
	to, err := parseAddress(ctx.Args().Get(1))
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

	receipt, err := client.TransferAgent(cctx, id, to)
	if err != nil {
		return err
	}
	log.Info("Agent transferred", "id", id, "to", to, "tx", receipt.TxHash)
	return nil
}
