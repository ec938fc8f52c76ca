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

// Package agents contains the data exchanged with the agent contract.
package agents

import (
	"math/big"
	"strings"

	"github.com/uomi-network/go-uomiagent/common/units"
)

// Agent is the record stored for every agent token. The struct doubles as the
// ABI tuple passed to safeMint and updateAgent; the contract spells the
// validator field "minValidatiors".
type Agent struct {
	Name          string   `abi:"name" json:"name"`
	Description   string   `abi:"description" json:"description"`
	InputSchema   string   `abi:"inputSchema" json:"inputSchema"`
	OutputSchema  string   `abi:"outputSchema" json:"outputSchema"`
	Tags          []string `abi:"tags" json:"tags"`
	Price         *big.Int `abi:"price" json:"price"`
	MinValidators *big.Int `abi:"minValidatiors" json:"minValidators"`
	MinBlocks     *big.Int `abi:"minBlocks" json:"minBlocks"`
	AgentCID      string   `abi:"agentCID" json:"agentCID"`
}

// Copy returns a deep copy of the record.
func (a *Agent) Copy() *Agent {
	cpy := *a
	if a.Tags != nil {
		cpy.Tags = append([]string(nil), a.Tags...)
	}
	cpy.Price = copyBig(a.Price)
	cpy.MinValidators = copyBig(a.MinValidators)
	cpy.MinBlocks = copyBig(a.MinBlocks)
	return &cpy
}

// PriceEther renders the invocation price in ether.
func (a *Agent) PriceEther() string {
	return units.FormatEther(a.Price)
}

// TagList joins the tags for display.
func (a *Agent) TagList() string {
	return strings.Join(a.Tags, ",")
}

// Output is what getAgentOutput reports for a request while validators are
// still executing it.
type Output struct {
	Output          []byte   `json:"output"`
	TotalExecutions *big.Int `json:"totalExecutions"`
	TotalConsensus  *big.Int `json:"totalConsensus"`
}

// Ready reports whether an output has been settled for the request.
func (o *Output) Ready() bool {
	return o != nil && len(o.Output) > 0
}

// Result is the settled answer read back with readAgentResult.
type Result struct {
	RequestID       *big.Int `json:"requestId"`
	Output          []byte   `json:"output"`
	NftID           *big.Int `json:"nftId"`
	ValidationCount *big.Int `json:"validationCount"`
	TotalValidator  *big.Int `json:"totalValidator"`
}

// Reached reports whether the validation count meets the given quorum.
func (r *Result) Reached(quorum *big.Int) bool {
	if r == nil || r.ValidationCount == nil {
		return false
	}
	return quorum == nil || r.ValidationCount.Cmp(quorum) >= 0
}

// Request is a submitted agent invocation, correlated by the id the contract
// emitted in RequestSent.
type Request struct {
	RequestID *big.Int `json:"requestId"`
	NftID     *big.Int `json:"nftId"`
	InputCID  string   `json:"inputCid"`
	Input     string   `json:"input"`
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
