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

package uomiagenttest

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/uomi-network/go-uomiagent/contracts/uomiagent"
	"github.com/uomi-network/go-uomiagent/core/agents"
)

// MaxAgents is the token cap enforced by the backend.
const MaxAgents = 1000

var errShortInput = errors.New("call data shorter than a selector")

// RevertString builds the revert error of a require(cond, msg) failure.
func RevertString(msg string) *RevertError {
	str, _ := abi.NewType("string", "", nil)
	data, err := abi.Arguments{{Type: str}}.Pack(msg)
	if err != nil {
		panic(err)
	}
	return &RevertError{Data: append([]byte{0x08, 0xc3, 0x79, 0xa0}, data...)}
}

func decodeInput(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, errShortInput
	}
	method, err := uomiagent.ABI.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}

func zero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func (b *Backend) hasRole(role [32]byte, account common.Address) bool {
	return b.roles[role][account]
}

func (b *Backend) ownedBy(owner common.Address) []uint64 {
	var ids []uint64
	for _, id := range b.tokens {
		if b.owners[id] == owner {
			ids = append(ids, id)
		}
	}
	return ids
}

// view answers eth_call for the read-only methods. b.mu must be held.
func (b *Backend) view(method string, args []interface{}) ([]interface{}, error) {
	switch method {
	case "agents":
		a, ok := b.agents[args[0].(*big.Int).Uint64()]
		if !ok {
			a = new(agents.Agent)
		}
		return []interface{}{a.Name, a.Description, a.InputSchema, a.OutputSchema,
			zero(a.Price), zero(a.MinValidators), zero(a.MinBlocks), a.AgentCID}, nil

	case "getAgentOutput":
		out := agents.Output{TotalExecutions: new(big.Int), TotalConsensus: new(big.Int)}
		id := args[0].(*big.Int).Uint64()
		if req, ok := b.requests[id]; ok {
			if req.pending != nil {
				if req.pendingPolls == 0 {
					b.settle(id, req)
				} else {
					req.pendingPolls--
				}
			}
			out.Output = req.output
			out.TotalExecutions = zero(req.execs)
			out.TotalConsensus = zero(req.consensus)
		}
		return []interface{}{out}, nil

	case "readAgentResult":
		req, ok := b.requests[args[0].(*big.Int).Uint64()]
		if !ok || !req.claimed {
			return nil, RevertString("result not claimed")
		}
		return []interface{}{req.output, req.nftID, zero(req.validated), zero(req.total)}, nil

	case "FIXED_PRICE":
		return []interface{}{b.fixedPrice.Uint64()}, nil
	case "MAX_AGENTS":
		return []interface{}{uint16(MaxAgents)}, nil
	case "ipfsStorage":
		return []interface{}{b.ipfsStorage}, nil
	case "DEFAULT_ADMIN_ROLE":
		return []interface{}{[32]byte{}}, nil
	case "hasRole":
		return []interface{}{b.hasRole(args[0].([32]byte), args[1].(common.Address))}, nil
	case "totalSupply":
		return []interface{}{big.NewInt(int64(len(b.tokens)))}, nil

	case "tokenByIndex":
		index := args[0].(*big.Int)
		if !index.IsUint64() || index.Uint64() >= uint64(len(b.tokens)) {
			return nil, Revert("ERC721OutOfBoundsIndex", common.Address{}, index)
		}
		return []interface{}{new(big.Int).SetUint64(b.tokens[index.Uint64()])}, nil

	case "tokenOfOwnerByIndex":
		owner, index := args[0].(common.Address), args[1].(*big.Int)
		ids := b.ownedBy(owner)
		if !index.IsUint64() || index.Uint64() >= uint64(len(ids)) {
			return nil, Revert("ERC721OutOfBoundsIndex", owner, index)
		}
		return []interface{}{new(big.Int).SetUint64(ids[index.Uint64()])}, nil

	case "balanceOf":
		return []interface{}{big.NewInt(int64(len(b.ownedBy(args[0].(common.Address)))))}, nil

	case "ownerOf", "tokenURI":
		id := args[0].(*big.Int)
		owner, ok := b.owners[id.Uint64()]
		if !ok {
			return nil, Revert("ERC721NonexistentToken", id)
		}
		if method == "tokenURI" {
			return []interface{}{"ipfs://" + b.agents[id.Uint64()].AgentCID}, nil
		}
		return []interface{}{owner}, nil

	case "name":
		return []interface{}{"UomiAgent"}, nil
	case "symbol":
		return []interface{}{"UAGT"}, nil
	}
	return nil, fmt.Errorf("%s: %w", method, errUnsupported)
}

// execute runs a state changing method. Without commit it only reports
// whether the call would revert. b.mu must be held.
func (b *Backend) execute(from common.Address, value *big.Int, method string, args []interface{}, commit bool) ([]*types.Log, error) {
	switch method {
	case "safeMint":
		agent := abi.ConvertType(args[0], new(agents.Agent)).(*agents.Agent)
		to := args[1].(common.Address)
		if value.Cmp(b.fixedPrice) < 0 {
			return nil, Revert("NotEnoughPayment")
		}
		if len(b.tokens) >= MaxAgents {
			return nil, Revert("MaxAgents")
		}
		if !commit {
			return nil, nil
		}
		id := uint64(len(b.tokens)) + 1
		b.tokens = append(b.tokens, id)
		b.agents[id] = agent.Copy()
		b.owners[id] = to
		b.collected.Add(b.collected, value)
		return []*types.Log{b.transferLog(common.Address{}, to, id)}, nil

	case "updateAgent":
		id := args[0].(*big.Int)
		agent := abi.ConvertType(args[1], new(agents.Agent)).(*agents.Agent)
		if err := b.checkOwner(from, id); err != nil {
			return nil, err
		}
		if commit {
			b.agents[id.Uint64()] = agent.Copy()
		}
		return nil, nil

	case "callAgent":
		nftID, inputCID, input := args[0].(*big.Int), args[1].(string), args[2].(string)
		agent, ok := b.agents[nftID.Uint64()]
		if !ok {
			return nil, Revert("ERC721NonexistentToken", nftID)
		}
		if value.Cmp(zero(agent.Price)) < 0 {
			return nil, Revert("NotEnoughPayment")
		}
		if !commit {
			return nil, nil
		}
		id := b.nextRequest
		b.nextRequest++
		b.requests[id] = &request{nftID: new(big.Int).Set(nftID), sender: from, input: input, inputCID: inputCID}
		b.collected.Add(b.collected, value)

		ev := uomiagent.ABI.Events["RequestSent"]
		data, err := ev.Inputs.NonIndexed().Pack(nftID)
		if err != nil {
			return nil, err
		}
		return []*types.Log{{
			Address: b.Address,
			Topics: []common.Hash{
				ev.ID,
				common.BytesToHash(from.Bytes()),
				common.BigToHash(new(big.Int).SetUint64(id)),
				crypto.Keccak256Hash([]byte(inputCID)),
			},
			Data: data,
		}}, nil

	case "claimAgentResult":
		req, ok := b.requests[args[0].(*big.Int).Uint64()]
		if !ok || len(req.output) == 0 {
			return nil, RevertString("result not ready")
		}
		if req.sender != from {
			return nil, RevertString("not the requester")
		}
		if commit {
			req.claimed = true
		}
		return nil, nil

	case "setIpfsStorage", "cashOut":
		if !b.hasRole([32]byte{}, from) {
			return nil, Revert("AccessControlUnauthorizedAccount", from, [32]byte{})
		}
		if commit {
			if method == "cashOut" {
				b.collected = new(big.Int)
			} else {
				b.ipfsStorage = args[0].(common.Address)
			}
		}
		return nil, nil

	case "grantRole", "revokeRole":
		if !b.hasRole([32]byte{}, from) {
			return nil, Revert("AccessControlUnauthorizedAccount", from, [32]byte{})
		}
		role, account := args[0].([32]byte), args[1].(common.Address)
		if commit {
			if b.roles[role] == nil {
				b.roles[role] = make(map[common.Address]bool)
			}
			b.roles[role][account] = method == "grantRole"
		}
		return nil, nil

	case "approve":
		to, id := args[0].(common.Address), args[1].(*big.Int)
		if err := b.checkOwner(from, id); err != nil {
			return nil, err
		}
		if commit {
			b.approvals[id.Uint64()] = to
		}
		return nil, nil

	case "transferFrom", "safeTransferFrom":
		owner, to, id := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
		current, ok := b.owners[id.Uint64()]
		if !ok {
			return nil, Revert("ERC721NonexistentToken", id)
		}
		if current != owner {
			return nil, Revert("ERC721IncorrectOwner", owner, id, current)
		}
		if from != owner && b.approvals[id.Uint64()] != from {
			return nil, Revert("ERC721InsufficientApproval", from, id)
		}
		if to == (common.Address{}) {
			return nil, Revert("ERC721InvalidReceiver", to)
		}
		if !commit {
			return nil, nil
		}
		b.owners[id.Uint64()] = to
		delete(b.approvals, id.Uint64())
		return []*types.Log{b.transferLog(owner, to, id.Uint64())}, nil
	}
	return nil, fmt.Errorf("%s: %w", method, errUnsupported)
}

func (b *Backend) checkOwner(from common.Address, id *big.Int) error {
	owner, ok := b.owners[id.Uint64()]
	if !ok {
		return Revert("ERC721NonexistentToken", id)
	}
	if owner != from {
		return Revert("ERC721IncorrectOwner", from, id, owner)
	}
	return nil
}

func (b *Backend) transferLog(from, to common.Address, id uint64) *types.Log {
	return &types.Log{
		Address: b.Address,
		Topics: []common.Hash{
			uomiagent.ABI.Events["Transfer"].ID,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
			common.BigToHash(new(big.Int).SetUint64(id)),
		},
	}
}
