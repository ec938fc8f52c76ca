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

package uomiagent

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/uomi-network/go-uomiagent/core/agents"
)

// UomiAgent is a binding to a deployed agent contract. Every error it returns
// is a *RemoteCallError.
type UomiAgent struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewUomiAgent binds the contract at address to the backend.
func NewUomiAgent(address common.Address, backend bind.ContractBackend) *UomiAgent {
	return &UomiAgent{
		address:  address,
		contract: bind.NewBoundContract(address, ABI, backend, backend, backend),
	}
}

// Address returns the contract address.
func (c *UomiAgent) Address() common.Address {
	return c.address
}

func (c *UomiAgent) call(opts *bind.CallOpts, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, method, args...); err != nil {
		return nil, WrapError(method, err)
	}
	return out, nil
}

func (c *UomiAgent) transact(opts *bind.TransactOpts, method string, args ...interface{}) (*types.Transaction, error) {
	tx, err := c.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, WrapError(method, err)
	}
	return tx, nil
}

func (c *UomiAgent) callBig(opts *bind.CallOpts, method string, args ...interface{}) (*big.Int, error) {
	out, err := c.call(opts, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Agents returns the stored record of a token. The public getter does not
// expose tags, so Tags is always nil.
func (c *UomiAgent) Agents(opts *bind.CallOpts, tokenID *big.Int) (*agents.Agent, error) {
	out, err := c.call(opts, "agents", tokenID)
	if err != nil {
		return nil, err
	}
	return &agents.Agent{
		Name:          *abi.ConvertType(out[0], new(string)).(*string),
		Description:   *abi.ConvertType(out[1], new(string)).(*string),
		InputSchema:   *abi.ConvertType(out[2], new(string)).(*string),
		OutputSchema:  *abi.ConvertType(out[3], new(string)).(*string),
		Price:         *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
		MinValidators: *abi.ConvertType(out[5], new(*big.Int)).(**big.Int),
		MinBlocks:     *abi.ConvertType(out[6], new(*big.Int)).(**big.Int),
		AgentCID:      *abi.ConvertType(out[7], new(string)).(*string),
	}, nil
}

// GetAgentOutput returns the output gathered so far for a request.
func (c *UomiAgent) GetAgentOutput(opts *bind.CallOpts, requestID *big.Int) (*agents.Output, error) {
	out, err := c.call(opts, "getAgentOutput", requestID)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(agents.Output)).(*agents.Output), nil
}

// ReadAgentResult returns the settled result of a claimed request.
func (c *UomiAgent) ReadAgentResult(opts *bind.CallOpts, requestID *big.Int) (*agents.Result, error) {
	out, err := c.call(opts, "readAgentResult", requestID)
	if err != nil {
		return nil, err
	}
	return &agents.Result{
		RequestID:       new(big.Int).Set(requestID),
		Output:          *abi.ConvertType(out[0], new([]byte)).(*[]byte),
		NftID:           *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		ValidationCount: *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		TotalValidator:  *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
	}, nil
}

// IpfsStorage returns the address of the IPFS storage contract.
func (c *UomiAgent) IpfsStorage(opts *bind.CallOpts) (common.Address, error) {
	out, err := c.call(opts, "ipfsStorage")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// FixedPrice returns the fee charged for minting an agent.
func (c *UomiAgent) FixedPrice(opts *bind.CallOpts) (*big.Int, error) {
	out, err := c.call(opts, "FIXED_PRICE")
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(*abi.ConvertType(out[0], new(uint64)).(*uint64)), nil
}

// MaxAgents returns the cap on the number of agent tokens.
func (c *UomiAgent) MaxAgents(opts *bind.CallOpts) (uint16, error) {
	out, err := c.call(opts, "MAX_AGENTS")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint16)).(*uint16), nil
}

// DefaultAdminRole returns the role id of contract administrators.
func (c *UomiAgent) DefaultAdminRole(opts *bind.CallOpts) ([32]byte, error) {
	out, err := c.call(opts, "DEFAULT_ADMIN_ROLE")
	if err != nil {
		return [32]byte{}, err
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

// HasRole reports whether account holds role.
func (c *UomiAgent) HasRole(opts *bind.CallOpts, role [32]byte, account common.Address) (bool, error) {
	out, err := c.call(opts, "hasRole", role, account)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// TotalSupply returns the number of minted agents.
func (c *UomiAgent) TotalSupply(opts *bind.CallOpts) (*big.Int, error) {
	return c.callBig(opts, "totalSupply")
}

// TokenByIndex returns the token id at a global enumeration index.
func (c *UomiAgent) TokenByIndex(opts *bind.CallOpts, index *big.Int) (*big.Int, error) {
	return c.callBig(opts, "tokenByIndex", index)
}

// TokenOfOwnerByIndex returns the token id at an index of owner's tokens.
func (c *UomiAgent) TokenOfOwnerByIndex(opts *bind.CallOpts, owner common.Address, index *big.Int) (*big.Int, error) {
	return c.callBig(opts, "tokenOfOwnerByIndex", owner, index)
}

// BalanceOf returns the number of agents owned by owner.
func (c *UomiAgent) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	return c.callBig(opts, "balanceOf", owner)
}

// OwnerOf returns the owner of a token.
func (c *UomiAgent) OwnerOf(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	out, err := c.call(opts, "ownerOf", tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// TokenURI returns the metadata URI of a token.
func (c *UomiAgent) TokenURI(opts *bind.CallOpts, tokenID *big.Int) (string, error) {
	return c.callString(opts, "tokenURI", tokenID)
}

// Name returns the token collection name.
func (c *UomiAgent) Name(opts *bind.CallOpts) (string, error) {
	return c.callString(opts, "name")
}

// Symbol returns the token collection symbol.
func (c *UomiAgent) Symbol(opts *bind.CallOpts) (string, error) {
	return c.callString(opts, "symbol")
}

func (c *UomiAgent) callString(opts *bind.CallOpts, method string, args ...interface{}) (string, error) {
	out, err := c.call(opts, method, args...)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// SafeMint mints a new agent token for to. The mint fee goes in opts.Value.
func (c *UomiAgent) SafeMint(opts *bind.TransactOpts, agent *agents.Agent, to common.Address) (*types.Transaction, error) {
	return c.transact(opts, "safeMint", tuple(agent), to)
}

// UpdateAgent replaces the record of an existing token.
func (c *UomiAgent) UpdateAgent(opts *bind.TransactOpts, tokenID *big.Int, agent *agents.Agent) (*types.Transaction, error) {
	return c.transact(opts, "updateAgent", tokenID, tuple(agent))
}

// CallAgent submits an invocation request. The agent price goes in opts.Value.
func (c *UomiAgent) CallAgent(opts *bind.TransactOpts, nftID *big.Int, inputCidFile, inputData string) (*types.Transaction, error) {
	return c.transact(opts, "callAgent", nftID, inputCidFile, inputData)
}

// ClaimAgentResult settles the result of a request so it can be read.
func (c *UomiAgent) ClaimAgentResult(opts *bind.TransactOpts, requestID *big.Int) (*types.Transaction, error) {
	return c.transact(opts, "claimAgentResult", requestID)
}

// SetIpfsStorage points the contract at a new IPFS storage contract.
func (c *UomiAgent) SetIpfsStorage(opts *bind.TransactOpts, storage common.Address) (*types.Transaction, error) {
	return c.transact(opts, "setIpfsStorage", storage)
}

// CashOut withdraws the collected fees to the caller. Admin only.
func (c *UomiAgent) CashOut(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.transact(opts, "cashOut")
}

// GrantRole grants role to account.
func (c *UomiAgent) GrantRole(opts *bind.TransactOpts, role [32]byte, account common.Address) (*types.Transaction, error) {
	return c.transact(opts, "grantRole", role, account)
}

// RevokeRole revokes role from account.
func (c *UomiAgent) RevokeRole(opts *bind.TransactOpts, role [32]byte, account common.Address) (*types.Transaction, error) {
	return c.transact(opts, "revokeRole", role, account)
}

// Approve lets to transfer the given token.
func (c *UomiAgent) Approve(opts *bind.TransactOpts, to common.Address, tokenID *big.Int) (*types.Transaction, error) {
	return c.transact(opts, "approve", to, tokenID)
}

// TransferFrom moves a token without the receiver check.
func (c *UomiAgent) TransferFrom(opts *bind.TransactOpts, from, to common.Address, tokenID *big.Int) (*types.Transaction, error) {
	return c.transact(opts, "transferFrom", from, to, tokenID)
}

// SafeTransferFrom moves a token, checking that contract receivers accept it.
func (c *UomiAgent) SafeTransferFrom(opts *bind.TransactOpts, from, to common.Address, tokenID *big.Int) (*types.Transaction, error) {
	return c.transact(opts, "safeTransferFrom", from, to, tokenID)
}

// tuple returns the record as packed into the agent tuple. The packer cannot
// encode nil numbers, so unset ones become zero.
func tuple(agent *agents.Agent) agents.Agent {
	t := *agent.Copy()
	for _, n := range []**big.Int{&t.Price, &t.MinValidators, &t.MinBlocks} {
		if *n == nil {
			*n = new(big.Int)
		}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t
}
