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

package agentclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/uomi-network/go-uomiagent/core/agents"
	"golang.org/x/sync/errgroup"
)

// listConcurrency bounds the parallel record reads of ListAgents.
const listConcurrency = 4

// Listing is an agent token together with its record.
type Listing struct {
	ID    *big.Int
	Owner common.Address
	Agent *agents.Agent
}

// CreateAgent mints a new agent token for recipient, or for the signer when
// recipient is the zero address, and returns the new token id.
func (c *Client) CreateAgent(ctx context.Context, agent *agents.Agent, recipient common.Address) (*big.Int, *types.Receipt, error) {
	if err := agent.Validate(); err != nil {
		return nil, nil, err
	}
	if recipient == (common.Address{}) {
		recipient = c.from
	}
	value := c.cfg.MintValue
	if value == nil {
		price, err := read(ctx, c, c.contract.FixedPrice)
		if err != nil {
			return nil, nil, err
		}
		value = price
	}
	receipt, err := c.send(ctx, "safeMint", value, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.SafeMint(opts, agent, recipient)
	})
	if err != nil {
		return nil, receipt, err
	}
	id, err := c.contract.MintedFromReceipt(receipt)
	if err != nil {
		return nil, receipt, fmt.Errorf("minted token id: %w", err)
	}
	c.log.Info("Minted agent", "id", id, "name", agent.Name, "owner", recipient, "fee", value)
	return id, receipt, nil
}

// UpdateAgent replaces the record of a token owned by the signer.
func (c *Client) UpdateAgent(ctx context.Context, tokenID *big.Int, agent *agents.Agent) (*types.Receipt, error) {
	if err := agent.Validate(); err != nil {
		return nil, err
	}
	receipt, err := c.send(ctx, "updateAgent", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.UpdateAgent(opts, tokenID, agent)
	})
	if tokenID.IsUint64() {
		c.cache.Remove(tokenID.Uint64())
	}
	if err != nil {
		return receipt, err
	}
	c.log.Info("Updated agent", "id", tokenID, "name", agent.Name)
	return receipt, nil
}

// GetAgent returns the record of a token. Records are cached until the
// client updates them; tags are never part of it, the contract does not
// expose them.
func (c *Client) GetAgent(ctx context.Context, tokenID *big.Int) (*agents.Agent, error) {
	cacheable := tokenID.IsUint64()
	if cacheable {
		if agent, ok := c.cache.Get(tokenID.Uint64()); ok {
			cacheHitCounter.Inc(1)
			return agent.Copy(), nil
		}
		cacheMissCounter.Inc(1)
	}
	agent, err := read(ctx, c, func(opts *bind.CallOpts) (*agents.Agent, error) {
		return c.contract.Agents(opts, tokenID)
	})
	if err != nil {
		return nil, err
	}
	// Unknown ids read back as the zero record.
	if agent.Name == "" && agent.AgentCID == "" {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAgent, tokenID)
	}
	if cacheable {
		c.cache.Add(tokenID.Uint64(), agent.Copy())
	}
	return agent, nil
}

// ListAgents enumerates the tokens of owner, or every token when owner is
// the zero address.
func (c *Client) ListAgents(ctx context.Context, owner common.Address) ([]*Listing, error) {
	var (
		count *big.Int
		err   error
		all   = owner == (common.Address{})
	)
	if all {
		count, err = read(ctx, c, c.contract.TotalSupply)
	} else {
		count, err = read(ctx, c, func(opts *bind.CallOpts) (*big.Int, error) {
			return c.contract.BalanceOf(opts, owner)
		})
	}
	if err != nil {
		return nil, err
	}
	if !count.IsInt64() {
		return nil, fmt.Errorf("token count out of range: %v", count)
	}
	listings := make([]*Listing, count.Int64())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i := range listings {
		index := big.NewInt(int64(i))
		g.Go(func() error {
			id, err := read(gctx, c, func(opts *bind.CallOpts) (*big.Int, error) {
				if all {
					return c.contract.TokenByIndex(opts, index)
				}
				return c.contract.TokenOfOwnerByIndex(opts, owner, index)
			})
			if err != nil {
				return err
			}
			l := &Listing{ID: id, Owner: owner}
			if all {
				if l.Owner, err = read(gctx, c, func(opts *bind.CallOpts) (common.Address, error) {
					return c.contract.OwnerOf(opts, id)
				}); err != nil {
					return err
				}
			}
			if l.Agent, err = c.GetAgent(gctx, id); err != nil {
				return err
			}
			listings[index.Int64()] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return listings, nil
}

// TransferAgent hands a token owned by the signer to another account.
func (c *Client) TransferAgent(ctx context.Context, tokenID *big.Int, to common.Address) (*types.Receipt, error) {
	receipt, err := c.send(ctx, "safeTransferFrom", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.SafeTransferFrom(opts, c.from, to, tokenID)
	})
	if err != nil {
		return receipt, err
	}
	c.log.Info("Transferred agent", "id", tokenID, "to", to)
	return receipt, nil
}
