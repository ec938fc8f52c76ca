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

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Operations in this file need the contract's admin role.

// SetIpfsStorage points the contract at a new IPFS storage contract.
func (c *Client) SetIpfsStorage(ctx context.Context, storage common.Address) (*types.Receipt, error) {
	receipt, err := c.send(ctx, "setIpfsStorage", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.SetIpfsStorage(opts, storage)
	})
	if err != nil {
		return receipt, err
	}
	c.log.Info("Updated IPFS storage", "address", storage)
	return receipt, nil
}

// CashOut withdraws the fees collected by the contract to the signer.
func (c *Client) CashOut(ctx context.Context) (*types.Receipt, error) {
	receipt, err := c.send(ctx, "cashOut", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.CashOut(opts)
	})
	if err != nil {
		return receipt, err
	}
	c.log.Info("Cashed out contract fees", "to", c.from)
	return receipt, nil
}

// GrantRole grants role to account. The zero role is the admin role.
func (c *Client) GrantRole(ctx context.Context, role [32]byte, account common.Address) (*types.Receipt, error) {
	return c.send(ctx, "grantRole", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.GrantRole(opts, role, account)
	})
}

// RevokeRole revokes role from account.
func (c *Client) RevokeRole(ctx context.Context, role [32]byte, account common.Address) (*types.Receipt, error) {
	return c.send(ctx, "revokeRole", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.RevokeRole(opts, role, account)
	})
}

// IsAdmin reports whether account holds the admin role.
func (c *Client) IsAdmin(ctx context.Context, account common.Address) (bool, error) {
	opts, err := c.callOpts(ctx)
	if err != nil {
		return false, err
	}
	role, err := c.contract.DefaultAdminRole(opts)
	if err != nil {
		return false, err
	}
	return read(ctx, c, func(opts *bind.CallOpts) (bool, error) {
		return c.contract.HasRole(opts, role, account)
	})
}
