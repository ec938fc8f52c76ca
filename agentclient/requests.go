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
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/uomi-network/go-uomiagent/core/agents"
	"github.com/uomi-network/go-uomiagent/internal/journal"
)

// CallAgent submits input to an agent, paying the agent's price, and returns
// the request the contract assigned.
func (c *Client) CallAgent(ctx context.Context, nftID *big.Int, inputCID, input string) (*agents.Request, *types.Receipt, error) {
	agent, err := c.GetAgent(ctx, nftID)
	if err != nil {
		return nil, nil, err
	}
	if c.cfg.ValidateInput {
		err := agents.ValidateInput(agent.InputSchema, input)
		switch {
		case errors.Is(err, agents.ErrInvalidSchema):
			// Schemas are free text on chain; only compiled ones are enforced.
			c.log.Warn("Skipping input validation", "agent", nftID, "err", err)
		case err != nil:
			return nil, nil, err
		}
	}
	data := input
	if c.cfg.EncodeInput {
		if data, err = c.EncodeInput(input); err != nil {
			return nil, nil, err
		}
	}
	receipt, err := c.send(ctx, "callAgent", agent.Price, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.CallAgent(opts, nftID, inputCID, data)
	})
	if err != nil {
		return nil, receipt, err
	}
	ev, err := c.contract.RequestFromReceipt(receipt)
	if err != nil {
		return nil, receipt, fmt.Errorf("request id of %s: %w", receipt.TxHash.Hex(), err)
	}
	req := &agents.Request{RequestID: ev.RequestId, NftID: ev.NftId, InputCID: inputCID, Input: input}
	c.log.Info("Agent request sent", "request", req.RequestID, "agent", req.NftID, "paid", agent.Price, "hash", receipt.TxHash)

	if c.journal != nil {
		err := c.journal.Put(&journal.Entry{
			RequestID: req.RequestID,
			NftID:     req.NftID,
			TxHash:    receipt.TxHash,
			Sender:    c.from,
			InputCID:  inputCID,
			Input:     input,
			Status:    journal.StatusSubmitted,
		})
		if err != nil {
			c.log.Warn("Failed to journal request", "request", req.RequestID, "err", err)
		}
	}
	return req, receipt, nil
}

// GetAgentOutput returns the output gathered so far for a request. The
// output is empty until the validators settle it.
func (c *Client) GetAgentOutput(ctx context.Context, requestID *big.Int) (*agents.Output, error) {
	return read(ctx, c, func(opts *bind.CallOpts) (*agents.Output, error) {
		return c.contract.GetAgentOutput(opts, requestID)
	})
}

// ClaimAgentResult settles the result of a request so it can be read back.
func (c *Client) ClaimAgentResult(ctx context.Context, requestID *big.Int) (*types.Receipt, error) {
	receipt, err := c.send(ctx, "claimAgentResult", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.ClaimAgentResult(opts, requestID)
	})
	if err != nil {
		return receipt, err
	}
	c.advance(requestID, journal.StatusClaimed, nil)
	return receipt, nil
}

// ReadAgentResult returns the settled result of a claimed request.
func (c *Client) ReadAgentResult(ctx context.Context, requestID *big.Int) (*agents.Result, error) {
	return read(ctx, c, func(opts *bind.CallOpts) (*agents.Result, error) {
		return c.contract.ReadAgentResult(opts, requestID)
	})
}

// EncodeInput encodes text for the agent runtime, hex encoded so it travels
// as a string argument.
func (c *Client) EncodeInput(text string) (string, error) {
	if c.codec == nil {
		return "", ErrNoCodec
	}
	payload, err := c.codec.Encode(text)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(payload), nil
}

// DecodeOutput decodes an output payload produced by the agent runtime.
func (c *Client) DecodeOutput(output []byte) (string, error) {
	if c.codec == nil {
		return "", ErrNoCodec
	}
	return c.codec.Decode(output)
}

// FetchResult claims a settled request, reads the result back and decodes
// it. Without a codec the text is empty and the raw result is still
// returned.
func (c *Client) FetchResult(ctx context.Context, requestID *big.Int) (*agents.Result, string, error) {
	if _, err := c.ClaimAgentResult(ctx, requestID); err != nil {
		return nil, "", err
	}
	res, err := c.ReadAgentResult(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	text, err := c.DecodeOutput(res.Output)
	if err != nil && !errors.Is(err, ErrNoCodec) {
		return res, "", fmt.Errorf("decode output of request %v: %w", requestID, err)
	}
	c.advance(requestID, journal.StatusRead, func(e *journal.Entry) {
		e.Output = res.Output
		e.ValidationCount = res.ValidationCount
		e.TotalValidator = res.TotalValidator
	})
	return res, text, nil
}

// advance moves a journaled request forward. Requests the journal does not
// know about are ignored.
func (c *Client) advance(requestID *big.Int, status journal.Status, fill func(*journal.Entry)) {
	if c.journal == nil {
		return
	}
	err := c.journal.Update(requestID, func(e *journal.Entry) error {
		if e.Status < status {
			e.Status = status
		}
		if fill != nil {
			fill(e)
		}
		return nil
	})
	if err != nil && !errors.Is(err, journal.ErrNotFound) {
		c.log.Warn("Failed to update journal", "request", requestID, "err", err)
	}
}
