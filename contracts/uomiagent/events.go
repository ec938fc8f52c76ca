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
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrEventNotFound is returned when a receipt lacks the expected event.
var ErrEventNotFound = errors.New("event not found in receipt")

// RequestSent is emitted by callAgent. The input URI is indexed, so only its
// hash is recoverable from the log.
type RequestSent struct {
	Sender    common.Address
	RequestId *big.Int
	InputUri  common.Hash
	NftId     *big.Int
	Raw       types.Log
}

// AgentResult is emitted when a request output is settled. The output is
// indexed, so only its hash is recoverable from the log.
type AgentResult struct {
	RequestId       *big.Int
	Output          common.Hash
	NftId           *big.Int
	ValidationCount *big.Int
	TotalValidator  *big.Int
	Raw             types.Log
}

// Transfer is the ERC-721 ownership change event; mints come from the zero
// address.
type Transfer struct {
	From    common.Address
	To      common.Address
	TokenId *big.Int
	Raw     types.Log
}

// ParseTransfer decodes a Transfer log.
func (c *UomiAgent) ParseTransfer(log types.Log) (*Transfer, error) {
	event := new(Transfer)
	if err := c.contract.UnpackLog(event, "Transfer", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// MintedFromReceipt returns the token id minted by a safeMint receipt.
func (c *UomiAgent) MintedFromReceipt(receipt *types.Receipt) (*big.Int, error) {
	id := ABI.Events["Transfer"].ID
	for _, log := range receipt.Logs {
		if log.Address != c.address || len(log.Topics) != 4 || log.Topics[0] != id {
			continue
		}
		ev, err := c.ParseTransfer(*log)
		if err != nil {
			return nil, err
		}
		if ev.From == (common.Address{}) {
			return ev.TokenId, nil
		}
	}
	return nil, ErrEventNotFound
}

// ParseRequestSent decodes a RequestSent log.
func (c *UomiAgent) ParseRequestSent(log types.Log) (*RequestSent, error) {
	event := new(RequestSent)
	if err := c.contract.UnpackLog(event, "RequestSent", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseAgentResult decodes an AgentResult log.
func (c *UomiAgent) ParseAgentResult(log types.Log) (*AgentResult, error) {
	event := new(AgentResult)
	if err := c.contract.UnpackLog(event, "AgentResult", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// RequestFromReceipt finds the RequestSent event emitted by this contract in
// a callAgent receipt.
func (c *UomiAgent) RequestFromReceipt(receipt *types.Receipt) (*RequestSent, error) {
	id := ABI.Events["RequestSent"].ID
	for _, log := range receipt.Logs {
		if log.Address != c.address || len(log.Topics) == 0 || log.Topics[0] != id {
			continue
		}
		return c.ParseRequestSent(*log)
	}
	return nil, ErrEventNotFound
}

// FilterRequestSent returns the historical RequestSent events, optionally
// restricted to the given senders.
func (c *UomiAgent) FilterRequestSent(opts *bind.FilterOpts, senders []common.Address) ([]*RequestSent, error) {
	var senderRule []interface{}
	for _, s := range senders {
		senderRule = append(senderRule, s)
	}
	logs, err := c.filter(opts, "RequestSent", senderRule)
	if err != nil {
		return nil, err
	}
	events := make([]*RequestSent, 0, len(logs))
	for _, log := range logs {
		ev, err := c.ParseRequestSent(log)
		if err != nil {
			return nil, WrapError("RequestSent", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// FilterAgentResult returns the historical AgentResult events, optionally
// restricted to the given request ids.
func (c *UomiAgent) FilterAgentResult(opts *bind.FilterOpts, requestIDs []*big.Int) ([]*AgentResult, error) {
	var idRule []interface{}
	for _, id := range requestIDs {
		idRule = append(idRule, id)
	}
	logs, err := c.filter(opts, "AgentResult", idRule)
	if err != nil {
		return nil, err
	}
	events := make([]*AgentResult, 0, len(logs))
	for _, log := range logs {
		ev, err := c.ParseAgentResult(log)
		if err != nil {
			return nil, WrapError("AgentResult", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// filter collects every log matched by a historical query.
func (c *UomiAgent) filter(opts *bind.FilterOpts, name string, query ...[]interface{}) ([]types.Log, error) {
	logs, sub, err := c.contract.FilterLogs(opts, name, query...)
	if err != nil {
		return nil, WrapError(name, err)
	}
	defer sub.Unsubscribe()

	var out []types.Log
	for {
		select {
		case log := <-logs:
			out = append(out, log)
		case err := <-sub.Err():
			if err != nil {
				return nil, WrapError(name, err)
			}
			// The producer is done, drain what it buffered.
			for {
				select {
				case log := <-logs:
					out = append(out, log)
				default:
					return out, nil
				}
			}
		}
	}
}
