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

// Package uomiagenttest provides an in-memory stand-in for a node hosting the
// agent contract. It speaks the contract ABI, verifies signatures and keeps
// just enough state to drive clients through mint, call and result flows.
package uomiagenttest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/uomi-network/go-uomiagent/contracts/uomiagent"
	"github.com/uomi-network/go-uomiagent/core/agents"
)

// DefaultFixedPrice is the mint fee of a fresh backend, in ether.
const DefaultFixedPrice = 10

var errUnsupported = errors.New("not supported by the test backend")

// RevertError mimics the error a node returns for a reverted call.
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string          { return "execution reverted" }
func (e *RevertError) ErrorData() interface{} { return hexutil.Encode(e.Data) }

// Revert builds the revert error for a custom contract error.
func Revert(name string, args ...interface{}) *RevertError {
	e, ok := uomiagent.ABI.Errors[name]
	if !ok {
		panic("uomiagenttest: unknown contract error " + name)
	}
	data, err := e.Inputs.Pack(args...)
	if err != nil {
		panic(err)
	}
	return &RevertError{Data: append(append([]byte{}, e.ID[:4]...), data...)}
}

type request struct {
	nftID     *big.Int
	sender    common.Address
	input     string
	inputCID  string
	output    []byte
	execs     *big.Int
	consensus *big.Int
	validated *big.Int
	total     *big.Int
	claimed   bool

	pendingPolls int // getAgentOutput calls left before the output shows
	pending      []byte
}

// Backend is a fake node with the agent contract deployed at Address.
type Backend struct {
	Address common.Address
	Chain   *big.Int
	BaseFee *big.Int // nil simulates a pre-London chain

	mu          sync.Mutex
	fixedPrice  *big.Int
	agents      map[uint64]*agents.Agent
	owners      map[uint64]common.Address
	tokens      []uint64
	requests    map[uint64]*request
	nextRequest uint64
	ipfsStorage common.Address
	collected   *big.Int
	roles       map[[32]byte]map[common.Address]bool
	approvals   map[uint64]common.Address
	nonces      map[common.Address]uint64
	receipts    map[common.Hash]*types.Receipt
	history     []types.Log
	block       uint64
	calls       map[string]int
	failures    map[string][]error
}

// NewBackend creates a backend whose contract administrator is admin.
func NewBackend(admin common.Address) *Backend {
	return &Backend{
		Address:     common.HexToAddress("0xDB5e49D00321ACC34C76Af6fa02E7D9766b6e0F5"),
		Chain:       big.NewInt(4386),
		BaseFee:     big.NewInt(params.GWei),
		fixedPrice:  new(big.Int).Mul(big.NewInt(DefaultFixedPrice), big.NewInt(params.Ether)),
		agents:      make(map[uint64]*agents.Agent),
		owners:      make(map[uint64]common.Address),
		requests:    make(map[uint64]*request),
		nextRequest: 1,
		collected:   new(big.Int),
		roles:       map[[32]byte]map[common.Address]bool{{}: {admin: true}},
		approvals:   make(map[uint64]common.Address),
		nonces:      make(map[common.Address]uint64),
		receipts:    make(map[common.Hash]*types.Receipt),
		block:       1,
		calls:       make(map[string]int),
		failures:    make(map[string][]error),
	}
}

// FixedPrice returns the configured mint fee.
func (b *Backend) FixedPrice() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.fixedPrice)
}

// Collected returns the fees held by the contract.
func (b *Backend) Collected() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.collected)
}

// Calls returns how often a contract method was invoked, by call or transaction.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// FailNext makes the next invocations of method fail with the given errors,
// one per invocation.
func (b *Backend) FailNext(method string, errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method] = append(b.failures[method], errs...)
}

// Respond settles the output of a request after the given number of
// getAgentOutput polls have seen it pending.
func (b *Backend) Respond(requestID uint64, afterPolls int, output []byte, validations, validators uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	req, ok := b.requests[requestID]
	if !ok {
		return fmt.Errorf("unknown request %d", requestID)
	}
	req.pending = output
	req.pendingPolls = afterPolls
	req.validated = new(big.Int).SetUint64(validations)
	req.total = new(big.Int).SetUint64(validators)
	if afterPolls == 0 {
		b.settle(requestID, req)
	}
	return nil
}

// Request returns the input of a submitted request.
func (b *Backend) Request(requestID uint64) (input, inputCID string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.requests[requestID]
	if !ok {
		return "", "", false
	}
	return req.input, req.inputCID, true
}

// settle publishes a pending output. b.mu must be held.
func (b *Backend) settle(id uint64, req *request) {
	req.output = req.pending
	req.execs = new(big.Int).Set(req.total)
	req.consensus = new(big.Int).Set(req.validated)
	req.pending = nil

	ev := uomiagent.ABI.Events["AgentResult"]
	data, _ := ev.Inputs.NonIndexed().Pack(req.validated, req.total)
	b.block++
	b.history = append(b.history, types.Log{
		Address: b.Address,
		Topics: []common.Hash{
			ev.ID,
			common.BigToHash(new(big.Int).SetUint64(id)),
			crypto.Keccak256Hash(req.output),
			common.BigToHash(req.nftID),
		},
		Data:        data,
		BlockNumber: b.block,
	})
}

func (b *Backend) fail(method string) error {
	errs := b.failures[method]
	if len(errs) == 0 {
		return nil
	}
	b.failures[method] = errs[1:]
	return errs[0]
}

// CodeAt implements bind.ContractCaller.
func (b *Backend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	if account == b.Address {
		return []byte{0x60, 0x80}, nil
	}
	return nil, nil
}

// PendingCodeAt implements bind.ContractTransactor.
func (b *Backend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.CodeAt(ctx, account, nil)
}

// CallContract implements bind.ContractCaller.
func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if call.To == nil || *call.To != b.Address {
		return nil, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	method, args, err := decodeInput(call.Data)
	if err != nil {
		return nil, err
	}
	b.calls[method.Name]++
	if err := b.fail(method.Name); err != nil {
		return nil, err
	}
	out, err := b.view(method.Name, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

// EstimateGas implements bind.ContractTransactor by dry running the call.
func (b *Backend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if call.To == nil || *call.To != b.Address {
		return 21000, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	method, args, err := decodeInput(call.Data)
	if err != nil {
		return 0, err
	}
	if _, err := b.execute(call.From, valueOf(call.Value), method.Name, args, false); err != nil {
		return 0, err
	}
	return 250_000, nil
}

// SuggestGasPrice implements bind.ContractTransactor.
func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(params.GWei), nil
}

// SuggestGasTipCap implements bind.ContractTransactor.
func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(params.GWei), nil
}

// HeaderByNumber implements bind.ContractTransactor.
func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	head := &types.Header{Number: new(big.Int).SetUint64(b.block)}
	if b.BaseFee != nil {
		head.BaseFee = new(big.Int).Set(b.BaseFee)
	}
	return head, nil
}

// PendingNonceAt implements bind.ContractTransactor.
func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

// ChainID returns the configured chain id.
func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.Chain), nil
}

// SendTransaction implements bind.ContractTransactor. Transactions are mined
// immediately; reverting ones produce a failed receipt.
func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	from, err := types.Sender(types.LatestSignerForChainID(b.Chain), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %v", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if tx.Nonce() != b.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), b.nonces[from])
	}
	if tx.To() == nil || *tx.To() != b.Address {
		return errUnsupported
	}
	method, args, err := decodeInput(tx.Data())
	if err != nil {
		return err
	}
	b.calls[method.Name]++
	if err := b.fail(method.Name); err != nil {
		return err
	}
	b.nonces[from]++
	b.block++

	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            types.ReceiptStatusSuccessful,
		TxHash:            tx.Hash(),
		GasUsed:           250_000,
		CumulativeGasUsed: 250_000,
		BlockNumber:       new(big.Int).SetUint64(b.block),
	}
	logs, err := b.execute(from, valueOf(tx.Value()), method.Name, args, true)
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
	}
	for i, log := range logs {
		log.TxHash = tx.Hash()
		log.BlockNumber = b.block
		log.Index = uint(i)
		receipt.Logs = append(receipt.Logs, log)
		b.history = append(b.history, *log)
	}
	b.receipts[tx.Hash()] = receipt
	return nil
}

// TransactionReceipt implements bind.DeployBackend.
func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	receipt, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// FilterLogs implements bind.ContractFilterer over every log emitted so far.
func (b *Backend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []types.Log
	for _, log := range b.history {
		if matchLog(log, q) {
			out = append(out, log)
		}
	}
	return out, nil
}

// SubscribeFilterLogs implements bind.ContractFilterer.
func (b *Backend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errUnsupported
}

func matchLog(log types.Log, q ethereum.FilterQuery) bool {
	if len(q.Addresses) > 0 {
		found := false
		for _, addr := range q.Addresses {
			if addr == log.Address {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	for i, alternatives := range q.Topics {
		if len(alternatives) == 0 {
			continue
		}
		if i >= len(log.Topics) {
			return false
		}
		found := false
		for _, topic := range alternatives {
			if topic == log.Topics[i] {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func valueOf(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
