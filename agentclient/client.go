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

// Package agentclient drives the agent contract: it mints and updates agents,
// submits paid requests and waits for the validators to settle their output.
package agentclient

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/uomi-network/go-uomiagent/contracts/uomiagent"
	"github.com/uomi-network/go-uomiagent/core/agents"
	"github.com/uomi-network/go-uomiagent/crypto/blockcodec"
	"github.com/uomi-network/go-uomiagent/internal/journal"
	"golang.org/x/time/rate"
)

var (
	ErrNoSigner      = errors.New("client has no signing key")
	ErrNoCodec       = errors.New("client has no payload codec")
	ErrUnknownAgent  = errors.New("agent does not exist")
	ErrNoContract    = errors.New("no contract address configured")
	ErrPollExhausted = errors.New("agent output not ready after all poll attempts")
)

// Backend is everything the client needs from a node. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Option configures optional client collaborators.
type Option func(*Client)

// WithJournal records submitted requests in j. The client does not close it.
func WithJournal(j *journal.Journal) Option {
	return func(c *Client) { c.journal = j }
}

// WithCodec overrides the codec built from the config.
func WithCodec(codec blockcodec.Codec) Option {
	return func(c *Client) { c.codec = codec }
}

// Client is a signing, caching front-end to one agent contract deployment.
type Client struct {
	cfg      Config
	backend  Backend
	contract *uomiagent.UomiAgent
	key      *ecdsa.PrivateKey // nil for read-only clients
	from     common.Address
	chainID  *big.Int

	codec   blockcodec.Codec
	journal *journal.Journal
	cache   *lru.Cache[uint64, *agents.Agent]
	limiter *rate.Limiter

	txLock  sync.Mutex // serializes nonce assignment
	closers []func()
	log     log.Logger
}

// NewClient binds a client to the contract at cfg.Contract. key may be nil,
// in which case only reads are possible.
func NewClient(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, cfg Config, opts ...Option) (*Client, error) {
	if cfg.Contract == (common.Address{}) {
		return nil, ErrNoContract
	}
	if err := cfg.Poll.validate(); err != nil {
		return nil, err
	}
	size := cfg.AgentCacheSize
	if size <= 0 {
		size = Defaults.AgentCacheSize
	}
	cache, err := lru.New[uint64, *agents.Agent](size)
	if err != nil {
		return nil, err
	}
	limit, burst := rate.Inf, cfg.RPCRateBurst
	if cfg.RPCRateLimit > 0 {
		limit = rate.Limit(cfg.RPCRateLimit)
	}
	if burst <= 0 {
		burst = 1
	}
	c := &Client{
		cfg:      cfg,
		backend:  backend,
		contract: uomiagent.NewUomiAgent(cfg.Contract, backend),
		key:      key,
		cache:    cache,
		limiter:  rate.NewLimiter(limit, burst),
		log:      log.New("contract", cfg.Contract),
	}
	if key != nil {
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.codec == nil && cfg.Codec.Key != "" {
		if c.codec, err = blockcodec.New(cfg.Codec); err != nil {
			return nil, err
		}
	}
	if cfg.ChainID != 0 {
		c.chainID = new(big.Int).SetUint64(cfg.ChainID)
	} else {
		if c.chainID, err = backend.ChainID(ctx); err != nil {
			return nil, fmt.Errorf("failed to query chain id: %w", err)
		}
	}
	return c, nil
}

// Dial connects to cfg.RPC and opens the journal configured in cfg.
func Dial(ctx context.Context, cfg Config, key *ecdsa.PrivateKey) (*Client, error) {
	rpcClient, err := ethclient.DialContext(ctx, cfg.RPC)
	if err != nil {
		return nil, err
	}
	var opts []Option
	var jnl *journal.Journal
	if cfg.Journal != "" {
		if jnl, err = journal.Open(cfg.Journal); err != nil {
			rpcClient.Close()
			return nil, err
		}
		opts = append(opts, WithJournal(jnl))
	}
	c, err := NewClient(ctx, rpcClient, key, cfg, opts...)
	if err != nil {
		if jnl != nil {
			jnl.Close()
		}
		rpcClient.Close()
		return nil, err
	}
	if jnl != nil {
		c.closers = append(c.closers, func() { jnl.Close() })
	}
	c.closers = append(c.closers, rpcClient.Close)
	c.log.Debug("Connected to node", "url", cfg.RPC, "chainid", c.chainID)
	return c, nil
}

// Close releases whatever Dial opened.
func (c *Client) Close() {
	for _, fn := range c.closers {
		fn()
	}
	c.closers = nil
}

// Address returns the signing account, or the zero address for read-only
// clients.
func (c *Client) Address() common.Address { return c.from }

// ChainID returns the chain id transactions are signed for.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// Contract exposes the underlying binding.
func (c *Client) Contract() *uomiagent.UomiAgent { return c.contract }

// Journal returns the request journal, if any.
func (c *Client) Journal() *journal.Journal { return c.journal }

// Codec returns the payload codec, if any.
func (c *Client) Codec() blockcodec.Codec { return c.codec }

// callOpts waits for the rate limiter and returns the options of a read.
func (c *Client) callOpts(ctx context.Context) (*bind.CallOpts, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	readCounter.Inc(1)
	return &bind.CallOpts{Context: ctx, From: c.from}, nil
}

// read runs one throttled contract read.
func read[T any](ctx context.Context, c *Client, fn func(*bind.CallOpts) (T, error)) (T, error) {
	var zero T
	opts, err := c.callOpts(ctx)
	if err != nil {
		return zero, err
	}
	v, err := fn(opts)
	if err != nil {
		readFailedCounter.Inc(1)
		return zero, err
	}
	return v, nil
}

// transactOpts fills in the fee fields. On London chains the fee cap is
// twice the current base fee plus the tip, which keeps the transaction
// includable across several full blocks.
func (c *Client) transactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, ErrNoSigner
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.Value = value
	opts.GasLimit = c.cfg.GasLimit

	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch head: %w", err)
	}
	if head.BaseFee == nil {
		// Pre-London: the binding falls back to the suggested gas price.
		return opts, nil
	}
	tip := c.cfg.GasTipCap
	if tip == nil {
		if tip, err = c.backend.SuggestGasTipCap(ctx); err != nil {
			return nil, fmt.Errorf("failed to suggest tip: %w", err)
		}
	}
	opts.GasTipCap = new(big.Int).Set(tip)
	opts.GasFeeCap = new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	return opts, nil
}

// send submits a transaction built by fn and waits for its receipt. A
// receipt with failed status is returned together with an error.
func (c *Client) send(ctx context.Context, method string, value *big.Int, fn func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Receipt, error) {
	c.txLock.Lock()
	opts, err := c.transactOpts(ctx, value)
	if err != nil {
		c.txLock.Unlock()
		return nil, uomiagent.WrapError(method, err)
	}
	tx, err := fn(opts)
	c.txLock.Unlock()
	if err != nil {
		txFailedCounter.Inc(1)
		return nil, err
	}
	txSentCounter.Inc(1)
	c.log.Info("Submitted transaction", "method", method, "hash", tx.Hash(), "nonce", tx.Nonce(), "value", value)

	start := time.Now()
	waitCtx := ctx
	if c.cfg.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.cfg.ReceiptTimeout)
		defer cancel()
	}
	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	if err != nil {
		txFailedCounter.Inc(1)
		return nil, uomiagent.WrapError(method, fmt.Errorf("waiting for %s: %w", tx.Hash().Hex(), err))
	}
	txMinedTimer.UpdateSince(start)
	if receipt.Status != types.ReceiptStatusSuccessful {
		txRevertedCounter.Inc(1)
		c.log.Warn("Transaction reverted", "method", method, "hash", tx.Hash(), "block", receipt.BlockNumber)
		return receipt, uomiagent.WrapError(method, fmt.Errorf("%w: %s", uomiagent.ErrTransactionReverted, tx.Hash().Hex()))
	}
	c.log.Debug("Transaction mined", "method", method, "hash", tx.Hash(), "block", receipt.BlockNumber, "gas", receipt.GasUsed)
	return receipt, nil
}
