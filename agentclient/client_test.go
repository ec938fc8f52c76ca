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
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uomi-network/go-uomiagent/contracts/uomiagent"
	"github.com/uomi-network/go-uomiagent/contracts/uomiagent/uomiagenttest"
	"github.com/uomi-network/go-uomiagent/core/agents"
	"github.com/uomi-network/go-uomiagent/crypto/blockcodec"
	"github.com/uomi-network/go-uomiagent/internal/journal"
)

const (
	chatSchema = `{"type":"array","items":{"type":"object","required":["role","content"]}}`
	chatInput  = `[{"role":"user","content":"ciao come stai"}]`
	testKey    = "000102030405060708090a0b0c0d0e0f"
)

type env struct {
	t       *testing.T
	backend *uomiagenttest.Backend
	admin   *ecdsa.PrivateKey
	user    *ecdsa.PrivateKey
	client  *Client // signs as user
	journal *journal.Journal
}

func testConfig(contract common.Address) Config {
	cfg := Defaults
	cfg.Contract = contract
	cfg.ChainID = 0
	cfg.RPCRateLimit = 0
	cfg.Codec = blockcodec.Config{Mode: blockcodec.ModeLegacy, Key: testKey}
	cfg.Poll = PollConfig{
		Interval:    time.Millisecond,
		MaxInterval: 4 * time.Millisecond,
		Multiplier:  2,
		MaxAttempts: 10,
	}
	return cfg
}

func newEnv(t *testing.T, mutate ...func(*Config)) *env {
	admin, _ := crypto.GenerateKey()
	user, _ := crypto.GenerateKey()
	backend := uomiagenttest.NewBackend(crypto.PubkeyToAddress(admin.PublicKey))

	jnl, err := journal.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { jnl.Close() })

	cfg := testConfig(backend.Address)
	for _, fn := range mutate {
		fn(&cfg)
	}
	client, err := NewClient(context.Background(), backend, user, cfg, WithJournal(jnl))
	require.NoError(t, err)
	return &env{t: t, backend: backend, admin: admin, user: user, client: client, journal: jnl}
}

func (e *env) clientFor(key *ecdsa.PrivateKey) *Client {
	c, err := NewClient(context.Background(), e.backend, key, testConfig(e.backend.Address))
	require.NoError(e.t, err)
	return c
}

func (e *env) mint(agent *agents.Agent) *big.Int {
	id, _, err := e.client.CreateAgent(context.Background(), agent, common.Address{})
	require.NoError(e.t, err)
	return id
}

func (e *env) call(id *big.Int, input string) *big.Int {
	req, _, err := e.client.CallAgent(context.Background(), id, "", input)
	require.NoError(e.t, err)
	return req.RequestID
}

func chatAgent() *agents.Agent {
	return &agents.Agent{
		Name:          "Whitepaper Agent",
		Description:   "Explains the network ecosystem",
		InputSchema:   chatSchema,
		OutputSchema:  "{}",
		Tags:          []string{"uomi", "chat", "whitepaper"},
		Price:         big.NewInt(params.Ether / 10),
		MinValidators: big.NewInt(4),
		MinBlocks:     big.NewInt(20),
		AgentCID:      "bafkreif5jtx37ujddnelg73tuyppzyimal32n6q57ovzkso56g7hcnevye",
	}
}

func TestNewClient(t *testing.T) {
	backend := uomiagenttest.NewBackend(common.Address{})

	_, err := NewClient(context.Background(), backend, nil, Config{})
	assert.ErrorIs(t, err, ErrNoContract)

	cfg := testConfig(backend.Address)
	cfg.Poll.Multiplier = 0.5
	_, err = NewClient(context.Background(), backend, nil, cfg)
	assert.ErrorIs(t, err, errBadPoll)

	cfg = testConfig(backend.Address)
	cfg.Codec.Key = "abcd"
	_, err = NewClient(context.Background(), backend, nil, cfg)
	assert.Error(t, err)

	c, err := NewClient(context.Background(), backend, nil, testConfig(backend.Address))
	require.NoError(t, err)
	assert.Equal(t, backend.Chain, c.ChainID())
	assert.Equal(t, common.Address{}, c.Address())

	cfg = testConfig(backend.Address)
	cfg.ChainID = 77
	c, err = NewClient(context.Background(), backend, nil, cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 77, c.ChainID().Int64())
}

func TestReadOnlyClient(t *testing.T) {
	backend := uomiagenttest.NewBackend(common.Address{})
	c, err := NewClient(context.Background(), backend, nil, testConfig(backend.Address))
	require.NoError(t, err)

	_, _, err = c.CreateAgent(context.Background(), chatAgent(), common.Address{1})
	assert.ErrorIs(t, err, ErrNoSigner)
	assert.ErrorIs(t, err, uomiagent.ErrRemoteCallFailed)
	assert.Zero(t, backend.Calls("safeMint"))
}

func TestTransactOpts(t *testing.T) {
	e := newEnv(t)
	opts, err := e.client.transactOpts(context.Background(), big.NewInt(5))
	require.NoError(t, err)

	// 2 * 1 gwei base fee + 0.5 gwei tip
	assert.Equal(t, big.NewInt(params.GWei/2), opts.GasTipCap)
	assert.Equal(t, big.NewInt(2*params.GWei+params.GWei/2), opts.GasFeeCap)
	assert.Equal(t, big.NewInt(5), opts.Value)
	assert.Equal(t, e.client.Address(), opts.From)

	e.client.cfg.GasTipCap = nil
	opts, err = e.client.transactOpts(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(params.GWei), opts.GasTipCap, "suggested tip")

	e.backend.BaseFee = nil
	opts, err = e.client.transactOpts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, opts.GasFeeCap)
	assert.Nil(t, opts.GasTipCap)
}

func TestLegacyChainTransaction(t *testing.T) {
	e := newEnv(t)
	e.backend.BaseFee = nil
	id := e.mint(chatAgent())
	assert.EqualValues(t, 1, id.Int64())
}

func TestCreateAndGetAgent(t *testing.T) {
	e := newEnv(t)
	id, receipt, err := e.client.CreateAgent(context.Background(), chatAgent(), common.Address{})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.EqualValues(t, 1, id.Int64())
	assert.Equal(t, e.backend.FixedPrice(), e.backend.Collected())

	got, err := e.client.GetAgent(context.Background(), id)
	require.NoError(t, err)
	want := chatAgent()
	want.Tags = nil
	assert.Equal(t, want, got)

	// Served from the cache, and callers cannot poison it.
	got.Name = "changed"
	again, err := e.client.GetAgent(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Whitepaper Agent", again.Name)
	assert.Equal(t, 1, e.backend.Calls("agents"))
}

func TestCreateAgentForRecipient(t *testing.T) {
	e := newEnv(t)
	recipient := common.HexToAddress("0x9cE69C61B3D51Ab022e130b453A2c4124f3A9E49")
	id, _, err := e.client.CreateAgent(context.Background(), chatAgent(), recipient)
	require.NoError(t, err)

	owner, err := e.client.Contract().OwnerOf(nil, id)
	require.NoError(t, err)
	assert.Equal(t, recipient, owner)
}

func TestCreateAgentValidation(t *testing.T) {
	e := newEnv(t)
	bad := chatAgent()
	bad.Tags = []string{"chat", "chat"}
	_, _, err := e.client.CreateAgent(context.Background(), bad, common.Address{})
	assert.ErrorIs(t, err, agents.ErrDuplicateTag)

	bad = chatAgent()
	bad.InputSchema = `{"type": 12}`
	_, _, err = e.client.CreateAgent(context.Background(), bad, common.Address{})
	assert.ErrorIs(t, err, agents.ErrInvalidSchema)

	assert.Zero(t, e.backend.Calls("safeMint"))
}

func TestCreateAgentUnderpaid(t *testing.T) {
	e := newEnv(t, func(cfg *Config) { cfg.MintValue = big.NewInt(params.Ether) })
	_, _, err := e.client.CreateAgent(context.Background(), chatAgent(), common.Address{})
	require.Error(t, err)
	assert.ErrorIs(t, err, uomiagent.ErrRemoteCallFailed)
	assert.True(t, uomiagent.IsRevert(err, "NotEnoughPayment"))
}

func TestRevertedReceipt(t *testing.T) {
	// A fixed gas limit skips estimation, so the revert only shows in the receipt.
	e := newEnv(t, func(cfg *Config) {
		cfg.GasLimit = 500_000
		cfg.MintValue = big.NewInt(1)
	})
	_, receipt, err := e.client.CreateAgent(context.Background(), chatAgent(), common.Address{})
	require.Error(t, err)
	require.NotNil(t, receipt)
	assert.ErrorIs(t, err, uomiagent.ErrTransactionReverted)
	assert.ErrorIs(t, err, uomiagent.ErrRemoteCallFailed)
}

func TestUpdateAgentInvalidatesCache(t *testing.T) {
	e := newEnv(t)
	id := e.mint(chatAgent())
	_, err := e.client.GetAgent(context.Background(), id)
	require.NoError(t, err)

	updated := chatAgent()
	updated.Price = big.NewInt(params.Ether)
	_, err = e.client.UpdateAgent(context.Background(), id, updated)
	require.NoError(t, err)

	got, err := e.client.GetAgent(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(params.Ether), got.Price)
	assert.Equal(t, 2, e.backend.Calls("agents"))
}

func TestUpdateAgentNotOwner(t *testing.T) {
	e := newEnv(t)
	id := e.mint(chatAgent())
	_, err := e.clientFor(e.admin).UpdateAgent(context.Background(), id, chatAgent())
	assert.True(t, uomiagent.IsRevert(err, "ERC721IncorrectOwner"))
}

func TestGetUnknownAgent(t *testing.T) {
	e := newEnv(t)
	_, err := e.client.GetAgent(context.Background(), big.NewInt(42))
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestCallAgent(t *testing.T) {
	e := newEnv(t)
	id := e.mint(chatAgent())

	req, receipt, err := e.client.CallAgent(context.Background(), id, "QmInput", chatInput)
	require.NoError(t, err)
	assert.EqualValues(t, 1, req.RequestID.Int64())
	assert.Equal(t, id, req.NftID)

	paid := new(big.Int).Add(e.backend.FixedPrice(), chatAgent().Price)
	assert.Equal(t, paid, e.backend.Collected())

	input, cid, ok := e.backend.Request(1)
	require.True(t, ok)
	assert.Equal(t, chatInput, input)
	assert.Equal(t, "QmInput", cid)

	entry, err := e.journal.Get(req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusSubmitted, entry.Status)
	assert.Equal(t, receipt.TxHash, entry.TxHash)
	assert.Equal(t, e.client.Address(), entry.Sender)
	assert.Equal(t, chatInput, entry.Input)
}

func TestCallAgentInputSchema(t *testing.T) {
	e := newEnv(t)
	id := e.mint(chatAgent())

	_, _, err := e.client.CallAgent(context.Background(), id, "", "ciao")
	assert.ErrorIs(t, err, agents.ErrInputMismatch)
	_, _, err = e.client.CallAgent(context.Background(), id, "", `[{"role":"user"}]`)
	assert.ErrorIs(t, err, agents.ErrInputMismatch)
	assert.Zero(t, e.backend.Calls("callAgent"))

	e.client.cfg.ValidateInput = false
	_, _, err = e.client.CallAgent(context.Background(), id, "", "ciao")
	assert.NoError(t, err)
}

func TestCallAgentFreeTextSchema(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Minted by another tool, the schema is prose rather than JSON Schema.
	agent := chatAgent()
	agent.InputSchema = "A chat transcript as a list of messages"
	receipt, err := e.client.send(ctx, "safeMint", e.backend.FixedPrice(), func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return e.client.Contract().SafeMint(opts, agent, e.client.Address())
	})
	require.NoError(t, err)
	id, err := e.client.Contract().MintedFromReceipt(receipt)
	require.NoError(t, err)

	req, _, err := e.client.CallAgent(ctx, id, "", chatInput)
	require.NoError(t, err)
	assert.Equal(t, id, req.NftID)
	_, _, err = e.client.CallAgent(ctx, id, "", "not even json")
	require.NoError(t, err)
	assert.Equal(t, 2, e.backend.Calls("callAgent"))
}

func TestCallAgentEncodedInput(t *testing.T) {
	e := newEnv(t, func(cfg *Config) {
		cfg.EncodeInput = true
		cfg.ValidateInput = false
	})
	id := e.mint(chatAgent())
	e.call(id, "Hello World!")

	input, _, ok := e.backend.Request(1)
	require.True(t, ok)
	assert.Len(t, input, 2+2*blockcodec.BlockSize)

	want, err := e.client.EncodeInput("Hello World!")
	require.NoError(t, err)
	assert.Equal(t, want, input)
}

func TestAwaitOutput(t *testing.T) {
	e := newEnv(t)
	reqID := e.call(e.mint(chatAgent()), chatInput)
	require.NoError(t, e.backend.Respond(reqID.Uint64(), 3, []byte("payload"), 4, 4))

	out, err := e.client.AwaitOutput(context.Background(), reqID)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), out.Output)
	assert.Equal(t, 4, e.backend.Calls("getAgentOutput"))

	entry, err := e.journal.Get(reqID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusAnswered, entry.Status)
	assert.Equal(t, []byte("payload"), entry.Output)
	assert.EqualValues(t, 4, entry.TotalConsensus.Int64())
}

func TestAwaitOutputExhausted(t *testing.T) {
	e := newEnv(t)
	reqID := e.call(e.mint(chatAgent()), chatInput)

	_, err := e.client.AwaitOutput(context.Background(), reqID)
	assert.ErrorIs(t, err, ErrPollExhausted)
	assert.Equal(t, 10, e.backend.Calls("getAgentOutput"))
}

func TestAwaitOutputRetriesErrors(t *testing.T) {
	e := newEnv(t)
	reqID := e.call(e.mint(chatAgent()), chatInput)
	require.NoError(t, e.backend.Respond(reqID.Uint64(), 0, []byte("payload"), 1, 1))

	flaky := errors.New("connection reset")
	e.backend.FailNext("getAgentOutput", flaky, flaky)
	out, err := e.client.AwaitOutput(context.Background(), reqID)
	require.NoError(t, err)
	assert.True(t, out.Ready())
	assert.Equal(t, 3, e.backend.Calls("getAgentOutput"))

	// Errors up to the last attempt surface as the cause.
	e.client.cfg.Poll.MaxAttempts = 2
	e.backend.FailNext("getAgentOutput", flaky, flaky)
	_, err = e.client.AwaitOutput(context.Background(), reqID)
	assert.ErrorIs(t, err, ErrPollExhausted)
	assert.ErrorIs(t, err, flaky)
	assert.ErrorIs(t, err, uomiagent.ErrRemoteCallFailed)
}

func TestAwaitOutputCancelled(t *testing.T) {
	e := newEnv(t, func(cfg *Config) {
		cfg.Poll.MaxAttempts = 0
		cfg.Poll.Interval = 5 * time.Millisecond
		cfg.Poll.MaxInterval = 10 * time.Millisecond
	})
	reqID := e.call(e.mint(chatAgent()), chatInput)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := e.client.AwaitOutput(ctx, reqID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitAll(t *testing.T) {
	e := newEnv(t)
	id := e.mint(chatAgent())
	ids := []*big.Int{e.call(id, chatInput), e.call(id, chatInput), e.call(id, chatInput)}
	for i, reqID := range ids {
		require.NoError(t, e.backend.Respond(reqID.Uint64(), i, []byte{byte('a' + i)}, 1, 1))
	}
	outs, err := e.client.AwaitAll(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, outs, 3)
	for i, out := range outs {
		assert.Equal(t, []byte{byte('a' + i)}, out.Output)
	}

	_, err = e.client.AwaitAll(context.Background(), []*big.Int{ids[0], big.NewInt(99)})
	assert.ErrorIs(t, err, ErrPollExhausted)
}

func TestFetchResult(t *testing.T) {
	e := newEnv(t)
	reqID := e.call(e.mint(chatAgent()), chatInput)

	payload, err := e.client.Codec().Encode("Hello World!")
	require.NoError(t, err)
	require.NoError(t, e.backend.Respond(reqID.Uint64(), 0, payload, 3, 4))
	_, err = e.client.AwaitOutput(context.Background(), reqID)
	require.NoError(t, err)

	res, text, err := e.client.FetchResult(context.Background(), reqID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World!", text)
	assert.Equal(t, payload, res.Output)
	assert.EqualValues(t, 3, res.ValidationCount.Int64())
	assert.EqualValues(t, 4, res.TotalValidator.Int64())

	entry, err := e.journal.Get(reqID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusRead, entry.Status)
	assert.EqualValues(t, 3, entry.ValidationCount.Int64())
}

func TestFetchResultNotReady(t *testing.T) {
	e := newEnv(t)
	reqID := e.call(e.mint(chatAgent()), chatInput)

	_, _, err := e.client.FetchResult(context.Background(), reqID)
	require.Error(t, err)
	var rce *uomiagent.RemoteCallError
	require.True(t, errors.As(err, &rce))
	assert.Equal(t, "claimAgentResult", rce.Method)
	assert.Equal(t, "result not ready", rce.Reason)
}

func TestFetchResultWithoutCodec(t *testing.T) {
	e := newEnv(t, func(cfg *Config) { cfg.Codec.Key = "" })
	reqID := e.call(e.mint(chatAgent()), chatInput)
	require.NoError(t, e.backend.Respond(reqID.Uint64(), 0, []byte("raw"), 1, 1))
	_, err := e.client.AwaitOutput(context.Background(), reqID)
	require.NoError(t, err)

	res, text, err := e.client.FetchResult(context.Background(), reqID)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, []byte("raw"), res.Output)

	_, err = e.client.DecodeOutput(res.Output)
	assert.ErrorIs(t, err, ErrNoCodec)
}

func TestListAgents(t *testing.T) {
	e := newEnv(t)
	e.mint(chatAgent())
	other := common.HexToAddress("0x9cE69C61B3D51Ab022e130b453A2c4124f3A9E49")
	_, _, err := e.client.CreateAgent(context.Background(), chatAgent(), other)
	require.NoError(t, err)
	e.mint(chatAgent())

	all, err := e.client.ListAgents(context.Background(), common.Address{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, l := range all {
		assert.EqualValues(t, i+1, l.ID.Int64())
		assert.Equal(t, "Whitepaper Agent", l.Agent.Name)
	}
	assert.Equal(t, other, all[1].Owner)
	assert.Equal(t, e.client.Address(), all[2].Owner)

	mine, err := e.client.ListAgents(context.Background(), e.client.Address())
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.EqualValues(t, 3, mine[1].ID.Int64())
}

func TestTransferAgent(t *testing.T) {
	e := newEnv(t)
	id := e.mint(chatAgent())
	to := crypto.PubkeyToAddress(e.admin.PublicKey)

	_, err := e.client.TransferAgent(context.Background(), id, to)
	require.NoError(t, err)
	owner, err := e.client.Contract().OwnerOf(nil, id)
	require.NoError(t, err)
	assert.Equal(t, to, owner)
}

func TestAdminOperations(t *testing.T) {
	e := newEnv(t)
	admin := e.clientFor(e.admin)
	e.mint(chatAgent())

	ok, err := admin.IsAdmin(context.Background(), admin.Address())
	require.NoError(t, err)
	assert.True(t, ok)

	storage := common.HexToAddress("0x2C236e3f14bC72242ba0e9CDDb367331A9E0102C")
	_, err = e.client.SetIpfsStorage(context.Background(), storage)
	assert.True(t, uomiagent.IsRevert(err, "AccessControlUnauthorizedAccount"))
	_, err = admin.SetIpfsStorage(context.Background(), storage)
	require.NoError(t, err)

	_, err = admin.CashOut(context.Background())
	require.NoError(t, err)
	assert.Zero(t, e.backend.Collected().Sign())

	_, err = admin.GrantRole(context.Background(), [32]byte{}, e.client.Address())
	require.NoError(t, err)
	ok, err = e.client.IsAdmin(context.Background(), e.client.Address())
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = admin.RevokeRole(context.Background(), [32]byte{}, e.client.Address())
	require.NoError(t, err)
	ok, err = e.client.IsAdmin(context.Background(), e.client.Address())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackoff(t *testing.T) {
	poll := PollConfig{Interval: time.Second, MaxInterval: 5 * time.Second, Multiplier: 2, MaxAttempts: 10}
	var got []time.Duration
	for d := poll.Interval; len(got) < 5; d = backoff(d, poll) {
		got = append(got, d)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	assert.Equal(t, want, got)
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t, func(cfg *Config) {
		cfg.RPCRateLimit = 1
		cfg.RPCRateBurst = 1
	})
	// The first read takes the burst token, the second would wait a second.
	_, err := e.client.GetAgentOutput(context.Background(), big.NewInt(1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = e.client.GetAgentOutput(ctx, big.NewInt(1))
	assert.Error(t, err)
}
