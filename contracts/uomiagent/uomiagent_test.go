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

package uomiagent_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

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
)

type harness struct {
	t        *testing.T
	backend  *uomiagenttest.Backend
	contract *uomiagent.UomiAgent
	admin    *ecdsa.PrivateKey
	user     *ecdsa.PrivateKey
}

func newHarness(t *testing.T) *harness {
	admin, _ := crypto.GenerateKey()
	user, _ := crypto.GenerateKey()
	backend := uomiagenttest.NewBackend(crypto.PubkeyToAddress(admin.PublicKey))
	return &harness{
		t:        t,
		backend:  backend,
		contract: uomiagent.NewUomiAgent(backend.Address, backend),
		admin:    admin,
		user:     user,
	}
}

func (h *harness) opts(key *ecdsa.PrivateKey, value *big.Int) *bind.TransactOpts {
	opts, err := bind.NewKeyedTransactorWithChainID(key, h.backend.Chain)
	require.NoError(h.t, err)
	opts.Context = context.Background()
	opts.Value = value
	return opts
}

func (h *harness) receipt(tx *types.Transaction) *types.Receipt {
	receipt, err := h.backend.TransactionReceipt(context.Background(), tx.Hash())
	require.NoError(h.t, err)
	require.Equal(h.t, types.ReceiptStatusSuccessful, receipt.Status)
	return receipt
}

func (h *harness) mint(key *ecdsa.PrivateKey, agent *agents.Agent) *big.Int {
	tx, err := h.contract.SafeMint(h.opts(key, h.backend.FixedPrice()), agent, crypto.PubkeyToAddress(key.PublicKey))
	require.NoError(h.t, err)
	id, err := h.contract.MintedFromReceipt(h.receipt(tx))
	require.NoError(h.t, err)
	return id
}

func testAgent() *agents.Agent {
	return &agents.Agent{
		Name:          "Echo",
		Description:   "Repeats its input",
		InputSchema:   `{"type":"string"}`,
		OutputSchema:  "{}",
		Tags:          []string{"demo", "text"},
		Price:         big.NewInt(params.Ether),
		MinValidators: big.NewInt(3),
		MinBlocks:     big.NewInt(2),
		AgentCID:      "QmYjtig7VJQ6XsnUjqqJvj7QaMcCAwtrgNdahSiFofrE7o",
	}
}

func TestMintAndReadAgent(t *testing.T) {
	h := newHarness(t)
	id := h.mint(h.user, testAgent())
	assert.EqualValues(t, 1, id.Int64())
	assert.EqualValues(t, 2, h.mint(h.user, testAgent()).Int64())

	got, err := h.contract.Agents(nil, big.NewInt(1))
	require.NoError(t, err)
	want := testAgent()
	want.Tags = nil
	assert.Equal(t, want, got)

	owner, err := h.contract.OwnerOf(nil, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(h.user.PublicKey), owner)

	supply, err := h.contract.TotalSupply(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, supply.Int64())
}

func TestMintZeroFields(t *testing.T) {
	h := newHarness(t)
	h.mint(h.user, &agents.Agent{Name: "bare", AgentCID: "cid"})

	got, err := h.contract.Agents(nil, big.NewInt(1))
	require.NoError(t, err)
	assert.Zero(t, got.Price.Sign())
	assert.Zero(t, got.MinValidators.Sign())
}

func TestMintNotEnoughPayment(t *testing.T) {
	h := newHarness(t)
	_, err := h.contract.SafeMint(h.opts(h.user, big.NewInt(1)), testAgent(), common.Address{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, uomiagent.ErrRemoteCallFailed)
	assert.True(t, uomiagent.IsRevert(err, "NotEnoughPayment"))

	var rce *uomiagent.RemoteCallError
	require.True(t, errors.As(err, &rce))
	assert.Equal(t, "safeMint", rce.Method)
}

func TestContractConstants(t *testing.T) {
	h := newHarness(t)

	price, err := h.contract.FixedPrice(nil)
	require.NoError(t, err)
	assert.Equal(t, h.backend.FixedPrice(), price)

	max, err := h.contract.MaxAgents(nil)
	require.NoError(t, err)
	assert.EqualValues(t, uomiagenttest.MaxAgents, max)

	name, err := h.contract.Name(nil)
	require.NoError(t, err)
	assert.Equal(t, "UomiAgent", name)
}

func TestCallAgentEmitsRequest(t *testing.T) {
	h := newHarness(t)
	h.mint(h.user, testAgent())

	tx, err := h.contract.CallAgent(h.opts(h.user, big.NewInt(params.Ether)), big.NewInt(1), "QmInput", "hello")
	require.NoError(t, err)
	ev, err := h.contract.RequestFromReceipt(h.receipt(tx))
	require.NoError(t, err)

	assert.EqualValues(t, 1, ev.RequestId.Int64())
	assert.EqualValues(t, 1, ev.NftId.Int64())
	assert.Equal(t, crypto.PubkeyToAddress(h.user.PublicKey), ev.Sender)
	assert.Equal(t, crypto.Keccak256Hash([]byte("QmInput")), ev.InputUri)

	input, cid, ok := h.backend.Request(1)
	require.True(t, ok)
	assert.Equal(t, "hello", input)
	assert.Equal(t, "QmInput", cid)
}

func TestCallAgentUnderpaid(t *testing.T) {
	h := newHarness(t)
	h.mint(h.user, testAgent())

	_, err := h.contract.CallAgent(h.opts(h.user, big.NewInt(params.GWei)), big.NewInt(1), "", "hello")
	assert.True(t, uomiagent.IsRevert(err, "NotEnoughPayment"))

	_, err = h.contract.CallAgent(h.opts(h.user, big.NewInt(params.Ether)), big.NewInt(7), "", "hello")
	assert.True(t, uomiagent.IsRevert(err, "ERC721NonexistentToken"))
}

func TestRequestFromReceiptMissingEvent(t *testing.T) {
	h := newHarness(t)
	_, err := h.contract.RequestFromReceipt(&types.Receipt{})
	assert.ErrorIs(t, err, uomiagent.ErrEventNotFound)
}

func TestOutputClaimAndRead(t *testing.T) {
	h := newHarness(t)
	h.mint(h.user, testAgent())
	tx, err := h.contract.CallAgent(h.opts(h.user, big.NewInt(params.Ether)), big.NewInt(1), "", "hello")
	require.NoError(t, err)
	h.receipt(tx)

	out, err := h.contract.GetAgentOutput(nil, big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, out.Ready())

	require.NoError(t, h.backend.Respond(1, 0, []byte("answer"), 3, 4))
	out, err = h.contract.GetAgentOutput(nil, big.NewInt(1))
	require.NoError(t, err)
	require.True(t, out.Ready())
	assert.Equal(t, []byte("answer"), out.Output)
	assert.EqualValues(t, 4, out.TotalExecutions.Int64())
	assert.EqualValues(t, 3, out.TotalConsensus.Int64())

	_, err = h.contract.ReadAgentResult(nil, big.NewInt(1))
	require.Error(t, err)
	var rce *uomiagent.RemoteCallError
	require.True(t, errors.As(err, &rce))
	assert.Equal(t, "result not claimed", rce.Reason)

	tx, err = h.contract.ClaimAgentResult(h.opts(h.user, nil), big.NewInt(1))
	require.NoError(t, err)
	h.receipt(tx)

	res, err := h.contract.ReadAgentResult(nil, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("answer"), res.Output)
	assert.EqualValues(t, 1, res.RequestID.Int64())
	assert.EqualValues(t, 1, res.NftID.Int64())
	assert.True(t, res.Reached(big.NewInt(3)))
	assert.False(t, res.Reached(big.NewInt(4)))
}

func TestFilterEvents(t *testing.T) {
	h := newHarness(t)
	h.mint(h.user, testAgent())
	for i := 0; i < 3; i++ {
		key := h.user
		if i == 1 {
			key = h.admin
		}
		tx, err := h.contract.CallAgent(h.opts(key, big.NewInt(params.Ether)), big.NewInt(1), "", "hi")
		require.NoError(t, err)
		h.receipt(tx)
	}
	require.NoError(t, h.backend.Respond(2, 0, []byte("two"), 1, 1))
	require.NoError(t, h.backend.Respond(3, 0, []byte("three"), 1, 1))

	sent, err := h.contract.FilterRequestSent(nil, []common.Address{crypto.PubkeyToAddress(h.user.PublicKey)})
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.EqualValues(t, 1, sent[0].RequestId.Int64())
	assert.EqualValues(t, 3, sent[1].RequestId.Int64())

	all, err := h.contract.FilterRequestSent(nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	results, err := h.contract.FilterAgentResult(nil, []*big.Int{big.NewInt(3)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, crypto.Keccak256Hash([]byte("three")), results[0].Output)
	assert.EqualValues(t, 1, results[0].ValidationCount.Int64())
}

func TestAdminMethods(t *testing.T) {
	h := newHarness(t)
	storage := common.HexToAddress("0x2C236e3f14bC72242ba0e9CDDb367331A9E0102C")

	_, err := h.contract.SetIpfsStorage(h.opts(h.user, nil), storage)
	assert.True(t, uomiagent.IsRevert(err, "AccessControlUnauthorizedAccount"))

	tx, err := h.contract.SetIpfsStorage(h.opts(h.admin, nil), storage)
	require.NoError(t, err)
	h.receipt(tx)
	got, err := h.contract.IpfsStorage(nil)
	require.NoError(t, err)
	assert.Equal(t, storage, got)

	role, err := h.contract.DefaultAdminRole(nil)
	require.NoError(t, err)
	userAddr := crypto.PubkeyToAddress(h.user.PublicKey)
	tx, err = h.contract.GrantRole(h.opts(h.admin, nil), role, userAddr)
	require.NoError(t, err)
	h.receipt(tx)
	ok, err := h.contract.HasRole(nil, role, userAddr)
	require.NoError(t, err)
	assert.True(t, ok)

	h.mint(h.user, testAgent())
	require.Positive(t, h.backend.Collected().Sign())
	tx, err = h.contract.CashOut(h.opts(h.user, nil))
	require.NoError(t, err)
	h.receipt(tx)
	assert.Zero(t, h.backend.Collected().Sign())

	tx, err = h.contract.RevokeRole(h.opts(h.admin, nil), role, userAddr)
	require.NoError(t, err)
	h.receipt(tx)
	ok, err = h.contract.HasRole(nil, role, userAddr)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnumerationAndTransfer(t *testing.T) {
	h := newHarness(t)
	h.mint(h.user, testAgent())
	h.mint(h.admin, testAgent())
	h.mint(h.user, testAgent())

	userAddr := crypto.PubkeyToAddress(h.user.PublicKey)
	adminAddr := crypto.PubkeyToAddress(h.admin.PublicKey)

	balance, err := h.contract.BalanceOf(nil, userAddr)
	require.NoError(t, err)
	assert.EqualValues(t, 2, balance.Int64())
	id, err := h.contract.TokenOfOwnerByIndex(nil, userAddr, big.NewInt(1))
	require.NoError(t, err)
	assert.EqualValues(t, 3, id.Int64())
	id, err = h.contract.TokenByIndex(nil, big.NewInt(1))
	require.NoError(t, err)
	assert.EqualValues(t, 2, id.Int64())

	_, err = h.contract.OwnerOf(nil, big.NewInt(9))
	assert.True(t, uomiagent.IsRevert(err, "ERC721NonexistentToken"))

	_, err = h.contract.TransferFrom(h.opts(h.admin, nil), userAddr, adminAddr, big.NewInt(1))
	assert.True(t, uomiagent.IsRevert(err, "ERC721InsufficientApproval"))

	tx, err := h.contract.Approve(h.opts(h.user, nil), adminAddr, big.NewInt(1))
	require.NoError(t, err)
	h.receipt(tx)
	tx, err = h.contract.TransferFrom(h.opts(h.admin, nil), userAddr, adminAddr, big.NewInt(1))
	require.NoError(t, err)
	h.receipt(tx)

	tx, err = h.contract.SafeTransferFrom(h.opts(h.user, nil), userAddr, adminAddr, big.NewInt(3))
	require.NoError(t, err)
	h.receipt(tx)

	balance, err = h.contract.BalanceOf(nil, adminAddr)
	require.NoError(t, err)
	assert.EqualValues(t, 3, balance.Int64())
}

func TestUpdateAgent(t *testing.T) {
	h := newHarness(t)
	h.mint(h.user, testAgent())

	updated := testAgent()
	updated.Description = "Repeats its input twice"
	updated.Price = big.NewInt(2 * params.Ether)

	_, err := h.contract.UpdateAgent(h.opts(h.admin, nil), big.NewInt(1), updated)
	assert.True(t, uomiagent.IsRevert(err, "ERC721IncorrectOwner"))

	tx, err := h.contract.UpdateAgent(h.opts(h.user, nil), big.NewInt(1), updated)
	require.NoError(t, err)
	h.receipt(tx)

	got, err := h.contract.Agents(nil, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, updated.Description, got.Description)
	assert.Equal(t, updated.Price, got.Price)
}

func TestRemoteCallErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := uomiagent.WrapError("agents", cause)

	assert.ErrorIs(t, err, uomiagent.ErrRemoteCallFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "agents failed: connection refused", err.Error())
	assert.Same(t, err, uomiagent.WrapError("other", err))
	assert.NoError(t, uomiagent.WrapError("agents", nil))
	assert.False(t, uomiagent.IsRevert(cause, "MaxAgents"))
}

func TestRevertReasonFromNode(t *testing.T) {
	err := uomiagent.WrapError("cashOut", uomiagenttest.Revert("AccessControlUnauthorizedAccount", common.Address{0xaa}, [32]byte{}))
	var rce *uomiagent.RemoteCallError
	require.True(t, errors.As(err, &rce))
	assert.Contains(t, rce.Reason, "AccessControlUnauthorizedAccount(account="+common.Address{0xaa}.Hex())
	assert.Contains(t, rce.Reason, "neededRole=0x0000000000000000000000000000000000000000000000000000000000000000")
	assert.True(t, uomiagent.IsRevert(err, "AccessControlUnauthorizedAccount"))
}

func TestDecodeRevert(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"short", []byte{1, 2}, ""},
		{"unknown selector", []byte{1, 2, 3, 4}, ""},
		{"error string", uomiagenttest.RevertString("result not ready").Data, "result not ready"},
		{"custom without args", uomiagenttest.Revert("MaxAgents").Data, "MaxAgents"},
		{"custom with args", uomiagenttest.Revert("ERC721NonexistentToken", big.NewInt(42)).Data, "ERC721NonexistentToken(tokenId=42)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uomiagent.DecodeRevert(tt.data))
		})
	}
}
