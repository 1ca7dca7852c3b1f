package infuse

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbonmint/internal/chain/txbuilder"
	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
	"carbonmint/internal/usecase/pipeline"
)

type fakeSigner struct {
	handle domain.SignedTxHandle
	err    error
	calls  int
	signed *txcodec.UnsignedTx
}

func (s *fakeSigner) Sign(_ context.Context, tx *txcodec.UnsignedTx) (domain.SignedTxHandle, error) {
	s.calls++
	s.signed = tx
	return s.handle, s.err
}

type fakeConfirmer struct {
	outcome domain.ConfirmationOutcome
}

func (c *fakeConfirmer) Wait(context.Context, string) domain.ConfirmationOutcome {
	return c.outcome
}

func testAddressText(t *testing.T, seed byte) string {
	t.Helper()
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := range pub {
		pub[i] = seed
	}
	addr, err := txcodec.AddressFromPublicKey(pub)
	require.NoError(t, err)
	return addr.Text()
}

func newService(signer *fakeSigner) *InfuseService {
	builder := txbuilder.New(txbuilder.Config{
		Nexus: "testnet",
		Chain: "main",
		Fees:  txbuilder.FeeConfig{GasPrice: 100000, GasLimitBase: 800, GasLimitPerItem: 200},
	})
	runner := &pipeline.Runner{
		Signer:    signer,
		Confirmer: &fakeConfirmer{outcome: domain.ConfirmationOutcome{Kind: domain.OutcomeSuccess}},
	}
	return NewInfuseService(builder, runner)
}

func TestInfuse_SingleInstance(t *testing.T) {
	signer := &fakeSigner{handle: domain.SignedTxHandle{Hash: "0xinfuse", Success: true}}
	s := newService(signer)

	res := s.Infuse(context.Background(), InfuseInput{
		Sender:    testAddressText(t, 0x01),
		Recipient: testAddressText(t, 0x02),
		Selections: []Selection{
			{TokenID: "CNFT", InstanceID: "11"},
		},
	})

	assert.True(t, res.Success)
	assert.Equal(t, "0xinfuse", res.TxHash)

	ops, err := txcodec.DecodeScript(signer.signed.Script)
	require.NoError(t, err)
	calls := txcodec.Calls(ops)
	require.Len(t, calls, 3)
	assert.Equal(t, "TransferToken", calls[1].Method)
}

func TestInfuse_GroupsInterleavedSelections(t *testing.T) {
	signer := &fakeSigner{handle: domain.SignedTxHandle{Hash: "0xinfuse", Success: true}}
	s := newService(signer)

	// Two distinct tokens, interleaved: the transaction carries one
	// transfer call per token, not one per instance.
	res := s.Infuse(context.Background(), InfuseInput{
		Sender:    testAddressText(t, 0x01),
		Recipient: testAddressText(t, 0x02),
		Selections: []Selection{
			{TokenID: "CNFT", InstanceID: "1"},
			{TokenID: "SOIL", InstanceID: "5"},
			{TokenID: "CNFT", InstanceID: "2"},
		},
	})

	assert.True(t, res.Success)

	ops, err := txcodec.DecodeScript(signer.signed.Script)
	require.NoError(t, err)
	calls := txcodec.Calls(ops)
	require.Len(t, calls, 4)
	assert.Equal(t, "AllowGas", calls[0].Method)
	assert.Equal(t, "TransferTokens", calls[1].Method)
	assert.Equal(t, "TransferTokens", calls[2].Method)
	assert.Equal(t, "SpendGas", calls[3].Method)

	// First-seen token order is preserved across the grouped calls.
	var strs []string
	for _, op := range ops {
		if op.Kind == txcodec.OpKindPush && op.Str != "" {
			strs = append(strs, op.Str)
		}
	}
	assert.Contains(t, strs, "CNFT")
	assert.Contains(t, strs, "SOIL")
}

func TestInfuse_EmptySelection(t *testing.T) {
	signer := &fakeSigner{}
	s := newService(signer)

	res := s.Infuse(context.Background(), InfuseInput{
		Sender:    testAddressText(t, 0x01),
		Recipient: testAddressText(t, 0x02),
	})

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Zero(t, signer.calls)
}

func TestInfuse_BadSenderAddress(t *testing.T) {
	signer := &fakeSigner{}
	s := newService(signer)

	res := s.Infuse(context.Background(), InfuseInput{
		Sender:    "bogus",
		Recipient: testAddressText(t, 0x02),
		Selections: []Selection{
			{TokenID: "CNFT", InstanceID: "1"},
		},
	})

	assert.False(t, res.Success)
	assert.Zero(t, signer.calls)
}

func TestInfuse_MalformedInstanceID(t *testing.T) {
	signer := &fakeSigner{}
	s := newService(signer)

	res := s.Infuse(context.Background(), InfuseInput{
		Sender:    testAddressText(t, 0x01),
		Recipient: testAddressText(t, 0x02),
		Selections: []Selection{
			{TokenID: "CNFT", InstanceID: "1x"},
		},
	})

	assert.False(t, res.Success)
	assert.Zero(t, signer.calls)
}
