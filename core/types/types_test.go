package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/permachain/core/common"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/rlp"
)

func TestHeaderHashStable(t *testing.T) {
	h := &Header{
		Height:     big.NewInt(1),
		ParentHash: common.HexToHash("0xaa"),
		Timestamp:  1337,
		Proposer:   common.HexToAddress("0xbb"),
		Proof:      GenesisProof,
	}
	h1 := h.Hash()
	h2 := h.Hash()
	require.Equal(t, h1, h2, "Hash must be cached and stable across calls")
	require.False(t, h1.IsZero())
}

func TestTransactionSignAndRecover(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	key := crypto.NewKey(priv)

	tx := &Transaction{
		Nonce:           []byte{1},
		To:              nil,
		ValidUntilBlock: 100,
		Quota:           1_000_000,
		ChainID:         big.NewInt(1),
		Version:         VersionV1,
	}
	sender, err := tx.SignWith(key)
	require.NoError(t, err)
	require.Equal(t, key.Address(), sender)

	got, err := tx.Sender()
	require.NoError(t, err)
	require.Equal(t, sender, got)
	require.Equal(t, ActionCreate, tx.Action())
}

func TestTransactionRoundTrip(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	key := crypto.NewKey(priv)

	to := common.HexToAddress("0xcc")
	tx := &Transaction{
		Nonce:           []byte{9, 9},
		To:              &to,
		Data:            []byte("hello"),
		ValidUntilBlock: 50,
		Quota:           21000,
		ChainID:         big.NewInt(42),
		Version:         VersionV1,
	}
	_, err = tx.SignWith(key)
	require.NoError(t, err)

	b, err := tx.SignedBytes()
	require.NoError(t, err)

	var out Transaction
	require.NoError(t, rlp.DecodeBytes(b, &out))
	require.Equal(t, tx.Quota, out.Quota)
	require.Equal(t, tx.ValidUntilBlock, out.ValidUntilBlock)
	require.Equal(t, *tx.To, *out.To)
	gotSender, err := out.Sender()
	require.NoError(t, err)
	require.Equal(t, key.Address(), gotSender)
}

func TestCommitteeProposerRoundRobin(t *testing.T) {
	c := Committee{
		common.HexToAddress("0x01"),
		common.HexToAddress("0x02"),
		common.HexToAddress("0x03"),
		common.HexToAddress("0x04"),
	}
	require.Equal(t, 3, c.Quorum())
	require.Equal(t, c[0], c.Proposer(0, 0))
	require.Equal(t, c[1], c.Proposer(0, 1))
	require.Equal(t, c[1], c.Proposer(1, 0))
	require.Equal(t, c[0], c.Proposer(4, 0))
}

func TestMerkleRootEmptyIsEmptyRoot(t *testing.T) {
	require.Equal(t, EmptyRoot, MerkleRoot(nil))
}

func TestBloomAddTest(t *testing.T) {
	var b Bloom
	b.Add([]byte("topic-a"))
	require.True(t, b.Test([]byte("topic-a")))
	require.False(t, b.Test([]byte("topic-never-added")))
}
