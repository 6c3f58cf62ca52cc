// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinview

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/nodecore/txpool/mempool"
	"github.com/stretchr/testify/require"
)

type fakeBase struct {
	coins map[chainhash.Hash]*Coins
}

func (f *fakeBase) GetCoins(txid chainhash.Hash) (*Coins, bool) {
	c, ok := f.coins[txid]
	return c, ok
}

func (f *fakeBase) HaveCoins(txid chainhash.Hash) bool {
	_, ok := f.coins[txid]
	return ok
}

func newTx(numOutputs int) *btcutil.Tx {
	msgTx := wire.NewMsgTx(wire.TxVersion)
	msgTx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0}})
	for i := 0; i < numOutputs; i++ {
		msgTx.AddTxOut(&wire.TxOut{Value: 1000, PkScript: []byte{0x51}})
	}
	return btcutil.NewTx(msgTx)
}

// TestViewPrefersMempoolOverBase covers that a transaction pooled but also
// present (e.g. stale) in the base view resolves to the pooled version.
func TestViewPrefersMempoolOverBase(t *testing.T) {
	pool := mempool.New()
	tx := newTx(2)
	pool.AddUnchecked(*tx.Hash(), mempool.NewEntry(tx, 0, 0, 0, 5))

	base := &fakeBase{coins: map[chainhash.Hash]*Coins{
		*tx.Hash(): newCoins(tx, 1),
	}}

	view := New(base, pool)
	coins, ok := view.GetCoins(*tx.Hash())
	require.True(t, ok)
	require.Equal(t, int32(mempool.MempoolHeight), coins.BlockHeight())
}

// TestViewFallsThroughToBase covers that a transaction the mempool has
// never seen resolves entirely from the base layer.
func TestViewFallsThroughToBase(t *testing.T) {
	pool := mempool.New()
	tx := newTx(1)
	base := &fakeBase{coins: map[chainhash.Hash]*Coins{
		*tx.Hash(): newCoins(tx, 42),
	}}

	view := New(base, pool)
	coins, ok := view.GetCoins(*tx.Hash())
	require.True(t, ok)
	require.Equal(t, int32(42), coins.BlockHeight())
	require.True(t, view.HaveCoins(*tx.Hash()))
}

// TestHasUnspentOutputReflectsSpend covers that marking an output spent
// through Coins.Spend is visible through HasUnspentOutput on the same
// cached record.
func TestHasUnspentOutputReflectsSpend(t *testing.T) {
	pool := mempool.New()
	tx := newTx(2)
	pool.AddUnchecked(*tx.Hash(), mempool.NewEntry(tx, 0, 0, 0, 5))

	view := New(&fakeBase{coins: map[chainhash.Hash]*Coins{}}, pool)

	require.True(t, view.HasUnspentOutput(wire.OutPoint{Hash: *tx.Hash(), Index: 0}))

	coins, _ := view.GetCoins(*tx.Hash())
	coins.Spend(0)

	require.False(t, view.HasUnspentOutput(wire.OutPoint{Hash: *tx.Hash(), Index: 0}))
	require.True(t, view.HasUnspentOutput(wire.OutPoint{Hash: *tx.Hash(), Index: 1}))
}

// TestHasUnspentOutputUnknownTx covers the fully-absent case: neither layer
// has heard of the transaction, so HasUnspentOutput reports false for every
// outpoint on it.
func TestHasUnspentOutputUnknownTx(t *testing.T) {
	pool := mempool.New()
	view := New(&fakeBase{coins: map[chainhash.Hash]*Coins{}}, pool)

	var unknown chainhash.Hash
	require.False(t, view.HasUnspentOutput(wire.OutPoint{Hash: unknown, Index: 0}))
}

// TestOutOfRangeIndexIsSpent covers that Coins.IsSpent treats an
// out-of-range output index as spent, not as a panic or a false negative.
func TestOutOfRangeIndexIsSpent(t *testing.T) {
	tx := newTx(1)
	c := newCoins(tx, 1)
	require.True(t, c.IsSpent(5))
}
