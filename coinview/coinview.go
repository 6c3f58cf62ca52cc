// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package coinview composes the confirmed-chain UTXO set with the pooled
// mempool transactions into a single view: "is this outpoint currently
// spendable, treating every pooled transaction as if it had already been
// mined." It never mutates either collaborator — a query against it reads
// through to whichever side actually has the answer.
package coinview

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/nodecore/txpool/mempool"
)

// Coins is the sparse per-transaction unspentness record the view hands
// back from GetCoins: one spent bit per output, plus the height the
// transaction is treated as having confirmed at. It mirrors the confirmed
// chain's own UtxoEntry shape so a caller can treat a synthetic
// mempool-backed Coins exactly like a real one.
type Coins struct {
	tx          *btcutil.Tx
	blockHeight int32
	spent       []bool
}

// newCoins builds a Coins record for tx, entirely unspent, as of height.
func newCoins(tx *btcutil.Tx, height int32) *Coins {
	return &Coins{
		tx:          tx,
		blockHeight: height,
		spent:       make([]bool, len(tx.MsgTx().TxOut)),
	}
}

// Tx returns the transaction this record describes.
func (c *Coins) Tx() *btcutil.Tx { return c.tx }

// BlockHeight returns the height the transaction is treated as confirmed
// at. For a record synthesized from the mempool this is
// mempool.MempoolHeight, the same sentinel DefaultEntry uses for an
// unconfirmed entry.
func (c *Coins) BlockHeight() int32 { return c.blockHeight }

// IsSpent reports whether output outputIndex has already been claimed by
// some other transaction this view knows about. An out-of-range index
// counts as spent, matching the confirmed chain's own convention for a
// pruned or nonexistent output.
func (c *Coins) IsSpent(outputIndex uint32) bool {
	if outputIndex >= uint32(len(c.spent)) {
		return true
	}
	return c.spent[outputIndex]
}

// Spend marks outputIndex as claimed. It satisfies mempool.SpendableCoins
// so PruneSpent can drive it directly.
func (c *Coins) Spend(outputIndex uint32) {
	if outputIndex < uint32(len(c.spent)) {
		c.spent[outputIndex] = true
	}
}

// BaseCoinView is the confirmed-chain half of the overlay: whatever backs
// it — a full on-disk UTXO set, a cache layered over one — only needs to
// answer these two questions about the chain as of its last connected
// block.
type BaseCoinView interface {
	// GetCoins returns the unspentness record for txid as known to the
	// confirmed chain, or ok=false if the chain has no record of txid at
	// all (never mined, or fully spent and pruned).
	GetCoins(txid chainhash.Hash) (*Coins, bool)

	// HaveCoins reports whether the confirmed chain has any record of
	// txid, spent or not. It exists separately from GetCoins because a
	// caller that only needs existence shouldn't have to pay for building
	// the full record.
	HaveCoins(txid chainhash.Hash) bool
}

// MempoolSource is the narrow slice of *mempool.TxPool the view needs.
// Declaring it as an interface rather than depending on the concrete type
// directly keeps this package testable without a real pool.
type MempoolSource interface {
	Lookup(txid chainhash.Hash) (*btcutil.Tx, bool)
	Exists(txid chainhash.Hash) bool
}

var _ MempoolSource = (*mempool.TxPool)(nil)

// View answers coin-availability queries by checking the mempool first and
// falling back to the confirmed chain. A transaction that is only pooled,
// never mined, is reported as fully unspent at mempool.MempoolHeight — the
// same sentinel height used for entries inside the pool itself. The view
// does not mark an output spent when another pooled transaction consumes
// it; only a Spend call on the returned Coins (for example from
// TxPool.PruneSpent) does.
type View struct {
	base    BaseCoinView
	pool    MempoolSource
	overlay map[chainhash.Hash]*Coins
}

// New returns a View layering pool over base. Per-call output-spent state
// built while answering HasUnspentOutput/GetCoins for pooled transactions
// is cached in the overlay so repeated queries against the same pooled
// transaction don't rebuild its Coins record from scratch.
func New(base BaseCoinView, pool MempoolSource) *View {
	return &View{
		base:    base,
		pool:    pool,
		overlay: make(map[chainhash.Hash]*Coins),
	}
}

// GetCoins returns the unspentness record for txid, checking the mempool
// before the base layer. This intentionally tracks
// CCoinsViewMemPool::GetCoins in the original implementation, which also
// checks the mempool first: the base view may hold a stale, already-spent
// record for a transaction the mempool has since pruned, and the mempool's
// copy is always the one current as of "pending block inclusion."
func (v *View) GetCoins(txid chainhash.Hash) (*Coins, bool) {
	if c, ok := v.overlay[txid]; ok {
		return c, true
	}
	if tx, ok := v.pool.Lookup(txid); ok {
		c := newCoins(tx, mempool.MempoolHeight)
		v.overlay[txid] = c
		return c, true
	}
	return v.base.GetCoins(txid)
}

// HaveCoins reports whether txid is known to either layer.
func (v *View) HaveCoins(txid chainhash.Hash) bool {
	if v.pool.Exists(txid) {
		return true
	}
	return v.base.HaveCoins(txid)
}

// HasUnspentOutput reports whether outpoint op currently names a spendable
// output, checked against the mempool overlay first and the confirmed
// chain second. It satisfies mempool.CoinView, letting the mempool's own
// sanity check run against this composed view instead of the raw confirmed
// chain.
func (v *View) HasUnspentOutput(op wire.OutPoint) bool {
	coins, ok := v.GetCoins(op.Hash)
	if !ok {
		return false
	}
	return !coins.IsSpent(op.Index)
}

var _ mempool.CoinView = (*View)(nil)
