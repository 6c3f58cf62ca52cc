// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements the in-memory staging store for
// validated-but-unconfirmed transactions. It is deliberately narrower than
// a full relay-policy mempool: there is no fee estimation, no orphan pool,
// no rate limiting and no replacement policy here. The caller validates a
// transaction (scripts, signatures, fees, conflicts) before ever calling
// AddUnchecked; this package's only job is to keep a coherent index of what
// it was handed and the outputs those transactions consume.
package mempool

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// CoinView is the minimal read interface the store needs from the
// confirmed-chain view in order to run its sanity check. The real
// implementation (an on-disk UTXO set, a cache layered over one, ...) is an
// external collaborator; the store never mutates it.
type CoinView interface {
	// HasUnspentOutput reports whether outpoint op names a still-unspent
	// output of the confirmed chain.
	HasUnspentOutput(op wire.OutPoint) bool
}

// TxPool is the transaction memory pool: a coherent index of pooled
// transactions and the outputs they consume, safe for concurrent use by
// multiple validation, relay, and mining-template threads.
//
// A single exclusive mutex guards every field. Operations are short enough
// relative to chain-wide events that the coarseness costs little, and it
// sidesteps an entire class of next_tx/tx_table consistency bugs that a
// finer-grained scheme would have to re-litigate by hand.
type TxPool struct {
	mtx sync.Mutex

	txTable map[chainhash.Hash]*Entry
	nextTx  *nextTxIndex

	updatedCounter uint32

	// sanityCheckEnabled, when set, makes AddUnchecked, Remove and
	// RemoveConflicts run checkLocked (without a coin view, so invariant 3
	// is skipped) afterward. It is off by default: the check is O(N*M) in the
	// pool size and the average input count, which turns every accept
	// into an O(N^2) scan across the whole pool.
	sanityCheckEnabled bool
}

// New returns an empty TxPool.
func New() *TxPool {
	return &TxPool{
		txTable: make(map[chainhash.Hash]*Entry),
		nextTx:  newNextTxIndex(),
	}
}

// SetSanityCheck turns the store's internal consistency check on or off. It
// is meant for tests and debug builds, not production traffic.
func (mp *TxPool) SetSanityCheck(enabled bool) {
	mp.mtx.Lock()
	mp.sanityCheckEnabled = enabled
	mp.mtx.Unlock()
}

// bumpUpdated increments the transactions-updated counter. Callers must
// already hold mp.mtx.
func (mp *TxPool) bumpUpdated() {
	mp.updatedCounter++
}

// TransactionsUpdated returns the current value of the change-detection
// counter. Pollers (a block-template builder, say) compare successive reads
// to notice that the pool's contents moved; the counter itself carries no
// other meaning.
func (mp *TxPool) TransactionsUpdated() uint32 {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return mp.updatedCounter
}

// AddTransactionsUpdated adds n to the transactions-updated counter.
func (mp *TxPool) AddTransactionsUpdated(n uint32) {
	mp.mtx.Lock()
	mp.updatedCounter += n
	mp.mtx.Unlock()
}

// AddUnchecked inserts entry under txid without validating anything about
// it: no signature checks, no double-spend checks, no fee policy. The
// caller is expected to have already performed every check it cares about;
// this call only updates the two indexes. It always succeeds — the bool
// return exists purely so a future enrichment (e.g. a capacity cap) doesn't
// have to change the signature.
func (mp *TxPool) AddUnchecked(txid chainhash.Hash, entry *Entry) bool {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.txTable[txid] = entry
	for i, txIn := range entry.tx.MsgTx().TxIn {
		mp.nextTx.put(txIn.PreviousOutPoint, InPoint{TxId: txid, InputIndex: uint32(i)})
	}
	mp.bumpUpdated()

	if mp.sanityCheckEnabled {
		mp.checkLocked(nil)
	}
	return true
}

// removeLocked removes tx from the pool. If recursive is true it first
// removes every pooled transaction that spends one of tx's outputs,
// transitively. Removed transactions are prepended to *removed in an order
// where every descendant precedes its ancestors — exactly the order a
// caller walking the list would need to "undo" the chain safely.
//
// The walk uses an explicit worklist rather than recursing through
// removeLocked itself: a long enough redeemer chain would otherwise grow
// the Go call stack unboundedly, and a worklist also makes it trivial to
// de-duplicate transactions reachable by more than one path through the
// consumer graph. Callers must already hold mp.mtx.
func (mp *TxPool) removeLocked(tx *btcutil.Tx, removed *[]*btcutil.Tx, recursive bool) {
	txid := *tx.Hash()

	type pending struct {
		id chainhash.Hash
		tx *btcutil.Tx
	}
	visited := map[chainhash.Hash]bool{txid: true}
	order := []pending{{txid, tx}}

	if recursive {
		worklist := []pending{{txid, tx}}
		for len(worklist) > 0 {
			cur := worklist[0]
			worklist = worklist[1:]

			numOut := len(cur.tx.MsgTx().TxOut)
			for i := 0; i < numOut; i++ {
				op := wire.OutPoint{Hash: cur.id, Index: uint32(i)}
				in, ok := mp.nextTx.get(op)
				if !ok {
					continue
				}
				if visited[in.TxId] {
					continue
				}
				entry, ok := mp.txTable[in.TxId]
				if !ok {
					// The InPoint points at a transaction that is
					// no longer in the table; nothing to recurse
					// into, and invariant 1 means this shouldn't
					// happen for a healthy pool.
					continue
				}
				visited[in.TxId] = true
				descendant := pending{in.TxId, entry.tx}
				worklist = append(worklist, descendant)
				order = append(order, descendant)
			}
		}
	}

	// removeOneLocked prepends each eviction to *removed, so evicting
	// ancestors first leaves every descendant ahead of its ancestors in
	// the final slice. BFS discovery order alone is not enough when a
	// descendant is reachable along paths of different lengths, so each
	// pass evicts only the transactions none of whose visited parents are
	// still pooled, and defers the rest to the next pass.
	for len(order) > 0 {
		var deferred []pending
	nextPending:
		for _, p := range order {
			for _, txIn := range p.tx.MsgTx().TxIn {
				parent := txIn.PreviousOutPoint.Hash
				if _, pooled := mp.txTable[parent]; pooled && visited[parent] {
					deferred = append(deferred, p)
					continue nextPending
				}
			}
			mp.removeOneLocked(p.id, p.tx, removed)
		}
		order = deferred
	}
}

// removeOneLocked evicts a single transaction, if present, and prepends it
// to *removed. It never recurses; callers handle the redeemer walk.
func (mp *TxPool) removeOneLocked(txid chainhash.Hash, tx *btcutil.Tx, removed *[]*btcutil.Tx) {
	if _, ok := mp.txTable[txid]; !ok {
		return
	}
	if removed != nil {
		*removed = append([]*btcutil.Tx{tx}, *removed...)
	}
	for _, txIn := range tx.MsgTx().TxIn {
		mp.nextTx.remove(txIn.PreviousOutPoint)
	}
	delete(mp.txTable, txid)
	mp.bumpUpdated()
}

// Remove removes tx from the pool. When recursive is true, every pooled
// transaction that (transitively) spends one of tx's outputs is removed
// first; removed accumulates every evicted transaction with descendants
// ahead of ancestors. If tx itself is not pooled, removing it is a no-op,
// but the recursive descent — if requested — still runs: this is what lets
// RemoveConflicts ask to clear out only tx's mempool descendants without tx
// itself ever having been pooled.
func (mp *TxPool) Remove(tx *btcutil.Tx, removed *[]*btcutil.Tx, recursive bool) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.removeLocked(tx, removed, recursive)

	if mp.sanityCheckEnabled {
		mp.checkLocked(nil)
	}
}

// RemoveConflicts removes, recursively, every pooled transaction that
// spends an input also spent by tx, other than tx itself. It is invoked
// after a block confirms tx: transactions our pool thought still had
// available inputs have just had the rug pulled out from under them.
func (mp *TxPool) RemoveConflicts(tx *btcutil.Tx, removed *[]*btcutil.Tx) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	txid := *tx.Hash()
	for _, txIn := range tx.MsgTx().TxIn {
		in, ok := mp.nextTx.get(txIn.PreviousOutPoint)
		if !ok {
			continue
		}
		if in.TxId == txid {
			continue
		}
		entry, ok := mp.txTable[in.TxId]
		if !ok {
			continue
		}
		mp.removeLocked(entry.tx, removed, true)
	}

	if mp.sanityCheckEnabled {
		mp.checkLocked(nil)
	}
}

// SpendableCoins is the narrow mutation surface PruneSpent needs from a
// confirmed-chain coin record.
type SpendableCoins interface {
	// Spend marks the output at outputIndex as spent.
	Spend(outputIndex uint32)
}

// PruneSpent marks, in coins, every output of txid that is currently
// consumed by some pooled transaction. It is meant to be called with the
// confirmed-chain coin record for a transaction that has just been
// connected, so the in-memory UTXO set stays in sync with what the mempool
// already knows is spent.
func (mp *TxPool) PruneSpent(txid chainhash.Hash, coins SpendableCoins) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.nextTx.seekHash(txid, func(outputIndex uint32, _ InPoint) {
		coins.Spend(outputIndex)
	})
}

// Clear empties the pool. The transactions-updated counter is bumped even
// if the pool was already empty — a caller watching the counter should
// never be able to mistake "I called Clear" for "nothing happened".
func (mp *TxPool) Clear() {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.txTable = make(map[chainhash.Hash]*Entry)
	mp.nextTx.clear()
	mp.bumpUpdated()
}

// QueryHashes returns every TxId currently in the pool. The order is
// unspecified.
func (mp *TxPool) QueryHashes() []chainhash.Hash {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	hashes := make([]chainhash.Hash, 0, len(mp.txTable))
	for txid := range mp.txTable {
		hashes = append(hashes, txid)
	}
	return hashes
}

// Lookup returns the pooled transaction for txid, if any.
func (mp *TxPool) Lookup(txid chainhash.Hash) (*btcutil.Tx, bool) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	entry, ok := mp.txTable[txid]
	if !ok {
		return nil, false
	}
	return entry.tx, true
}

// LookupEntry returns the full Entry stored for txid, if any.
func (mp *TxPool) LookupEntry(txid chainhash.Hash) (*Entry, bool) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	entry, ok := mp.txTable[txid]
	return entry, ok
}

// Exists reports whether txid is currently pooled.
func (mp *TxPool) Exists(txid chainhash.Hash) bool {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	_, ok := mp.txTable[txid]
	return ok
}

// Count returns the number of transactions currently pooled.
func (mp *TxPool) Count() int {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	return len(mp.txTable)
}

// checkLocked runs the full cross-index consistency check described in
// spec §4.4/§8. It must only be reached with mp.mtx already held, and it
// panics at the first violation it finds — sanity-check mode exists to
// catch programmer error during development, not to recover from it.
//
// coinView may be nil, in which case only the next_tx <-> tx_table
// invariants (1 and 2) are checked; invariant 3, which needs the confirmed
// chain's view of availability, is skipped.
func (mp *TxPool) checkLocked(coinView CoinView) {
	log.Debugf("Checking mempool with %d transactions and %d inputs",
		len(mp.txTable), mp.nextTx.size())

	for txid, entry := range mp.txTable {
		for i, txIn := range entry.tx.MsgTx().TxIn {
			prevout := txIn.PreviousOutPoint

			if parent, ok := mp.txTable[prevout.Hash]; ok {
				outs := parent.tx.MsgTx().TxOut
				if prevout.Index >= uint32(len(outs)) {
					panic(fmt.Sprintf("mempool check: %v input %d references "+
						"out-of-range output %d of in-pool parent %v",
						txid, i, prevout.Index, prevout.Hash))
				}
			} else if coinView != nil {
				if !coinView.HasUnspentOutput(prevout) {
					panic(fmt.Sprintf("mempool check: %v input %d references "+
						"unavailable output %v", txid, i, prevout))
				}
			}

			in, ok := mp.nextTx.get(prevout)
			if !ok {
				panic(fmt.Sprintf("mempool check: %v input %d (%v) missing from next_tx",
					txid, i, prevout))
			}
			if in.TxId != txid || in.InputIndex != uint32(i) {
				panic(fmt.Sprintf("mempool check: next_tx[%v] = %v, want (%v, %d)",
					prevout, in, txid, i))
			}
		}
	}

	mp.nextTx.each(func(op wire.OutPoint, in InPoint) {
		entry, ok := mp.txTable[in.TxId]
		if !ok {
			panic(fmt.Sprintf("mempool check: next_tx[%v] references unpooled tx %v",
				op, in.TxId))
		}
		ins := entry.tx.MsgTx().TxIn
		if in.InputIndex >= uint32(len(ins)) {
			panic(fmt.Sprintf("mempool check: next_tx[%v] input index %d out of range for %v",
				op, in.InputIndex, in.TxId))
		}
		if ins[in.InputIndex].PreviousOutPoint != op {
			panic(fmt.Sprintf("mempool check: next_tx[%v] but tx %v input %d spends %v",
				op, in.TxId, in.InputIndex, ins[in.InputIndex].PreviousOutPoint))
		}
	})
}

// Check runs the full cross-index consistency check if sanity-check mode is
// enabled; it is a no-op otherwise. coinView supplies the confirmed-chain
// availability answers needed for invariant 3 and may be nil to skip that
// half of the check.
func (mp *TxPool) Check(coinView CoinView) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	if !mp.sanityCheckEnabled {
		return
	}
	mp.checkLocked(coinView)
}
