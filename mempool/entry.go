// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "github.com/btcsuite/btcd/btcutil"

// MempoolHeight is the sentinel entry height used for a transaction that has
// not yet been confirmed in a block. It doubles as the height reported for
// the synthetic coins the coin-view overlay builds from mempool contents.
const MempoolHeight = 0x7fffffff

// Entry wraps a single transaction together with the metadata recorded for
// it at the moment it entered the pool. Every field is fixed at
// construction; nothing about an Entry changes for as long as it remains in
// the store.
type Entry struct {
	tx            *btcutil.Tx
	fee           int64
	time          int64
	entryPriority float64
	entryHeight   int32
	txSize        int
}

// NewEntry builds an Entry for tx, caching its serialized size at the
// current wire protocol version so Priority never has to reserialize the
// transaction to answer a query.
func NewEntry(tx *btcutil.Tx, fee, time int64, priority float64, height int32) *Entry {
	return &Entry{
		tx:            tx,
		fee:           fee,
		time:          time,
		entryPriority: priority,
		entryHeight:   height,
		txSize:        tx.MsgTx().SerializeSize(),
	}
}

// DefaultEntry returns a placeholder Entry with every field zero except
// EntryHeight, which defaults to MempoolHeight so an otherwise-empty Entry
// reads as "unconfirmed" rather than "genesis". Real entries always go
// through NewEntry; this exists for callers that need a well-formed zero
// value, e.g. a sentinel in a lookup table.
func DefaultEntry() *Entry {
	return &Entry{entryHeight: MempoolHeight}
}

// Tx returns the wrapped transaction.
func (e *Entry) Tx() *btcutil.Tx { return e.tx }

// Fee returns the fee, in base units, paid by the transaction.
func (e *Entry) Fee() int64 { return e.fee }

// Time returns the Unix-seconds arrival time recorded for the entry.
func (e *Entry) Time() int64 { return e.time }

// EntryPriority returns the priority the transaction carried at the moment
// it was added to the pool. Use Priority to get the height-advanced value.
func (e *Entry) EntryPriority() float64 { return e.entryPriority }

// EntryHeight returns the block height in effect when the entry was added.
func (e *Entry) EntryHeight() int32 { return e.entryHeight }

// TxSize returns the transaction's cached serialized size, in bytes, at the
// wire protocol version in effect when the entry was constructed.
func (e *Entry) TxSize() int { return e.txSize }

// Priority computes the entry's priority as of the given height. Coin-age
// accrues linearly with the number of blocks the entry has sat in the pool:
// older coins, and bigger ones, count for more. This value is always
// recomputed on demand — EntryPriority, the value captured at insertion, is
// never overwritten.
func (e *Entry) Priority(currentHeight int32) float64 {
	valueIn := sumOutputs(e.tx) + e.fee
	deltaPriority := float64(currentHeight-e.entryHeight) * float64(valueIn) / float64(e.txSize)
	return e.entryPriority + deltaPriority
}

// sumOutputs totals the value of every output of tx.
func sumOutputs(tx *btcutil.Tx) int64 {
	var total int64
	for _, out := range tx.MsgTx().TxOut {
		total += out.Value
	}
	return total
}
