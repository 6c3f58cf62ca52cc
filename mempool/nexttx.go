// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// outPointComparator orders outpoints lexicographically by transaction hash
// first, then by output index — the ordering pruneSpent relies on to seek
// directly to the first outpoint of a given transaction.
func outPointComparator(a, b interface{}) int {
	oa := a.(wire.OutPoint)
	ob := b.(wire.OutPoint)
	if c := bytes.Compare(oa.Hash[:], ob.Hash[:]); c != 0 {
		return c
	}
	switch {
	case oa.Index < ob.Index:
		return -1
	case oa.Index > ob.Index:
		return 1
	default:
		return 0
	}
}

var _ utils.Comparator = outPointComparator

// nextTxIndex is the ordered outpoint -> InPoint index described by
// spec.md's next_tx: for every input of every pooled transaction, maps the
// outpoint it spends to the (TxId, input index) that spends it. It is kept
// in a red-black tree rather than a plain map so pruneSpent can run a
// lower-bound seek: "every outpoint whose hash equals this txid" is a
// contiguous range once outpoints are sorted by (hash, index).
type nextTxIndex struct {
	tree *redblacktree.Tree
}

func newNextTxIndex() *nextTxIndex {
	return &nextTxIndex{tree: redblacktree.NewWith(outPointComparator)}
}

func (idx *nextTxIndex) put(op wire.OutPoint, in InPoint) {
	idx.tree.Put(op, in)
}

func (idx *nextTxIndex) remove(op wire.OutPoint) {
	idx.tree.Remove(op)
}

func (idx *nextTxIndex) get(op wire.OutPoint) (InPoint, bool) {
	v, found := idx.tree.Get(op)
	if !found {
		return InPoint{}, false
	}
	return v.(InPoint), true
}

func (idx *nextTxIndex) size() int {
	return idx.tree.Size()
}

func (idx *nextTxIndex) clear() {
	idx.tree.Clear()
}

// each calls fn for every (outpoint, InPoint) pair in ascending outpoint
// order.
func (idx *nextTxIndex) each(fn func(op wire.OutPoint, in InPoint)) {
	it := idx.tree.Iterator()
	for it.Next() {
		fn(it.Key().(wire.OutPoint), it.Value().(InPoint))
	}
}

// seekHash calls fn, in ascending order, for every InPoint recorded for an
// outpoint whose transaction hash equals txid. It is the direct analogue of
// the original implementation's lower_bound(COutPoint(hashTx, 0)) scan: walk
// forward from the first outpoint of txid until the hash changes.
func (idx *nextTxIndex) seekHash(txid chainhash.Hash, fn func(outputIndex uint32, in InPoint)) {
	node, found := idx.tree.Ceiling(wire.OutPoint{Hash: txid, Index: 0})
	if !found && node == nil {
		return
	}
	for node != nil {
		op := node.Key.(wire.OutPoint)
		if op.Hash != txid {
			return
		}
		fn(op.Index, node.Value.(InPoint))
		node = successor(node)
	}
}

// successor returns the next node in ascending key order after n, or nil if
// n is the last node in the tree. redblacktree.Node keeps parent/child
// pointers for rotation purposes; the classic BST in-order successor walk
// is exactly what a lower_bound-style forward scan needs.
func successor(n *redblacktree.Node) *redblacktree.Node {
	if n.Right != nil {
		n = n.Right
		for n.Left != nil {
			n = n.Left
		}
		return n
	}
	p := n.Parent
	for p != nil && n == p.Right {
		n = p
		p = p.Parent
	}
	return p
}
