// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// InPoint names the mempool transaction, and which of its inputs, that
// consumes a given outpoint. Unlike the original implementation this holds
// reference to the owning transaction by TxId rather than by pointer: the
// entry is re-resolved through the store's tx table on every dereference,
// which costs a map lookup but means an InPoint can never dangle once its
// owner is removed.
type InPoint struct {
	TxId       chainhash.Hash
	InputIndex uint32
}
