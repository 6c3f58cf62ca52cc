// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func dummyTx(outputValues ...int64) *btcutil.Tx {
	msgTx := wire.NewMsgTx(wire.TxVersion)
	msgTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	for _, v := range outputValues {
		msgTx.AddTxOut(&wire.TxOut{Value: v, PkScript: []byte{0x51}})
	}
	return btcutil.NewTx(msgTx)
}

func TestDefaultEntry(t *testing.T) {
	e := DefaultEntry()
	require.Equal(t, int32(MempoolHeight), e.EntryHeight())
	require.Zero(t, e.Fee())
	require.Zero(t, e.Time())
	require.Zero(t, e.EntryPriority())
}

func TestNewEntryCachesSize(t *testing.T) {
	tx := dummyTx(5000)
	e := NewEntry(tx, 100, 1000, 0, 10)
	require.Equal(t, tx.MsgTx().SerializeSize(), e.TxSize())
	require.Equal(t, tx, e.Tx())
}

func TestPriorityGrowsWithHeight(t *testing.T) {
	tx := dummyTx(10000)
	e := NewEntry(tx, 0, 1000, 5.0, 100)

	atEntry := e.Priority(100)
	require.Equal(t, 5.0, atEntry)

	later := e.Priority(200)
	require.Greater(t, later, atEntry)

	// EntryPriority never changes regardless of how many times Priority
	// is queried at different heights.
	require.Equal(t, 5.0, e.EntryPriority())
}
