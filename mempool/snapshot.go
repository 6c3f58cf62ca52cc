// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// SnapshotFilename is the default name of the on-disk mempool snapshot
// within the node's data directory.
const SnapshotFilename = "mempool.dat"

// versionRequiredToRead is written into every snapshot this package
// produces and is also the ceiling this package enforces on read: a
// snapshot whose required-version exceeds it came from a newer, possibly
// incompatible build and is rejected rather than partially consumed.
const versionRequiredToRead = 1

// versionThatWrote records the writer's own version for diagnostic value
// only; readers do not gate on it.
const versionThatWrote = 1

// Write serializes every entry currently in the pool to path in topological
// order — for every entry e, if e's transaction spends an output of another
// pooled transaction p, p appears earlier in the file than e. A reader that
// replays the file front-to-back through AddUnchecked therefore never sees
// an input reference a not-yet-added mempool transaction.
//
// Snapshot persistence is an optimization, not a durability guarantee: a
// write failure is reported to the caller to log, not retried or escalated.
func (mp *TxPool) Write(path string) error {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mempool: open snapshot for write: %w", err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)

	if err := binary.Write(buf, binary.LittleEndian, uint32(versionRequiredToRead)); err != nil {
		return fmt.Errorf("mempool: write snapshot header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(versionThatWrote)); err != nil {
		return fmt.Errorf("mempool: write snapshot header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(mp.txTable))); err != nil {
		return fmt.Errorf("mempool: write snapshot count: %w", err)
	}

	alreadyWritten := make(map[chainhash.Hash]bool, len(mp.txTable))
	for txid := range mp.txTable {
		if err := mp.writeEntry(buf, txid, alreadyWritten); err != nil {
			return fmt.Errorf("mempool: write snapshot entry: %w", err)
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("mempool: flush snapshot: %w", err)
	}
	return nil
}

// writeEntry writes the entry for txid, first recursively writing every
// input's parent that is itself pooled. alreadyWritten is a per-Write
// visited-set: it both avoids writing an entry twice and bounds recursion
// depth if the pool were ever, contrary to the invariants, to contain a
// cycle. A healthy pool cannot contain one — double-spends are rejected
// before AddUnchecked — so the guard only exists to keep a corrupted pool
// from hanging the writer.
func (mp *TxPool) writeEntry(w io.Writer, txid chainhash.Hash, alreadyWritten map[chainhash.Hash]bool) error {
	if alreadyWritten[txid] {
		return nil
	}
	alreadyWritten[txid] = true

	entry, ok := mp.txTable[txid]
	if !ok {
		return nil
	}

	for _, txIn := range entry.tx.MsgTx().TxIn {
		parent := txIn.PreviousOutPoint.Hash
		if _, ok := mp.txTable[parent]; ok {
			if err := mp.writeEntry(w, parent, alreadyWritten); err != nil {
				return err
			}
		}
	}

	if err := entry.tx.MsgTx().Serialize(w); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, entry.fee); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, entry.time); err != nil {
		return err
	}
	priority := entry.Priority(entry.entryHeight)
	if err := binary.Write(w, binary.LittleEndian, math.Float64bits(priority)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(entry.entryHeight)); err != nil {
		return err
	}
	return nil
}

// Read loads the snapshot at path and returns the entries it contains, in
// the file's own (topological) order. It does not insert them into the
// pool: the caller re-submits each one through its normal acceptance path
// so fee policy, conflict checks and everything else this package
// deliberately skips get applied exactly once, by the code that owns those
// policies.
//
// A missing file is not an error: it returns a nil slice and a nil error,
// exactly the state a brand-new node starts in anyway. A snapshot whose
// required version exceeds versionRequiredToRead, or that fails to parse,
// is logged by the caller and discarded — Read itself just reports the
// error.
//
// Per the documented snapshot asymmetry, every restored Entry's Fee is
// zero regardless of what was written: the caller is expected to
// re-validate and recompute the fee during re-acceptance, so carrying the
// stale value forward would only invite it to be trusted by mistake.
func Read(path string) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mempool: open snapshot: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var requiredVersion, wroteVersion uint32
	if err := binary.Read(r, binary.LittleEndian, &requiredVersion); err != nil {
		return nil, fmt.Errorf("mempool: read snapshot header: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &wroteVersion); err != nil {
		return nil, fmt.Errorf("mempool: read snapshot header: %w", err)
	}
	if requiredVersion > versionRequiredToRead {
		return nil, fmt.Errorf("mempool: snapshot requires version %d, have %d",
			requiredVersion, versionRequiredToRead)
	}

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("mempool: read snapshot count: %w", err)
	}

	entries := make([]*Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		entry, err := readEntry(r)
		if err != nil {
			return nil, fmt.Errorf("mempool: read snapshot entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func readEntry(r io.Reader) (*Entry, error) {
	msgTx := new(wire.MsgTx)
	if err := msgTx.Deserialize(r); err != nil {
		return nil, err
	}

	var fee, t int64
	var priorityBits uint64
	var height uint32
	if err := binary.Read(r, binary.LittleEndian, &fee); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &t); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &priorityBits); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &height); err != nil {
		return nil, err
	}

	priority := math.Float64frombits(priorityBits)
	tx := btcutil.NewTx(msgTx)

	// The reader intentionally discards the written fee: the caller
	// re-derives it (and everything else AddUnchecked skips) when it
	// re-submits the entry through the normal acceptance path.
	return NewEntry(tx, 0, t, priority, int32(height)), nil
}
