// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestReadMissingFileIsNotAnError covers the documented contract: a brand
// new node with no prior snapshot gets (nil, nil), not an error.
func TestReadMissingFileIsNotAnError(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), "does-not-exist.dat"))
	require.NoError(t, err)
	require.Nil(t, entries)
}

// TestWriteReadRoundTrip covers that every entry written survives a
// Write/Read cycle with its transaction, fee-independent metadata, and
// height intact.
func TestWriteReadRoundTrip(t *testing.T) {
	mp := New()
	root := dummyTx(5000, 5000)
	child := spendTx(root, 0, 1)
	mp.AddUnchecked(*root.Hash(), NewEntry(root, 100, 1000, 1.5, 10))
	mp.AddUnchecked(*child.Hash(), NewEntry(child, 200, 2000, 2.5, 11))

	path := filepath.Join(t.TempDir(), SnapshotFilename)
	require.NoError(t, mp.Write(path))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byTxid := make(map[string]*Entry)
	for _, e := range entries {
		byTxid[e.Tx().Hash().String()] = e
	}

	rootEntry, ok := byTxid[root.Hash().String()]
	require.True(t, ok)
	require.Equal(t, int32(10), rootEntry.EntryHeight())
	// Per the documented snapshot asymmetry, fee is not restored.
	require.Zero(t, rootEntry.Fee())
	require.Equal(t, int64(1000), rootEntry.Time())

	childEntry, ok := byTxid[child.Hash().String()]
	require.True(t, ok)
	require.Equal(t, int32(11), childEntry.EntryHeight())
}

// TestWriteOrdersParentsBeforeChildren covers the file-level ordering
// guarantee: a consumer replaying entries front-to-back through
// AddUnchecked never sees an input reference a not-yet-added transaction.
func TestWriteOrdersParentsBeforeChildren(t *testing.T) {
	mp := New()
	root := dummyTx(5000)
	child := spendTx(root, 0, 1)
	grandchild := spendTx(child, 0, 1)

	// Insert in reverse dependency order to make sure Write's own
	// traversal, not map iteration luck, is what produces the ordering.
	mp.AddUnchecked(*grandchild.Hash(), NewEntry(grandchild, 0, 0, 0, 1))
	mp.AddUnchecked(*child.Hash(), NewEntry(child, 0, 0, 0, 1))
	mp.AddUnchecked(*root.Hash(), NewEntry(root, 0, 0, 0, 1))

	path := filepath.Join(t.TempDir(), SnapshotFilename)
	require.NoError(t, mp.Write(path))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	position := make(map[string]int)
	for i, e := range entries {
		position[e.Tx().Hash().String()] = i
	}
	require.Less(t, position[root.Hash().String()], position[child.Hash().String()])
	require.Less(t, position[child.Hash().String()], position[grandchild.Hash().String()])
}

// TestReadRejectsFutureVersion covers that a snapshot whose required-version
// field exceeds what this package knows how to read is rejected outright
// rather than partially parsed.
func TestReadRejectsFutureVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFilename)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, binary.Write(f, binary.LittleEndian, uint32(versionRequiredToRead+1)))
	require.NoError(t, binary.Write(f, binary.LittleEndian, uint32(versionThatWrote)))
	require.NoError(t, binary.Write(f, binary.LittleEndian, uint64(0)))
	require.NoError(t, f.Close())

	_, err = Read(path)
	require.Error(t, err)
}

// TestWriteEmptyPool covers the zero-entry edge case: a freshly-created
// pool still produces a valid, readable snapshot with no entries.
func TestWriteEmptyPool(t *testing.T) {
	mp := New()
	path := filepath.Join(t.TempDir(), SnapshotFilename)
	require.NoError(t, mp.Write(path))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Empty(t, entries)
}
