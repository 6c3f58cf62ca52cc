// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package consensus holds the handful of network-boundary constants and
// pure functions that gate which blocks and transactions are valid
// regardless of any particular chain tip.  Nothing here touches state; every
// value is a function of its arguments alone, so the package has no
// dependencies beyond the standard library.
package consensus

// TwentyMegForkTime is the block timestamp (UTC, Unix seconds) at which the
// maximum block size steps up from 1MB to 20MB. 1456790400 is 1 March 2016
// 00:00:00 UTC.
const TwentyMegForkTime uint64 = 1456790400

const (
	// MaxTransactionSize is the maximum allowed size for a serialized
	// transaction, in bytes.
	MaxTransactionSize = 1000 * 1000

	// CoinbaseMaturity is the number of confirmations a coinbase output
	// must accumulate before it becomes spendable.
	CoinbaseMaturity = 100

	// LockTimeThreshold is the cutover value for a transaction's
	// LockTime field: values below it are interpreted as a block height,
	// values at or above it are interpreted as a Unix timestamp.
	LockTimeThreshold = 500000000
)

// MaxBlockSize returns the maximum allowed size, in bytes, for a serialized
// block whose header carries the given timestamp. Blocks are capped at 1MB
// until the 1 March 2016 fork, and at 20MB after.
func MaxBlockSize(blockTimestamp uint64) uint32 {
	if blockTimestamp < TwentyMegForkTime {
		return 1000 * 1000
	}
	return 20 * 1000 * 1000
}

// MaxBlockSigOps returns the maximum allowed cumulative signature-operation
// count for a block with the given timestamp. It tracks MaxBlockSize at a
// fixed 1/50 ratio, as it always has on this network.
func MaxBlockSigOps(blockTimestamp uint64) uint32 {
	return MaxBlockSize(blockTimestamp) / 50
}

// IsLockTimeBlockHeight reports whether the given nLockTime value is to be
// interpreted as a block height rather than a Unix timestamp.
func IsLockTimeBlockHeight(lockTime uint32) bool {
	return lockTime < LockTimeThreshold
}
