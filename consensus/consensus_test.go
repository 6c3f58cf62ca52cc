// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package consensus

import "testing"

func TestMaxBlockSizeForkGate(t *testing.T) {
	tests := []struct {
		name string
		ts   uint64
		want uint32
	}{
		{"just before fork", TwentyMegForkTime - 1, 1000 * 1000},
		{"at fork", TwentyMegForkTime, 20 * 1000 * 1000},
		{"well after fork", TwentyMegForkTime + 1000, 20 * 1000 * 1000},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := MaxBlockSize(test.ts)
			if got != test.want {
				t.Errorf("MaxBlockSize(%d) = %d, want %d", test.ts, got, test.want)
			}
		})
	}
}

func TestMaxBlockSigOpsAtFork(t *testing.T) {
	got := MaxBlockSigOps(TwentyMegForkTime)
	want := uint32(400000)
	if got != want {
		t.Errorf("MaxBlockSigOps(fork) = %d, want %d", got, want)
	}
}

func TestBlockSizeBoundaryValidity(t *testing.T) {
	// A block with size exactly at the limit is valid; one byte over is not.
	beforeFork := TwentyMegForkTime - 1
	if MaxBlockSize(beforeFork) != 1000*1000 {
		t.Fatalf("unexpected pre-fork limit")
	}
	if size := uint32(1000001); size <= MaxBlockSize(beforeFork) {
		t.Errorf("1000001 should exceed the pre-fork limit")
	}

	atFork := TwentyMegForkTime
	if size := uint32(20000000); size > MaxBlockSize(atFork) {
		t.Errorf("20000000 should be within the post-fork limit")
	}
	if size := uint32(20000001); size <= MaxBlockSize(atFork) {
		t.Errorf("20000001 should exceed the post-fork limit")
	}
}

func TestIsLockTimeBlockHeight(t *testing.T) {
	if !IsLockTimeBlockHeight(LockTimeThreshold - 1) {
		t.Errorf("expected value below threshold to be a block height")
	}
	if IsLockTimeBlockHeight(LockTimeThreshold) {
		t.Errorf("expected value at threshold to be a timestamp")
	}
}
