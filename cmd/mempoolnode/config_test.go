// Copyright (c) 2013 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidLogLevel(t *testing.T) {
	require.True(t, validLogLevel("debug"))
	require.True(t, validLogLevel("critical"))
	require.False(t, validLogLevel("verbose"))
	require.False(t, validLogLevel(""))
}

func TestSnapshotPathJoinsDataDir(t *testing.T) {
	cfg := config{DataDir: "/tmp/mempoolnode-test"}
	require.Equal(t, "/tmp/mempoolnode-test/mempool.dat", cfg.snapshotPath())
}
