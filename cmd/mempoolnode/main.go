// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/nodecore/txpool/coinview"
	"github.com/nodecore/txpool/lockedmem"
	"github.com/nodecore/txpool/mempool"
)

// emptyChainView stands in for a real on-disk UTXO set. mempoolnode never
// connects to a network and never sees a confirmed block, so there is
// nothing for it to know about; it exists only so coinview.View has a base
// layer to fall through to.
type emptyChainView struct{}

func (emptyChainView) GetCoins(chainhash.Hash) (*coinview.Coins, bool) { return nil, false }
func (emptyChainView) HaveCoins(chainhash.Hash) bool                   { return false }

func mempoolNodeMain() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	setLogLevels(cfg.DebugLevel)
	nodeLog.Infof("mempoolnode starting, data dir %s", cfg.DataDir)

	// Pin a small scratch buffer for the lifetime of the process. A real
	// node would use this for key material; this demo has none, so it
	// just exercises the locker against a zeroed 64-byte buffer instead.
	var sentinel lockedmem.Region
	if !cfg.NoLockMem {
		region, err := lockedmem.Lock(make([]byte, 64))
		if err != nil {
			nodeLog.Warnf("failed to lock sentinel memory: %v", err)
		} else {
			sentinel = *region
		}
	}
	defer func() {
		if sentinel.Bytes() != nil {
			lockedmem.Unlock(&sentinel)
		}
	}()

	pool := mempool.New()
	pool.SetSanityCheck(cfg.SanityCheck)

	snapshotPath := cfg.snapshotPath()
	restored, err := mempool.Read(snapshotPath)
	if err != nil {
		nodeLog.Warnf("failed to read snapshot %s: %v", snapshotPath, err)
	}
	for _, entry := range restored {
		pool.AddUnchecked(*entry.Tx().Hash(), entry)
	}
	nodeLog.Infof("restored %d transactions from %s", len(restored), snapshotPath)

	view := coinview.New(emptyChainView{}, pool)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	statusTicker := time.NewTicker(30 * time.Second)
	defer statusTicker.Stop()

	nodeLog.Info("mempoolnode started")
	for {
		select {
		case <-statusTicker.C:
			stats := lockedmem.ManagerStats()
			nodeLog.Infof("pool: %d transactions, updated counter %d, "+
				"locked memory: %d bytes across %d pages",
				pool.Count(), pool.TransactionsUpdated(),
				stats.LockedBytes, stats.LockedPages)
			pool.Check(view)

		case <-interrupt:
			nodeLog.Info("shutdown requested, writing snapshot")
			if err := pool.Write(snapshotPath); err != nil {
				nodeLog.Errorf("failed to write snapshot: %v", err)
			}
			if logRotator != nil {
				logRotator.Close()
			}
			return nil
		}
	}
}

func main() {
	if err := mempoolNodeMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
