// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
	"github.com/nodecore/txpool/mempool"
)

// logWriter outputs to both standard output and the write-end pipe of an
// initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	logRotator.Write(p)
	return len(p), nil
}

var (
	backendLog = btclog.NewBackend(logWriter{})
	logRotator *rotator.Rotator

	nodeLog = backendLog.Logger("NODE")
	txmpLog = backendLog.Logger("TXMP")
	cvwLog  = backendLog.Logger("CVW ")
)

var subsystemLoggers = map[string]btclog.Logger{
	"NODE": nodeLog,
	"TXMP": txmpLog,
	"CVW":  cvwLog,
}

func init() {
	mempool.UseLogger(txmpLog)
}

// initLogRotator initializes the log rotator to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global loggers are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}
	logRotator = r
}

// setLogLevels sets every subsystem logger in subsystemLoggers to logLevel.
func setLogLevels(logLevel string) {
	level, _ := btclog.LevelFromString(logLevel)
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}
