// Copyright (c) 2013 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "mempoolnode.conf"
	defaultLogLevel       = "info"
	defaultLogFilename    = "mempoolnode.log"
	defaultSnapshotName   = "mempool.dat"
)

var (
	defaultHomeDir    = mempoolNodeHomeDir()
	defaultDataDir    = filepath.Join(defaultHomeDir, "data")
	defaultLogDir     = filepath.Join(defaultHomeDir, "logs")
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
)

// config defines the configuration options for mempoolnode.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store the mempool snapshot"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	SanityCheck bool   `long:"sanitycheck" description:"Run full mempool consistency checks after every mutation -- expensive, for development use only"`
	NoLockMem   bool   `long:"nolockmem" description:"Do not pin memory used for demonstration sensitive buffers -- this node has nothing real to protect, it only exercises the locker"`
}

// mempoolNodeHomeDir returns an OS appropriate home directory for
// mempoolnode's on-disk state.
func mempoolNodeHomeDir() string {
	appData := os.Getenv("APPDATA")
	if appData != "" {
		return filepath.Join(appData, "mempoolnode")
	}
	home := os.Getenv("HOME")
	if home != "" {
		return filepath.Join(home, ".mempoolnode")
	}
	return "."
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}

// snapshotPath returns the full path to the mempool snapshot file under the
// configured data directory.
func (c *config) snapshotPath() string {
	return filepath.Join(c.DataDir, defaultSnapshotName)
}

// loadConfig reads flags (and, if present, the config file they point at)
// into a config with every default already applied, following the same
// flags-then-validate shape used throughout this codebase's other command
// entry points.
func loadConfig() (*config, []string, error) {
	cfg := config{
		ConfigFile: defaultConfigFile,
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
	}

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if preCfg.ConfigFile != defaultConfigFile {
		cfg.ConfigFile = preCfg.ConfigFile
	}

	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		if err := flags.NewIniParser(flags.NewParser(&cfg, flags.Default)).ParseFile(cfg.ConfigFile); err != nil {
			return nil, nil, fmt.Errorf("mempoolnode: parse config file: %w", err)
		}
	}

	parser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if !validLogLevel(cfg.DebugLevel) {
		return nil, nil, fmt.Errorf("mempoolnode: invalid debuglevel %q", cfg.DebugLevel)
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("mempoolnode: create data dir: %w", err)
	}

	return &cfg, remainingArgs, nil
}
