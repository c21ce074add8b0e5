package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/emberchain/emberd/logger"
	"github.com/emberchain/emberd/version"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultLogFilename    = "blocktool.log"
	defaultErrLogFilename = "blocktool_err.log"
	defaultLogLevel       = "info"
)

var (
	// Default configuration options
	defaultHomeDir    = btcutil.AppDataDir("blocktool", false)
	defaultLogFile    = filepath.Join(defaultHomeDir, defaultLogFilename)
	defaultErrLogFile = filepath.Join(defaultHomeDir, defaultErrLogFilename)
)

type configFlags struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	Block       string `short:"b" long:"block" description:"Hex-encoded serialized block to decode and summarize"`
	Store       bool   `long:"store" description:"Store the decoded block in the block database and advance the tip to it"`
	Fetch       string `short:"f" long:"fetch" description:"Hash of a block to fetch from the block database and summarize"`
	ShowTip     bool   `long:"tip" description:"Print the hash of the current database tip"`
	DataDir     string `short:"d" long:"datadir" description:"Directory containing the block database"`
	LogLevel    string `short:"l" long:"loglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	NoSanity    bool   `long:"nosanity" description:"Skip the structural sanity checks on decoded blocks"`
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{
		DataDir:  defaultHomeDir,
		LogLevel: defaultLogLevel,
	}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	if err != nil {
		return nil, err
	}

	if cfg.Block == "" && cfg.Fetch == "" && !cfg.ShowTip {
		return nil, errors.New("nothing to do: provide --block, --fetch or --tip")
	}
	if cfg.Store && cfg.Block == "" {
		return nil, errors.New("--store requires --block")
	}

	initLog(defaultLogFile, defaultErrLogFile)
	err = logger.SetLogLevels(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
