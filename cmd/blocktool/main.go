package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/btcsuite/btcutil"
	"github.com/emberchain/emberd/blockchain"
	"github.com/emberchain/emberd/database"
	"github.com/emberchain/emberd/logger"
	"github.com/emberchain/emberd/util"
	"github.com/emberchain/emberd/util/chainhash"
	"github.com/emberchain/emberd/version"
	"github.com/pkg/errors"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}
	defer logger.BackendLog().Close()

	log.Infof("Version %s", version.Version())

	err = run(cfg)
	if err != nil {
		log.Errorf("%+v", err)
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(cfg *configFlags) error {
	var store *database.BlockStore
	if cfg.Store || cfg.Fetch != "" || cfg.ShowTip {
		var err error
		store, err = database.Open(cfg.DataDir)
		if err != nil {
			return errors.Wrap(err, "error opening the block database")
		}
		defer func() {
			err := store.Close()
			if err != nil {
				log.Errorf("Error closing the block database: %s", err)
			}
		}()
	}

	if cfg.Block != "" {
		err := handleBlock(cfg, store)
		if err != nil {
			return err
		}
	}

	if cfg.Fetch != "" {
		hash, err := chainhash.NewHashFromStr(cfg.Fetch)
		if err != nil {
			return errors.Wrap(err, "invalid block hash")
		}
		block, err := store.FetchBlock(hash)
		if err != nil {
			return errors.Wrap(err, "error fetching block")
		}
		summarize(block)
	}

	if cfg.ShowTip {
		tip, err := store.Tip()
		if err != nil {
			return errors.Wrap(err, "error reading the database tip")
		}
		fmt.Printf("tip: %s\n", tip)
	}

	return nil
}

func handleBlock(cfg *configFlags, store *database.BlockStore) error {
	blockBytes, err := hex.DecodeString(cfg.Block)
	if err != nil {
		return errors.Wrap(err, "--block is not valid hex")
	}
	block, err := util.NewBlockFromBytes(blockBytes)
	if err != nil {
		return errors.Wrap(err, "error decoding block")
	}

	if !cfg.NoSanity {
		err = blockchain.CheckBlockSanity(block, nil)
		if err != nil {
			return errors.Wrap(err, "block failed sanity checks")
		}
	}
	summarize(block)

	if cfg.Store {
		err = store.StoreBlock(block)
		if err != nil {
			return errors.Wrap(err, "error storing block")
		}
		err = store.SetTip(block.Hash())
		if err != nil {
			return errors.Wrap(err, "error advancing the tip")
		}
		log.Infof("Stored block %s and advanced the tip to it", block.Hash())
	}

	return nil
}

// summarize prints a human-readable digest of a block.
func summarize(block *util.Block) {
	msgBlock := block.MsgBlock()
	header := &msgBlock.Header

	fmt.Printf("block:       %s\n", block.Hash())
	fmt.Printf("version:     %d\n", header.Version)
	fmt.Printf("previous:    %s\n", header.PrevBlock)
	fmt.Printf("merkle root: %s\n", header.MerkleRoot)
	fmt.Printf("state root:  %s\n", header.StateRoot)
	fmt.Printf("time:        %s\n", block.Timestamp().UTC())
	fmt.Printf("bits:        %08x\n", header.Bits)
	fmt.Printf("nonce:       %d\n", header.Nonce)

	if block.IsProofOfStake() {
		prevout, stakeTime := msgBlock.ProofOfStake()
		fmt.Printf("kind:        proof-of-stake\n")
		fmt.Printf("staked:      %s\n", &prevout)
		fmt.Printf("stake time:  %d\n", stakeTime)
	} else {
		fmt.Printf("kind:        proof-of-work\n")
	}

	fmt.Printf("weight:      %d\n", blockchain.GetBlockWeight(block))
	fmt.Printf("txs:         %d\n", len(msgBlock.Transactions))
	for _, tx := range block.Transactions() {
		amount := btcutil.Amount(tx.MsgTx().TotalOut())
		role := "regular"
		switch {
		case tx.IsCoinBase():
			role = "coinbase"
		case tx.IsCoinStake():
			role = "coinstake"
		}
		fmt.Printf("  tx %d: %s (%s, %s)\n", tx.Index(), tx.Hash(), role,
			amount)
	}
}
