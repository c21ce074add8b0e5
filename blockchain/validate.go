// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"sync"

	"github.com/emberchain/emberd/util"
	"github.com/emberchain/emberd/util/chainhash"
	"github.com/emberchain/emberd/wire"
)

// CheckCache records which blocks have already passed the structural checks
// in CheckBlockSanity, keyed by block hash. It replaces a mutable flag on
// the block value itself, so blocks stay safely shareable across
// goroutines while validation still skips repeat work. It is safe for
// concurrent use.
type CheckCache struct {
	mtx     sync.RWMutex
	checked map[chainhash.Hash]struct{}
}

// NewCheckCache returns an empty validation-result cache.
func NewCheckCache() *CheckCache {
	return &CheckCache{
		checked: make(map[chainhash.Hash]struct{}),
	}
}

// IsChecked returns whether the block with the given hash has already
// passed the structural checks.
func (c *CheckCache) IsChecked(hash *chainhash.Hash) bool {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	_, ok := c.checked[*hash]
	return ok
}

// MarkChecked records that the block with the given hash has passed the
// structural checks.
func (c *CheckCache) MarkChecked(hash *chainhash.Hash) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.checked[*hash] = struct{}{}
}

// Remove forgets the recorded result for the given hash, if any.
func (c *CheckCache) Remove(hash *chainhash.Hash) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	delete(c.checked, *hash)
}

// Len returns the number of blocks currently recorded as checked.
func (c *CheckCache) Len() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return len(c.checked)
}

// CheckBlockSanity performs the context-free structural checks on a block:
// transaction placement, merkle commitment, signature presence, and weight.
// When cache is non-nil, blocks it already records are skipped, and blocks
// that pass are recorded.
func CheckBlockSanity(block *util.Block, cache *CheckCache) error {
	if cache != nil && cache.IsChecked(block.Hash()) {
		log.Tracef("Block %s already checked", block.Hash())
		return nil
	}

	msgBlock := block.MsgBlock()

	// A block must have at least one transaction.
	numTx := len(msgBlock.Transactions)
	if numTx == 0 {
		return ruleError(ErrNoTransactions, "block does not contain "+
			"any transactions")
	}

	// A block must not have more transactions than the max block payload
	// allows.
	if numTx > wire.MaxTxPerBlock {
		str := fmt.Sprintf("block contains too many transactions - "+
			"got %d, max %d", numTx, wire.MaxTxPerBlock)
		return ruleError(ErrTooManyTransactions, str)
	}

	// The first transaction in a block must be a coinbase.
	transactions := block.Transactions()
	if !transactions[util.CoinbaseTransactionIndex].IsCoinBase() {
		return ruleError(ErrFirstTxNotCoinbase, "first transaction in "+
			"block is not a coinbase")
	}

	// A block must not have more than one coinbase, and a coinstake may
	// only occupy the slot immediately after the coinbase.
	for i, tx := range transactions[1:] {
		if tx.IsCoinBase() {
			str := fmt.Sprintf("block contains second coinbase at "+
				"index %d", i+1)
			return ruleError(ErrMultipleCoinbases, str)
		}
		if tx.IsCoinStake() && i+1 != util.CoinStakeTransactionIndex {
			str := fmt.Sprintf("block contains coinstake at index "+
				"%d, only index %d is valid", i+1,
				util.CoinStakeTransactionIndex)
			return ruleError(ErrMisplacedCoinStake, str)
		}
	}

	// A proof-of-stake block must carry a block signature over its
	// staked outpoint; a proof-of-work block must not carry one.
	if block.IsProofOfStake() {
		if len(msgBlock.Header.Signature) == 0 {
			return ruleError(ErrBadStakeSignature, "proof-of-stake "+
				"block has no block signature")
		}
	} else if len(msgBlock.Header.Signature) != 0 {
		return ruleError(ErrBadStakeSignature, "proof-of-work block "+
			"carries a block signature")
	}

	// Build merkle tree and ensure the calculated merkle root matches
	// the entry in the block header. This also has the effect of caching
	// all of the transaction hashes in the block to speed up future hash
	// checks.
	calculatedMerkleRoot := CalcMerkleRoot(transactions)
	if !msgBlock.Header.MerkleRoot.IsEqual(&calculatedMerkleRoot) {
		str := fmt.Sprintf("block merkle root is invalid - block "+
			"header indicates %s, but calculated value is %s",
			&msgBlock.Header.MerkleRoot, &calculatedMerkleRoot)
		return ruleError(ErrBadMerkleRoot, str)
	}

	// Check for duplicate transactions. This check will be fairly quick
	// since the transaction hashes are already cached due to building the
	// merkle tree above.
	existingTxHashes := make(map[chainhash.Hash]struct{}, numTx)
	for _, tx := range transactions {
		hash := tx.Hash()
		if _, exists := existingTxHashes[*hash]; exists {
			str := fmt.Sprintf("block contains duplicate "+
				"transaction %s", hash)
			return ruleError(ErrDuplicateTx, str)
		}
		existingTxHashes[*hash] = struct{}{}
	}

	// A block must not exceed the maximum allowed block weight.
	weight := GetBlockWeight(block)
	if weight > MaxBlockWeight {
		str := fmt.Sprintf("block exceeds the maximum allowed weight - "+
			"got %d, max %d", weight, MaxBlockWeight)
		return ruleError(ErrBlockWeightTooHigh, str)
	}

	if cache != nil {
		cache.MarkChecked(block.Hash())
	}
	log.Debugf("Block %s passed sanity checks", block.Hash())
	return nil
}
