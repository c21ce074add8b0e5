// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/emberchain/emberd/util"
)

const (
	// MaxBlockWeight defines the maximum block weight.
	MaxBlockWeight = 4000000

	// WitnessScaleFactor determines the level of "discount" witness data
	// receives compared to "base" data. A scale factor of 4 means a new
	// unit of weight is 1/4th of a byte of base data.
	WitnessScaleFactor = 4
)

// GetTransactionWeight computes the value of the weight metric for a given
// transaction: (stripped_size * 3) + total_size.
func GetTransactionWeight(tx *util.Tx) int64 {
	msgTx := tx.MsgTx()

	baseSize := msgTx.SerializeSizeStripped()
	totalSize := msgTx.SerializeSize()

	// (baseSize * 3) + totalSize
	return int64((baseSize * (WitnessScaleFactor - 1)) + totalSize)
}

// GetBlockWeight computes the value of the weight metric for a given block:
// (stripped_size * 3) + total_size. It is a pure function over the block,
// total for any well-formed block including one with no transactions at
// all, which weighs in at its serialized baseline.
func GetBlockWeight(blk *util.Block) int64 {
	msgBlock := blk.MsgBlock()

	baseSize := msgBlock.SerializeSizeStripped()
	totalSize := msgBlock.SerializeSize()

	// (baseSize * 3) + totalSize
	return int64((baseSize * (WitnessScaleFactor - 1)) + totalSize)
}
