// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/emberchain/emberd/util/chainhash"
	"github.com/emberchain/emberd/wire"
)

// BlockLocator is used to help locate a specific block. The algorithm for
// building the block locator is to add the hashes in reverse order until
// recent hashes are exhausted.
//
// In addition to the top of the chain, a locator also contains hashes with
// exponentially increasing gaps back to the genesis block, so two nodes on
// diverging branches can still find a recent common trunk: the further back
// the fork point, the coarser the locator's resolution there.
//
// For example, assume a chain with a tip height of 217348. The block
// locator hashes might look something like this:
//
//	[217348 217347 ... 217337 217335 217331 217323 217307 217275 217211
//	 217083 216827 216315 215291 213243 209147 200955 184571 151803 86267 0]
type BlockLocator []*chainhash.Hash

// locatorTipHashes is the number of most-recent hashes a locator carries at
// full resolution before the gaps start doubling.
const locatorTipHashes = 12

// LocatorFromChain returns a block locator for the tip of the given chain
// of block hashes, ordered from genesis to tip. The genesis hash is always
// the locator's final entry; an empty chain yields a nil locator.
func LocatorFromChain(chain []*chainhash.Hash) BlockLocator {
	if len(chain) == 0 {
		return nil
	}

	// Calculate the max number of entries that will ultimately be in the
	// block locator. See the description of the algorithm for how these
	// numbers are derived.
	tipHeight := len(chain) - 1
	var maxEntries uint8
	if tipHeight <= locatorTipHashes {
		maxEntries = uint8(tipHeight) + 1
	} else {
		// Requested hash itself + previous numbers of hashes at full
		// resolution + genesis hash + relative log base 2 of the
		// distance covered by the doubling steps.
		adjustedHeight := uint32(tipHeight) - locatorTipHashes + 1
		maxEntries = locatorTipHashes + 2 + fastLog2Floor(adjustedHeight)
	}
	locator := make(BlockLocator, 0, maxEntries)

	step := 1
	for height := tipHeight; height >= 0; {
		locator = append(locator, chain[height])

		// Nothing more to add once the genesis block has been added.
		if height == 0 {
			break
		}

		// Calculate height of previous node to include ensuring the
		// final node is the genesis block.
		height -= step
		if height < 0 {
			height = 0
		}

		// Once full resolution is exhausted, the gaps double.
		if len(locator) > locatorTipHashes {
			step *= 2
		}
	}

	return locator
}

// Message converts the locator to a wire.MsgBlockLocator, which carries the
// two serialization contexts.
func (locator BlockLocator) Message() *wire.MsgBlockLocator {
	return wire.NewMsgBlockLocator(locator)
}

// log2FloorMasks defines the masks to use when quickly calculating
// floor(log2(x)) in a constant log2(32) = 5 steps, where x is a uint32,
// using shifts. They are derived from (2^(2^x) - 1) * (2^(2^x)), for x in
// 4..0.
var log2FloorMasks = []uint32{0xffff0000, 0xff00, 0xf0, 0xc, 0x2}

// fastLog2Floor calculates and returns floor(log2(x)) in a constant 5
// steps.
func fastLog2Floor(n uint32) uint8 {
	rv := uint8(0)
	exponent := uint8(16)
	for i := 0; i < 5; i++ {
		if n&log2FloorMasks[i] != 0 {
			rv += exponent
			n >>= exponent
		}
		exponent >>= 1
	}
	return rv
}
