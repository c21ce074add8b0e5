// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/emberchain/emberd/util/chainhash"
)

// MaxBlockSignatureSize is the maximum number of bytes a block signature can
// be. Proof-of-work blocks carry an empty signature.
const MaxBlockSignatureSize = 1024

// blockHeaderFixedPayload is the number of bytes a block header occupies on
// the wire excluding the variable-length block signature and its length
// prefix.
// Version 4 bytes + Timestamp 4 bytes + Bits 4 bytes + Nonce 4 bytes +
// PrevBlock, MerkleRoot and StateRoot hashes + Stake flag 1 byte +
// StakePrevout 36 bytes + StakeTime 4 bytes.
const blockHeaderFixedPayload = 16 + (3 * chainhash.HashSize) + 41

// MaxBlockHeaderPayload is the maximum number of bytes a block header can be.
const MaxBlockHeaderPayload = blockHeaderFixedPayload + MaxVarIntPayload +
	MaxBlockSignatureSize

// StakeProof is the capability surface for classifying a block as
// proof-of-stake and reading the stake-specific fields that govern stake
// validation. It is implemented twice: by BlockHeader over its stored
// fields, for contexts where only the header is known, and by MsgBlock by
// derivation from its transactions. Code that may hold either must dispatch
// through this interface so that a full block always reports its derived
// values rather than whatever its embedded header happens to store.
type StakeProof interface {
	// IsProofOfStake returns whether the block satisfies consensus via
	// proof-of-stake rather than proof-of-work.
	IsProofOfStake() bool

	// PrevoutStake returns the outpoint of the staked coin. It is the
	// null outpoint for proof-of-work blocks.
	PrevoutStake() Outpoint

	// StakeTime returns the timestamp of the coinstake transaction, or
	// zero for proof-of-work blocks.
	StakeTime() uint32
}

// BlockHeader defines information about a block and is used in the ember
// block (MsgBlock) and headers messages.
//
// The three stake fields (Stake, StakePrevout, StakeTimestamp) are derived
// from the coinstake transaction and are materialized into the header so
// that header-only contexts such as headers-first sync can still classify
// the block. A full block never trusts them: MsgBlock recomputes them from
// its transactions, and every encode path refreshes them through the
// StakeProof interface first.
type BlockHeader struct {
	// Version of the block. This is not the same as the protocol version.
	Version int32

	// Hash of the previous block in the chain.
	PrevBlock chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot chainhash.Hash

	// Time the block was created. This is, unfortunately, encoded as a
	// uint32 on the wire and therefore is limited to 2106.
	Timestamp time.Time

	// Difficulty target for the block.
	Bits uint32

	// Nonce used to generate the block. Meaningless for proof-of-stake
	// blocks.
	Nonce uint32

	// Root of the auxiliary execution state committed to by this block.
	StateRoot chainhash.Hash

	// Signature of the block by its staker. Empty for proof-of-work
	// blocks.
	Signature []byte

	// Stake reports whether this is a proof-of-stake block.
	Stake bool

	// StakePrevout is the outpoint of the coin staked by the coinstake
	// transaction.
	StakePrevout Outpoint

	// StakeTimestamp is the timestamp of the coinstake transaction.
	StakeTimestamp uint32
}

// SetNull resets the header to its null value. A null header has a zero
// difficulty target and therefore fails IsNull's counterpart checks in any
// consumer expecting a real block.
func (h *BlockHeader) SetNull() {
	*h = BlockHeader{Timestamp: time.Unix(0, 0)}
	h.StakePrevout.SetNull()
}

// IsNull returns whether the header is the null header. A header is null iff
// it carries no difficulty target at all.
func (h *BlockHeader) IsNull() bool {
	return h.Bits == 0
}

// BlockHash computes the block identifier hash for the given block header.
// The hash is computed over the exact bytes of the canonical header
// encoding, so every field of the header contributes to the block identity.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	// Encode the header and double sha256 everything. Ignore the error
	// returns since there is no way the encode could fail except being
	// out of memory which would cause a run-time panic.
	buf := bytes.NewBuffer(make([]byte, 0, blockHeaderFixedPayload+
		VarIntSerializeSize(uint64(len(h.Signature)))+len(h.Signature)))
	_ = writeBlockHeader(buf, 0, h)

	return chainhash.DoubleHashH(buf.Bytes())
}

// BlockTime returns the block timestamp widened to a signed 64-bit Unix
// time.
func (h *BlockHeader) BlockTime() int64 {
	return h.Timestamp.Unix()
}

// IsProofOfStake returns the stored stake flag. It is part of the StakeProof
// interface implementation: a bare header has no transactions to derive
// from, so the materialized value is authoritative here.
func (h *BlockHeader) IsProofOfStake() bool {
	return h.Stake
}

// IsProofOfWork returns whether the block is a proof-of-work block, the
// logical negation of IsProofOfStake.
func (h *BlockHeader) IsProofOfWork() bool {
	return !h.IsProofOfStake()
}

// PrevoutStake returns the stored stake outpoint. It is part of the
// StakeProof interface implementation.
func (h *BlockHeader) PrevoutStake() Outpoint {
	return h.StakePrevout
}

// StakeTime returns the stored coinstake timestamp. It is part of the
// StakeProof interface implementation.
func (h *BlockHeader) StakeTime() uint32 {
	return h.StakeTimestamp
}

// SnapshotHeader returns a copy of base whose stake fields are refreshed
// through the derivation interface of source. This is the only correct way
// to copy a header out of anything that implements StakeProof: copying the
// raw stored fields of a full block's embedded header could materialize
// stale values that disagree with the block's transactions.
func SnapshotHeader(base *BlockHeader, source StakeProof) BlockHeader {
	snapshot := *base
	snapshot.Stake = source.IsProofOfStake()
	snapshot.StakePrevout = source.PrevoutStake()
	snapshot.StakeTimestamp = source.StakeTime()
	return snapshot
}

// EmberDecode decodes r using the ember protocol encoding into the receiver.
// This is part of the Message interface implementation.
// See Deserialize for decoding block headers stored to disk, such as in a
// database, as opposed to decoding block headers from the wire.
func (h *BlockHeader) EmberDecode(r io.Reader, pver uint32) error {
	return readBlockHeader(r, pver, h)
}

// EmberEncode encodes the receiver to w using the ember protocol encoding.
// This is part of the Message interface implementation.
// See Serialize for encoding block headers to be stored to disk, such as in
// a database, as opposed to encoding block headers for the wire.
func (h *BlockHeader) EmberEncode(w io.Writer, pver uint32) error {
	return writeBlockHeader(w, pver, h)
}

// Deserialize decodes a block header from r into the receiver using a format
// that is suitable for long-term storage such as a database.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	// At the current time, there is no difference between the wire
	// encoding at protocol version 0 and the stable long-term storage
	// format. As a result, make use of readBlockHeader.
	return readBlockHeader(r, 0, h)
}

// Serialize encodes a block header from r into the receiver using a format
// that is suitable for long-term storage such as a database.
func (h *BlockHeader) Serialize(w io.Writer) error {
	// At the current time, there is no difference between the wire
	// encoding at protocol version 0 and the stable long-term storage
	// format. As a result, make use of writeBlockHeader.
	return writeBlockHeader(w, 0, h)
}

// SerializeSize returns the number of bytes it would take to serialize the
// block header.
func (h *BlockHeader) SerializeSize() int {
	return blockHeaderFixedPayload +
		VarIntSerializeSize(uint64(len(h.Signature))) + len(h.Signature)
}

// NewBlockHeader returns a new BlockHeader using the provided version,
// previous block hash, merkle root hash, state root hash, difficulty bits,
// and nonce with defaults for the remaining fields. The stake fields are
// null: headers of freshly assembled blocks are materialized from the
// block's transactions at encode time, not at construction time.
func NewBlockHeader(version int32, prevBlock, merkleRoot, stateRoot *chainhash.Hash,
	bits uint32, nonce uint32) *BlockHeader {

	// Limit the timestamp to one second precision since the protocol
	// doesn't support better.
	return &BlockHeader{
		Version:      version,
		PrevBlock:    *prevBlock,
		MerkleRoot:   *merkleRoot,
		Timestamp:    time.Unix(time.Now().Unix(), 0),
		Bits:         bits,
		Nonce:        nonce,
		StateRoot:    *stateRoot,
		StakePrevout: NullOutpoint(),
	}
}

// readBlockHeader reads an ember block header from r. See Deserialize for
// decoding block headers stored to disk, such as in a database, as opposed
// to decoding from the wire.
//
// The decode path deliberately performs no stake-field derivation: the
// stored bytes are taken as-is. Derivation only ever runs against a full
// transaction list, which a header being decoded does not have yet.
func readBlockHeader(r io.Reader, pver uint32, bh *BlockHeader) error {
	var sec uint32
	err := readElements(r, &bh.Version, &bh.PrevBlock, &bh.MerkleRoot,
		&sec, &bh.Bits, &bh.Nonce, &bh.StateRoot)
	if err != nil {
		return err
	}
	bh.Timestamp = time.Unix(int64(sec), 0)

	bh.Signature, err = ReadVarBytes(r, pver, MaxBlockSignatureSize,
		"block signature")
	if err != nil {
		return err
	}

	err = readElements(r, &bh.Stake, &bh.StakePrevout.TxID,
		&bh.StakePrevout.Index)
	if err != nil {
		return err
	}
	return ReadElement(r, &bh.StakeTimestamp)
}

// writeBlockHeader writes an ember block header to w. The field order here
// is the single canonical header layout: it is shared by the wire format,
// disk storage, and the hash input of BlockHash. See Serialize for encoding
// block headers to be stored to disk, such as in a database, as opposed to
// encoding for the wire.
func writeBlockHeader(w io.Writer, pver uint32, bh *BlockHeader) error {
	sec := uint32(bh.Timestamp.Unix())
	err := writeElements(w, bh.Version, &bh.PrevBlock, &bh.MerkleRoot,
		sec, bh.Bits, bh.Nonce, &bh.StateRoot)
	if err != nil {
		return err
	}

	err = WriteVarBytes(w, pver, bh.Signature)
	if err != nil {
		return err
	}

	err = writeElements(w, bh.Stake, &bh.StakePrevout.TxID,
		bh.StakePrevout.Index)
	if err != nil {
		return err
	}
	return WriteElement(w, bh.StakeTimestamp)
}
