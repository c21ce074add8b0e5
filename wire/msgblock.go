// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/emberchain/emberd/util/chainhash"
)

// defaultTransactionAlloc is the default size used for the backing array
// for transactions. The transaction array will dynamically grow as needed,
// but this figure is intended to provide enough space for the number of
// transactions in the vast majority of blocks without needing to grow the
// backing array multiple times.
const defaultTransactionAlloc = 2048

// MaxBlockPayload is the maximum bytes a block message can be in total.
const MaxBlockPayload = 1024 * 1024 * 8 // 8MB

// MaxTxPerBlock is the maximum number of transactions that could possibly
// fit into a block.
const MaxTxPerBlock = (MaxBlockPayload / minTxPayload) + 1

// CoinStakeIndex is the index at which the coinstake transaction sits in
// the transaction list of every proof-of-stake block. A block whose
// transaction at this index is a coinstake is a proof-of-stake block; every
// other block is proof-of-work.
const CoinStakeIndex = 1

// MsgBlock implements the Message interface and represents an ember block
// message. It is used to deliver block and transaction information in
// response to requests for a given block hash.
//
// MsgBlock implements StakeProof by derivation: the stake classification
// and the stake-specific fields are recomputed from the transaction list on
// every access rather than read from the embedded header, whose stored
// stake fields may be stale. Encoding and hashing always go through a
// refreshed header snapshot, so the byte image a block hashes to and the
// byte image it serializes to can never disagree about its stake fields.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// AddTransaction adds a transaction to the message.
func (msg *MsgBlock) AddTransaction(tx *MsgTx) {
	msg.Transactions = append(msg.Transactions, tx)
}

// ClearTransactions removes all transactions from the message.
func (msg *MsgBlock) ClearTransactions() {
	msg.Transactions = make([]*MsgTx, 0, defaultTransactionAlloc)
}

// SetNull resets the block to its null value: a null header and an empty
// transaction list.
func (msg *MsgBlock) SetNull() {
	msg.Header.SetNull()
	msg.Transactions = nil
}

// IsProofOfStake returns whether the block is a proof-of-stake block: it
// carries more than one transaction and the transaction at CoinStakeIndex
// is a coinstake. A block with no transactions at all is a bare header
// carrier, so the stored header flag is the only information available and
// is returned as-is. This is part of the StakeProof interface
// implementation.
func (msg *MsgBlock) IsProofOfStake() bool {
	if len(msg.Transactions) == 0 {
		return msg.Header.Stake
	}

	return len(msg.Transactions) > CoinStakeIndex &&
		msg.Transactions[CoinStakeIndex].IsCoinStake()
}

// IsProofOfWork returns whether the block is a proof-of-work block, the
// logical negation of IsProofOfStake.
func (msg *MsgBlock) IsProofOfWork() bool {
	return !msg.IsProofOfStake()
}

// PrevoutStake returns the outpoint of the staked coin: the previous
// outpoint of the coinstake transaction's first input. It is the null
// outpoint when the block is not proof-of-stake, and falls back to the
// stored header value when the block carries no transactions. This is part
// of the StakeProof interface implementation.
func (msg *MsgBlock) PrevoutStake() Outpoint {
	if len(msg.Transactions) == 0 {
		return msg.Header.StakePrevout
	}

	prevout := NullOutpoint()
	if msg.IsProofOfStake() {
		// IsProofOfStake implies the coinstake has at least one input.
		prevout = msg.Transactions[CoinStakeIndex].TxIn[0].PreviousOutpoint
	}
	return prevout
}

// StakeTime returns the timestamp of the coinstake transaction. It is zero
// when the block is not proof-of-stake, and falls back to the stored header
// value when the block carries no transactions. This is part of the
// StakeProof interface implementation.
func (msg *MsgBlock) StakeTime() uint32 {
	if len(msg.Transactions) == 0 {
		return msg.Header.StakeTimestamp
	}

	var stakeTime uint32
	if msg.IsProofOfStake() {
		stakeTime = msg.Transactions[CoinStakeIndex].Time
	}
	return stakeTime
}

// ProofOfStake returns the staked outpoint and the coinstake timestamp as a
// pair. It returns the null outpoint and a zero time when the block is not
// proof-of-stake.
func (msg *MsgBlock) ProofOfStake() (Outpoint, uint32) {
	if !msg.IsProofOfStake() {
		return NullOutpoint(), 0
	}
	return msg.PrevoutStake(), msg.StakeTime()
}

// BlockHeader returns a snapshot of the block's header whose stake fields
// are the block's derived values, never the embedded header's stored ones.
// This is the header that hashing, serialization, and header-relay must
// use.
func (msg *MsgBlock) BlockHeader() BlockHeader {
	return SnapshotHeader(&msg.Header, msg)
}

// BlockHash computes the block identifier hash for this block.
func (msg *MsgBlock) BlockHash() chainhash.Hash {
	header := msg.BlockHeader()
	return header.BlockHash()
}

// TxHashes returns a slice of hashes of all of transactions in this block.
func (msg *MsgBlock) TxHashes() []chainhash.Hash {
	hashList := make([]chainhash.Hash, 0, len(msg.Transactions))
	for _, tx := range msg.Transactions {
		hashList = append(hashList, tx.TxHash())
	}
	return hashList
}

// EmberDecode decodes r using the ember protocol encoding into the receiver.
// This is part of the Message interface implementation.
// See Deserialize for decoding blocks stored to disk, such as in a
// database, as opposed to decoding blocks from the wire.
func (msg *MsgBlock) EmberDecode(r io.Reader, pver uint32) error {
	err := readBlockHeader(r, pver, &msg.Header)
	if err != nil {
		return err
	}

	txCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}

	// Prevent more transactions than could possibly fit into a block.
	// It would be possible to cause memory exhaustion and panics without
	// a sane upper bound on this count.
	if txCount > MaxTxPerBlock {
		str := fmt.Sprintf("too many transactions to fit into a block "+
			"[count %d, max %d]", txCount, MaxTxPerBlock)
		return messageError("MsgBlock.EmberDecode", str)
	}

	msg.Transactions = make([]*MsgTx, 0, txCount)
	for i := uint64(0); i < txCount; i++ {
		tx := MsgTx{}
		err := tx.EmberDecode(r, pver)
		if err != nil {
			return err
		}
		msg.Transactions = append(msg.Transactions, &tx)
	}

	return nil
}

// Deserialize decodes a block from r into the receiver using a format that
// is suitable for long-term storage such as a database while respecting the
// Version field in the block.
func (msg *MsgBlock) Deserialize(r io.Reader) error {
	// At the current time, there is no difference between the wire
	// encoding at protocol version 0 and the stable long-term storage
	// format. As a result, make use of EmberDecode.
	return msg.EmberDecode(r, 0)
}

// EmberEncode encodes the receiver to w using the ember protocol encoding.
// This is part of the Message interface implementation.
// See Serialize for encoding blocks to be stored to disk, such as in a
// database, as opposed to encoding blocks for the wire.
//
// The header is re-materialized through the StakeProof derivation before
// every encode, so the stake fields on the wire always agree with the
// transaction list that follows them.
func (msg *MsgBlock) EmberEncode(w io.Writer, pver uint32) error {
	header := msg.BlockHeader()
	err := writeBlockHeader(w, pver, &header)
	if err != nil {
		return err
	}

	err = WriteVarInt(w, uint64(len(msg.Transactions)))
	if err != nil {
		return err
	}

	for _, tx := range msg.Transactions {
		err = tx.EmberEncode(w, pver)
		if err != nil {
			return err
		}
	}

	return nil
}

// Serialize encodes the block to w using a format that is suitable for
// long-term storage such as a database while respecting the Version field
// in the block.
func (msg *MsgBlock) Serialize(w io.Writer) error {
	// At the current time, there is no difference between the wire
	// encoding at protocol version 0 and the stable long-term storage
	// format. As a result, make use of EmberEncode.
	return msg.EmberEncode(w, 0)
}

// SerializeSize returns the number of bytes it would take to serialize the
// block.
func (msg *MsgBlock) SerializeSize() int {
	// Block header bytes + serialized varint size for the number of
	// transactions.
	n := msg.Header.SerializeSize() +
		VarIntSerializeSize(uint64(len(msg.Transactions)))

	for _, tx := range msg.Transactions {
		n += tx.SerializeSize()
	}

	return n
}

// SerializeSizeStripped returns the number of bytes it would take to
// serialize the block excluding any witness data. See
// MsgTx.SerializeSizeStripped.
func (msg *MsgBlock) SerializeSizeStripped() int {
	n := msg.Header.SerializeSize() +
		VarIntSerializeSize(uint64(len(msg.Transactions)))

	for _, tx := range msg.Transactions {
		n += tx.SerializeSizeStripped()
	}

	return n
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgBlock) Command() string {
	return CmdBlock
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver. This is part of the Message interface implementation.
func (msg *MsgBlock) MaxPayloadLength(pver uint32) uint32 {
	return MaxBlockPayload
}

// NewMsgBlock returns a new ember block message based on the provided
// header, which is copied through the snapshot conversion so that a header
// sourced from another block preserves that block's computed stake
// classification. The transaction list is left empty: callers reconstructing
// a full block from a separately fetched header and body are expected to
// add the transactions afterwards.
func NewMsgBlock(blockHeader *BlockHeader) *MsgBlock {
	return &MsgBlock{
		Header:       SnapshotHeader(blockHeader, blockHeader),
		Transactions: make([]*MsgTx, 0, defaultTransactionAlloc),
	}
}
