// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/emberchain/emberd/util/chainhash"
)

// testStakedOutpoint is the outpoint staked by the coinstake fixture.
var testStakedOutpoint = Outpoint{
	TxID:  chainhash.Hash(solidHash(0xaa)),
	Index: 0,
}

// testStakeTime is the coinstake timestamp used by the fixtures.
const testStakeTime uint32 = 1600000000

// testPowBlock returns a proof-of-work block carrying a single coinbase
// transaction.
func testPowBlock() *MsgBlock {
	block := &MsgBlock{Header: *testPowHeader()}
	block.AddTransaction(testCoinbaseTx())
	return block
}

// testPosBlock returns a proof-of-stake block whose embedded header
// deliberately carries stale (proof-of-work) stake fields, so that any code
// path reading stored fields instead of deriving them fails tests loudly.
func testPosBlock() *MsgBlock {
	block := &MsgBlock{Header: *testPowHeader()}
	block.AddTransaction(testCoinbaseTx())
	block.AddTransaction(testCoinStakeTx(testStakedOutpoint, testStakeTime))
	return block
}

// coinbaseTxBytes returns the canonical encoding of testCoinbaseTx.
func coinbaseTxBytes() []byte {
	buf := []byte{0x01, 0x00, 0x00, 0x00} // Version 1
	buf = append(buf, 0x00, 0x00, 0x00, 0x00)            // Time
	buf = append(buf, 0x01)                              // Input count
	buf = append(buf, bytes.Repeat([]byte{0x00}, 32)...) // Prevout TxID
	buf = append(buf, 0xff, 0xff, 0xff, 0xff)            // Prevout Index
	buf = append(buf, 0x04, 0x04, 0x31, 0x32, 0x33)      // SignatureScript
	buf = append(buf, 0xff, 0xff, 0xff, 0xff)            // Sequence
	buf = append(buf, 0x01)                              // Output count
	buf = append(buf, 0x00, 0xf2, 0x05, 0x2a, 0x01, 0x00, 0x00, 0x00) // Value
	buf = append(buf, 0x01, 0x51)                        // PkScript
	buf = append(buf, 0x00, 0x00, 0x00, 0x00)            // LockTime
	return buf
}

// TestBlock tests the MsgBlock API.
func TestBlock(t *testing.T) {
	pver := ProtocolVersion

	header := testPowHeader()
	msg := NewMsgBlock(header)

	// Ensure the command is expected value.
	wantCmd := "block"
	if cmd := msg.Command(); cmd != wantCmd {
		t.Errorf("NewMsgBlock: wrong command - got %v want %v",
			cmd, wantCmd)
	}

	// Ensure max payload is expected value.
	wantPayload := uint32(1024 * 1024 * 8)
	maxPayload := msg.MaxPayloadLength(pver)
	if maxPayload != wantPayload {
		t.Errorf("MaxPayloadLength: wrong max payload length for "+
			"protocol version %d - got %v, want %v", pver,
			maxPayload, wantPayload)
	}

	// Ensure we get the same block header data back out.
	if !reflect.DeepEqual(&msg.Header, header) {
		t.Errorf("NewMsgBlock: wrong block header - got %v, want %v",
			spew.Sdump(&msg.Header), spew.Sdump(header))
	}

	// Ensure transactions are added properly.
	tx := testCoinbaseTx()
	msg.AddTransaction(tx)
	if !reflect.DeepEqual(msg.Transactions, []*MsgTx{tx}) {
		t.Errorf("AddTransaction: wrong transactions - got %v",
			spew.Sdump(msg.Transactions))
	}

	// Ensure transactions are properly cleared.
	msg.ClearTransactions()
	if len(msg.Transactions) != 0 {
		t.Errorf("ClearTransactions: wrong transactions - got %v, want %v",
			len(msg.Transactions), 0)
	}

	// Ensure SetNull resets both the header and the transactions.
	msg = testPosBlock()
	msg.SetNull()
	if !msg.Header.IsNull() || len(msg.Transactions) != 0 {
		t.Errorf("SetNull: block not null: %s", spew.Sdump(msg))
	}
}

// TestBlockStakeDerivation exercises the consensus-critical classification
// rule: a block is proof-of-stake iff it has more than one transaction and
// the transaction at CoinStakeIndex is a coinstake, with header-only blocks
// falling back to the stored header fields.
func TestBlockStakeDerivation(t *testing.T) {
	// A block with no transactions reports the stored header fields.
	headerOnly := &MsgBlock{Header: *testPosHeader()}
	if !headerOnly.IsProofOfStake() {
		t.Error("IsProofOfStake: expected stored-flag fallback with no transactions")
	}
	if got := headerOnly.PrevoutStake(); got != headerOnly.Header.StakePrevout {
		t.Errorf("PrevoutStake: fallback got %v, want %v", got,
			headerOnly.Header.StakePrevout)
	}
	if got := headerOnly.StakeTime(); got != headerOnly.Header.StakeTimestamp {
		t.Errorf("StakeTime: fallback got %d, want %d", got,
			headerOnly.Header.StakeTimestamp)
	}

	// A proof-of-work block with a stale stake flag in its header is
	// still proof-of-work: the transaction list wins.
	powBlock := testPowBlock()
	powBlock.Header.Stake = true
	if powBlock.IsProofOfStake() {
		t.Error("IsProofOfStake: expected derivation to override the stored flag")
	}
	if !powBlock.IsProofOfWork() {
		t.Error("IsProofOfWork: expected true for a coinbase-only block")
	}
	if got := powBlock.PrevoutStake(); !got.IsNull() {
		t.Errorf("PrevoutStake: got %v, want the null outpoint", got)
	}
	if got := powBlock.StakeTime(); got != 0 {
		t.Errorf("StakeTime: got %d, want 0", got)
	}

	// The canonical proof-of-stake shape.
	posBlock := testPosBlock()
	if !posBlock.IsProofOfStake() {
		t.Fatal("IsProofOfStake: expected true with a coinstake at index 1")
	}
	if got := posBlock.PrevoutStake(); got != testStakedOutpoint {
		t.Errorf("PrevoutStake: got %v, want %v", got, testStakedOutpoint)
	}
	if got := posBlock.StakeTime(); got != testStakeTime {
		t.Errorf("StakeTime: got %d, want %d", got, testStakeTime)
	}

	prevout, stakeTime := posBlock.ProofOfStake()
	if prevout != testStakedOutpoint || stakeTime != testStakeTime {
		t.Errorf("ProofOfStake: got (%v, %d), want (%v, %d)",
			prevout, stakeTime, testStakedOutpoint, testStakeTime)
	}

	// A second transaction that is not a coinstake makes the block
	// proof-of-work regardless of any stored flag.
	notStake := testPosBlock()
	notStake.Transactions[CoinStakeIndex] = testCoinbaseTx()
	notStake.Header.Stake = true
	if notStake.IsProofOfStake() {
		t.Error("IsProofOfStake: expected false when index 1 is not a coinstake")
	}
	if got := notStake.PrevoutStake(); !got.IsNull() {
		t.Errorf("PrevoutStake: got %v, want the null outpoint", got)
	}
	if got := notStake.StakeTime(); got != 0 {
		t.Errorf("StakeTime: got %d, want 0", got)
	}

	prevout, stakeTime = notStake.ProofOfStake()
	if !prevout.IsNull() || stakeTime != 0 {
		t.Errorf("ProofOfStake: got (%v, %d), want (null, 0)",
			prevout, stakeTime)
	}
}

// TestBlockHeaderSnapshot verifies the central correctness property tying
// header and block together: the header materialized from a block carries
// the block's derived stake fields, never the stored ones, and copying a
// block through a header-typed handle preserves the computed
// classification.
func TestBlockHeaderSnapshot(t *testing.T) {
	posBlock := testPosBlock()

	// The embedded header is stale on purpose.
	if posBlock.Header.Stake {
		t.Fatal("fixture: embedded header should carry a stale stake flag")
	}

	header := posBlock.BlockHeader()
	if !header.Stake {
		t.Error("BlockHeader: snapshot did not materialize the derived stake flag")
	}
	if header.StakePrevout != testStakedOutpoint {
		t.Errorf("BlockHeader: snapshot stake prevout got %v, want %v",
			header.StakePrevout, testStakedOutpoint)
	}
	if header.StakeTimestamp != testStakeTime {
		t.Errorf("BlockHeader: snapshot stake time got %d, want %d",
			header.StakeTimestamp, testStakeTime)
	}

	// Copy through a StakeProof-typed handle, the way any header-typed
	// consumer of a full block must.
	var source StakeProof = posBlock
	snapshot := SnapshotHeader(&posBlock.Header, source)
	if !snapshot.IsProofOfStake() {
		t.Error("SnapshotHeader: classification lost through interface handle")
	}
	if snapshot.PrevoutStake() != testStakedOutpoint {
		t.Error("SnapshotHeader: stake prevout lost through interface handle")
	}

	// Reconstructing a block from the snapshot preserves the
	// classification through the stored-field fallback.
	rebuilt := NewMsgBlock(&header)
	if !rebuilt.IsProofOfStake() {
		t.Error("NewMsgBlock: classification lost on reconstruction")
	}
	if got := rebuilt.PrevoutStake(); got != testStakedOutpoint {
		t.Errorf("NewMsgBlock: stake prevout got %v, want %v", got,
			testStakedOutpoint)
	}
	if got := rebuilt.StakeTime(); got != testStakeTime {
		t.Errorf("NewMsgBlock: stake time got %d, want %d", got,
			testStakeTime)
	}
}

// TestBlockSerialize tests MsgBlock serialize and deserialize, including
// the canonical byte image of a coinbase-only block and the refresh of the
// stake fields on the encode path.
func TestBlockSerialize(t *testing.T) {
	// Canonical byte image: header, transaction count, transactions.
	powBlock := testPowBlock()
	wantBytes := powHeaderBytes()
	wantBytes = append(wantBytes, 0x01) // Transaction count
	wantBytes = append(wantBytes, coinbaseTxBytes()...)

	var buf bytes.Buffer
	if err := powBlock.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), wantBytes) {
		t.Fatalf("Serialize:\n got: %s want: %s",
			spew.Sdump(buf.Bytes()), spew.Sdump(wantBytes))
	}
	if got := powBlock.SerializeSize(); got != len(wantBytes) {
		t.Errorf("SerializeSize: got %d, want %d", got, len(wantBytes))
	}

	var decoded MsgBlock
	if err := decoded.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got, want := decoded.BlockHash(), powBlock.BlockHash(); !got.IsEqual(&want) {
		t.Errorf("Deserialize: block hash mismatch, got %v want %v",
			got, want)
	}

	// A proof-of-stake block with a stale embedded header must hit the
	// wire with refreshed stake fields.
	posBlock := testPosBlock()
	buf.Reset()
	if err := posBlock.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var decodedPos MsgBlock
	if err := decodedPos.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !decodedPos.Header.Stake {
		t.Error("Serialize: stale stake flag reached the wire")
	}
	if decodedPos.Header.StakePrevout != testStakedOutpoint {
		t.Errorf("Serialize: wire stake prevout got %v, want %v",
			decodedPos.Header.StakePrevout, testStakedOutpoint)
	}
	if decodedPos.Header.StakeTimestamp != testStakeTime {
		t.Errorf("Serialize: wire stake time got %d, want %d",
			decodedPos.Header.StakeTimestamp, testStakeTime)
	}

	// The decoded block must re-derive to the same values it carries,
	// and hash identically to the source block.
	if !decodedPos.IsProofOfStake() {
		t.Error("Deserialize: decoded block lost its classification")
	}
	if got, want := decodedPos.BlockHash(), posBlock.BlockHash(); !got.IsEqual(&want) {
		t.Errorf("Deserialize: block hash mismatch, got %v want %v",
			got, want)
	}
}

// TestBlockHashMatchesHeaderImage verifies that the hash of a block equals
// the hash of its materialized header: the hash input and the wire image
// can never disagree.
func TestBlockHashMatchesHeaderImage(t *testing.T) {
	posBlock := testPosBlock()

	header := posBlock.BlockHeader()
	headerHash := header.BlockHash()
	blockHash := posBlock.BlockHash()
	if !blockHash.IsEqual(&headerHash) {
		t.Errorf("BlockHash: block hashes to %v but its header image hashes to %v",
			blockHash, headerHash)
	}

	// Hashing the stale embedded header directly would give a different
	// identity. This is exactly the divergence the snapshot prevents.
	staleHash := posBlock.Header.BlockHash()
	if staleHash.IsEqual(&blockHash) {
		t.Error("BlockHash: stale embedded header unexpectedly matches the block identity")
	}
}

// TestBlockTxHashes tests the ability to generate a slice of all
// transaction hashes from a block accurately.
func TestBlockTxHashes(t *testing.T) {
	posBlock := testPosBlock()
	wantHashes := []chainhash.Hash{
		posBlock.Transactions[0].TxHash(),
		posBlock.Transactions[1].TxHash(),
	}
	hashes := posBlock.TxHashes()
	if !reflect.DeepEqual(hashes, wantHashes) {
		t.Errorf("TxHashes: wrong transaction hashes - got %v, want %v",
			spew.Sdump(hashes), spew.Sdump(wantHashes))
	}
}
