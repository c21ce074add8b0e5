package database

import (
	"testing"
	"time"

	"github.com/emberchain/emberd/util"
	"github.com/emberchain/emberd/util/chainhash"
	"github.com/emberchain/emberd/wire"
)

// openTestStore opens a block store in a fresh temporary directory.
func openTestStore(t *testing.T) *BlockStore {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open unexpectedly failed: %s", err)
	}
	t.Cleanup(func() {
		err := store.Close()
		if err != nil {
			t.Fatalf("Close unexpectedly failed: %s", err)
		}
	})
	return store
}

// testBlock returns a proof-of-stake block whose nonce is seeded so
// distinct seeds produce distinct block hashes.
func testBlock(seed uint32) *util.Block {
	header := wire.NewBlockHeader(1, &chainhash.Hash{}, &chainhash.Hash{},
		&chainhash.Hash{}, 0x1d00ffff, seed)
	header.Timestamp = time.Unix(0x495fab29, 0)
	header.Signature = []byte{0xde, 0xad}

	msgBlock := wire.NewMsgBlock(header)

	coinbase := wire.NewMsgTx(wire.TxVersion, 0)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutpoint: wire.NullOutpoint(),
		SignatureScript:  []byte{0x04, 0x31},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(wire.NewTxOut(5000000000, []byte{0x51}))
	msgBlock.AddTransaction(coinbase)

	coinstake := wire.NewMsgTx(wire.TxVersion, 1600000000)
	staked := wire.Outpoint{Index: 0}
	staked.TxID[0] = 0xaa
	coinstake.AddTxIn(wire.NewTxIn(&staked, []byte{0x04, 0x05}))
	coinstake.AddTxOut(wire.NewTxOut(0, nil))
	coinstake.AddTxOut(wire.NewTxOut(5100000000, []byte{0x52}))
	msgBlock.AddTransaction(coinstake)

	return util.NewBlock(msgBlock)
}

func TestBlockStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	block := testBlock(1)
	hash := block.Hash()

	// The block is absent before it is stored.
	exists, err := store.HasBlock(hash)
	if err != nil {
		t.Fatalf("HasBlock unexpectedly failed: %s", err)
	}
	if exists {
		t.Fatal("HasBlock reported an unstored block as present")
	}
	_, err = store.FetchBlock(hash)
	if !IsNotFoundError(err) {
		t.Fatalf("FetchBlock: got %v, want ErrNotFound", err)
	}

	// Store and fetch it back.
	if err := store.StoreBlock(block); err != nil {
		t.Fatalf("StoreBlock unexpectedly failed: %s", err)
	}
	exists, err = store.HasBlock(hash)
	if err != nil {
		t.Fatalf("HasBlock unexpectedly failed: %s", err)
	}
	if !exists {
		t.Fatal("HasBlock reported a stored block as absent")
	}

	fetched, err := store.FetchBlock(hash)
	if err != nil {
		t.Fatalf("FetchBlock unexpectedly failed: %s", err)
	}
	if !fetched.Hash().IsEqual(hash) {
		t.Fatalf("FetchBlock: hash mismatch - got %s, want %s",
			fetched.Hash(), hash)
	}

	// Derived classification survives the storage round trip, and the
	// stored header carries the materialized stake fields.
	if !fetched.IsProofOfStake() {
		t.Error("FetchBlock: block lost its proof-of-stake classification")
	}
	if !fetched.MsgBlock().Header.Stake {
		t.Error("FetchBlock: stored header stake flag not materialized")
	}

	// Storing the same block again is a no-op.
	if err := store.StoreBlock(block); err != nil {
		t.Fatalf("StoreBlock (repeat) unexpectedly failed: %s", err)
	}
}

func TestBlockStoreDelete(t *testing.T) {
	store := openTestStore(t)
	block := testBlock(2)

	if err := store.StoreBlock(block); err != nil {
		t.Fatalf("StoreBlock unexpectedly failed: %s", err)
	}
	if err := store.DeleteBlock(block.Hash()); err != nil {
		t.Fatalf("DeleteBlock unexpectedly failed: %s", err)
	}
	exists, err := store.HasBlock(block.Hash())
	if err != nil {
		t.Fatalf("HasBlock unexpectedly failed: %s", err)
	}
	if exists {
		t.Fatal("HasBlock reported a deleted block as present")
	}

	// Deleting an absent block is a no-op.
	if err := store.DeleteBlock(block.Hash()); err != nil {
		t.Fatalf("DeleteBlock (absent) unexpectedly failed: %s", err)
	}
}

func TestBlockStoreTip(t *testing.T) {
	store := openTestStore(t)

	// No tip recorded yet.
	_, err := store.Tip()
	if !IsNotFoundError(err) {
		t.Fatalf("Tip: got %v, want ErrNotFound", err)
	}

	first := testBlock(3)
	second := testBlock(4)
	for _, block := range []*util.Block{first, second} {
		if err := store.StoreBlock(block); err != nil {
			t.Fatalf("StoreBlock unexpectedly failed: %s", err)
		}
		if err := store.SetTip(block.Hash()); err != nil {
			t.Fatalf("SetTip unexpectedly failed: %s", err)
		}
	}

	tip, err := store.Tip()
	if err != nil {
		t.Fatalf("Tip unexpectedly failed: %s", err)
	}
	if !tip.IsEqual(second.Hash()) {
		t.Fatalf("Tip: got %s, want %s", tip, second.Hash())
	}
}
