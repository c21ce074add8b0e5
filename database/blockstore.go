package database

import (
	"path/filepath"

	"github.com/emberchain/emberd/logger"
	"github.com/emberchain/emberd/util"
	"github.com/emberchain/emberd/util/chainhash"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
)

// ErrNotFound denotes that the requested entry does not exist in the store.
var ErrNotFound = errors.New("entry not found")

// IsNotFoundError checks whether an error is an ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

var (
	blockKeyPrefix = []byte("block/")
	tipKey         = []byte("tip")
)

// BlockStore is a persistent block repository backed by leveldb. Blocks are
// keyed by their identity hash, stored in their canonical serialized form,
// so a stored proof-of-stake block round-trips with its derived stake
// fields already materialized in the header. It also tracks the hash of
// the current chain tip.
type BlockStore struct {
	ldb *leveldb.DB
}

// Open opens the block store at the given data directory, creating it if
// it doesn't exist. If the underlying database is corrupted, recovery is
// attempted.
func Open(dataDir string) (*BlockStore, error) {
	dbPath := filepath.Join(dataDir, "blocks")

	ldb, err := leveldb.OpenFile(dbPath, Options())

	// If the database is corrupted, attempt to recover.
	if _, corrupted := err.(*ldberrors.ErrCorrupted); corrupted {
		log.Warnf("Block store corruption detected for path %s: %s",
			dbPath, err)
		ldb, err = leveldb.RecoverFile(dbPath, Options())
		if err != nil {
			return nil, errors.WithStack(err)
		}
		log.Warnf("Block store recovered from corruption for path %s",
			dbPath)
	}

	// If the database cannot be opened for any other reason, return the
	// error as-is.
	if err != nil {
		return nil, errors.WithStack(err)
	}

	log.Infof("Block store opened at %s", dbPath)
	return &BlockStore{ldb: ldb}, nil
}

// Close closes the underlying database.
func (s *BlockStore) Close() error {
	log.Infof("Block store closing")
	return errors.WithStack(s.ldb.Close())
}

// blockKey returns the database key for the given block hash.
func blockKey(hash *chainhash.Hash) []byte {
	return append(blockKeyPrefix, hash[:]...)
}

// StoreBlock stores the given block in its canonical serialized form,
// keyed by its identity hash. Storing a block that already exists is a
// no-op.
func (s *BlockStore) StoreBlock(block *util.Block) error {
	defer logger.LogAndMeasureExecutionTime(log, "BlockStore.StoreBlock")()

	hash := block.Hash()
	exists, err := s.HasBlock(hash)
	if err != nil {
		return err
	}
	if exists {
		log.Tracef("Block %s already stored", hash)
		return nil
	}

	blockBytes, err := block.Bytes()
	if err != nil {
		return err
	}
	err = s.ldb.Put(blockKey(hash), blockBytes, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	log.Debugf("Stored block %s (%d bytes)", hash, len(blockBytes))
	return nil
}

// FetchBlock returns the block with the given hash, deserialized from its
// stored form. It returns ErrNotFound when no such block is stored.
func (s *BlockStore) FetchBlock(hash *chainhash.Hash) (*util.Block, error) {
	blockBytes, err := s.ldb.Get(blockKey(hash), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "block %s", hash)
		}
		return nil, errors.WithStack(err)
	}

	block, err := util.NewBlockFromBytes(blockBytes)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// HasBlock returns whether a block with the given hash is stored.
func (s *BlockStore) HasBlock(hash *chainhash.Hash) (bool, error) {
	exists, err := s.ldb.Has(blockKey(hash), nil)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}

// DeleteBlock removes the block with the given hash from the store.
// Deleting a block that is not stored is a no-op.
func (s *BlockStore) DeleteBlock(hash *chainhash.Hash) error {
	err := s.ldb.Delete(blockKey(hash), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// SetTip records the given hash as the current chain tip.
func (s *BlockStore) SetTip(hash *chainhash.Hash) error {
	err := s.ldb.Put(tipKey, hash[:], nil)
	if err != nil {
		return errors.WithStack(err)
	}
	log.Debugf("Chain tip set to %s", hash)
	return nil
}

// Tip returns the hash recorded as the current chain tip. It returns
// ErrNotFound when no tip has been recorded yet.
func (s *BlockStore) Tip() (*chainhash.Hash, error) {
	tipBytes, err := s.ldb.Get(tipKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrap(ErrNotFound, "chain tip")
		}
		return nil, errors.WithStack(err)
	}
	return chainhash.NewHash(tipBytes)
}
