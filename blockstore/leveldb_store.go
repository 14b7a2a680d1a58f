package blockstore

import (
	"encoding/binary"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/golang/snappy"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/log"
)

// Key prefixes, matching the teacher's rawdb convention of a short fixed
// prefix plus a variable-length suffix so block/header/head lookups share
// one keyspace without colliding.
var (
	blockPrefix        = []byte("b") // blockPrefix + hash -> snappy(mus(Block))
	numberToHashPrefix  = []byte("n") // numberToHashPrefix + num -> hash
	headKey             = []byte("head")
)

// headerCacheSize bounds the in-memory LRU of decoded blocks kept
// alongside the LevelDB handle, avoiding a decode+decompress round trip
// for the blockchain driver's common case of re-reading the block it
// just processed.
const headerCacheSize = 256

// LevelDBStore is the durable Store implementation of spec §6, grounded
// on the teacher's ethdb/leveldb.Database: one on-disk LevelDB handle,
// snappy-compressed payloads (the teacher's core/rawdb freezer convention
// for large immutable blobs), and an LRU decode cache in front of it.
type LevelDBStore struct {
	db    *leveldb.DB
	cache *lru.Cache[common.Hash, *types.Block]
	log   log.Logger
}

// OpenLevelDBStore opens (or creates) a LevelDB database at path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: 64,
		BlockCacheCapacity:     8 * opt.MiB,
		WriteBuffer:            4 * opt.MiB,
	})
	if err != nil {
		return nil, fmt.Errorf("blockstore: open leveldb: %w", err)
	}
	cache, _ := lru.New[common.Hash, *types.Block](headerCacheSize)
	return &LevelDBStore{db: db, cache: cache, log: log.New("component", "blockstore")}, nil
}

func (s *LevelDBStore) Close() error { return s.db.Close() }

func numberKey(number uint64) []byte {
	key := make([]byte, len(numberToHashPrefix)+8)
	copy(key, numberToHashPrefix)
	binary.BigEndian.PutUint64(key[len(numberToHashPrefix):], number)
	return key
}

func hashKey(hash common.Hash) []byte {
	key := make([]byte, 0, len(blockPrefix)+len(hash))
	key = append(key, blockPrefix...)
	key = append(key, hash.Bytes()...)
	return key
}

func (s *LevelDBStore) GetBlockByHash(hash common.Hash) (*types.Block, error) {
	if b, ok := s.cache.Get(hash); ok {
		return b, nil
	}
	compressed, err := s.db.Get(hashKey(hash), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("blockstore: decompress block %s: %w", hash, err)
	}
	block, _, err := UnmarshalBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("blockstore: decode block %s: %w", hash, err)
	}
	s.cache.Add(hash, block)
	return block, nil
}

func (s *LevelDBStore) GetBlockByNumber(number uint64) (*types.Block, error) {
	hashBytes, err := s.db.Get(numberKey(number), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetBlockByHash(common.BytesToHash(hashBytes))
}

func (s *LevelDBStore) PutBlock(block *types.Block) error {
	raw := make([]byte, SizeBlock(block))
	MarshalBlock(block, raw)
	compressed := snappy.Encode(nil, raw)

	hash := blockKeyFor(block)
	batch := new(leveldb.Batch)
	batch.Put(hashKey(hash), compressed)
	batch.Put(numberKey(block.NumberU64()), hash.Bytes())
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("blockstore: write block %s: %w", hash, err)
	}
	s.cache.Add(hash, block)
	s.log.Debug("stored block", "number", block.NumberU64(), "hash", hash, "rawSize", len(raw), "compressedSize", len(compressed))
	return nil
}

func (s *LevelDBStore) GetCanonicalHead() (uint64, error) {
	raw, err := s.db.Get(headKey, nil)
	if err == leveldb.ErrNotFound {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (s *LevelDBStore) SetCanonicalHead(number uint64) error {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, number)
	return s.db.Put(headKey, raw, nil)
}
