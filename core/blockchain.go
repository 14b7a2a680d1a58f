package core

import (
	"fmt"

	"github.com/vmchain/execengine/blockstore"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/log"
)

// InsertChainOptions bounds one call to InsertChain: MaxBlocks caps how
// many blocks are pulled from the store before stopping even if more are
// available, and StopSignal (if non-nil) is polled between blocks — the
// only cancellation point spec §5 grants the driver.
type InsertChainOptions struct {
	MaxBlocks  int // 0 means unbounded
	StopSignal <-chan struct{}
}

// InsertChainResult reports how far the driver got.
type InsertChainResult struct {
	BlocksProcessed int
	NewHead         uint64
	Results         []*BlockResult
}

// BlockChain is the blockchain driver of spec §4.6: it reads blocks from
// the block store in canonical order starting at head+1, feeds each to
// the block runner with header validation on, and advances the canonical
// pointer only on success. Grounded on the teacher's core/blockchain.go
// InsertChain, collapsed to linear-only insertion (no fork-choice/reorg
// handling) since the block store contract (spec §6) exposes only a
// single canonical head, not a block tree.
type BlockChain struct {
	store     blockstore.Store
	processor *StateProcessor
	hooks     *EventHooks

	busy bool
	log  log.Logger
}

// NewBlockChain wires a block store to a state processor. processor's
// StateDB must be the same store the caller intends transactions to
// mutate; the driver itself owns no state store reference beyond it.
func NewBlockChain(store blockstore.Store, processor *StateProcessor, hooks *EventHooks) *BlockChain {
	return &BlockChain{store: store, processor: processor, hooks: hooks, log: log.New("component", "blockchain")}
}

// InsertChain runs spec §4.6: pulls blocks starting at the canonical
// head's successor, running each through the block runner with
// validation on, advancing the canonical pointer after each success, and
// stopping on the first failure (reporting it) or once opts.MaxBlocks
// blocks have been processed. The driver is single-writer: a second call
// while one is already in flight fails with ErrEngineBusy (spec §5).
func (bc *BlockChain) InsertChain(opts InsertChainOptions) (*InsertChainResult, error) {
	if bc.busy {
		return nil, ErrEngineBusy
	}
	bc.busy = true
	defer func() { bc.busy = false }()

	head, err := bc.store.GetCanonicalHead()
	if err != nil && err != blockstore.ErrNotFound {
		return nil, err
	}
	next := head + 1
	if err == blockstore.ErrNotFound {
		next = 0 // an empty store starts from the genesis block itself
	}

	result := &InsertChainResult{NewHead: head}
	for opts.MaxBlocks == 0 || result.BlocksProcessed < opts.MaxBlocks {
		if opts.StopSignal != nil {
			select {
			case <-opts.StopSignal:
				return result, nil
			default:
			}
		}

		block, err := bc.store.GetBlockByNumber(next)
		if err == blockstore.ErrNotFound {
			break // caught up to the store's frontier
		}
		if err != nil {
			return result, err
		}

		var parent *types.Header
		if next > 0 {
			parentBlock, err := bc.store.GetBlockByNumber(next - 1)
			if err != nil {
				return result, fmt.Errorf("core: fetch parent of block %d: %w", next, err)
			}
			parent = parentBlock.Header
		}

		var warnings EventWarnings
		bc.hooks.fireBeforeBlock(block, &warnings)

		blockResult, err := bc.processor.RunBlock(block, parent, RunBlockOptions{})
		if err != nil {
			bc.log.Warn("block insertion failed", "number", next, "err", err)
			return result, err
		}
		bc.hooks.fireAfterBlock(block, blockResult, &warnings)
		if warnings.HasAny() {
			bc.log.Warn("event hook warnings during block insertion", "number", next, "count", len(warnings))
		}

		if err := bc.store.SetCanonicalHead(next); err != nil {
			return result, err
		}

		result.BlocksProcessed++
		result.NewHead = next
		result.Results = append(result.Results, blockResult)
		next++
	}
	return result, nil
}
