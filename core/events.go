package core

import "github.com/vmchain/execengine/core/types"

// EventHooks are the engine shell's fire-and-forget observer callbacks
// (spec §4.8): beforeTx/afterTx/beforeBlock/afterBlock, plus step for
// per-opcode tracing when the debug flag is on. Any hook left nil is
// simply skipped. Grounded on the teacher's core/vm/logger.go tracer
// hook contract: observability only, never able to influence execution.
type EventHooks struct {
	BeforeTx    func(tx *types.Transaction) error
	AfterTx     func(tx *types.Transaction, receipt *types.Receipt, result *ExecutionResult) error
	BeforeBlock func(block *types.Block) error
	AfterBlock  func(block *types.Block, result *BlockResult) error
	Step        func(pc uint64, op byte, gasLeft uint64) error
}

// EventWarnings accumulates hook errors encountered during one operation.
// These never abort the enclosing scope. The engine shell and the
// blockchain driver log them as a warning with their count; they are not
// returned to the caller as part of the result.
type EventWarnings []error

func (w EventWarnings) HasAny() bool { return len(w) > 0 }

func (h *EventHooks) fireBeforeTx(tx *types.Transaction, warnings *EventWarnings) {
	if h == nil || h.BeforeTx == nil {
		return
	}
	if err := h.BeforeTx(tx); err != nil {
		*warnings = append(*warnings, err)
	}
}

func (h *EventHooks) fireAfterTx(tx *types.Transaction, receipt *types.Receipt, result *ExecutionResult, warnings *EventWarnings) {
	if h == nil || h.AfterTx == nil {
		return
	}
	if err := h.AfterTx(tx, receipt, result); err != nil {
		*warnings = append(*warnings, err)
	}
}

func (h *EventHooks) fireBeforeBlock(block *types.Block, warnings *EventWarnings) {
	if h == nil || h.BeforeBlock == nil {
		return
	}
	if err := h.BeforeBlock(block); err != nil {
		*warnings = append(*warnings, err)
	}
}

func (h *EventHooks) fireAfterBlock(block *types.Block, result *BlockResult, warnings *EventWarnings) {
	if h == nil || h.AfterBlock == nil {
		return
	}
	if err := h.AfterBlock(block, result); err != nil {
		*warnings = append(*warnings, err)
	}
}
