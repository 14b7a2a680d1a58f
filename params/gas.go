package params

// Gas cost constants consumed by the transaction runner's intrinsic-gas
// computation and by the interpreter's opcode gas table. Values and names
// are grounded on the teacher's params/protocol_params.go.
const (
	TxGas                   uint64 = 21000 // Base gas for a non-contract-creation transaction.
	TxGasContractCreation   uint64 = 53000 // Base gas for a contract-creation transaction.
	TxDataZeroGas           uint64 = 4     // Per zero byte of transaction data.
	TxDataNonZeroGasFrontier uint64 = 68   // Per non-zero byte, pre access-lists amendment.
	TxDataNonZeroGasEIP2028 uint64 = 16    // Per non-zero byte, post access-lists amendment.
	TxAccessListAddressGas  uint64 = 2400  // Per address in an access list.
	TxAccessListStorageKeyGas uint64 = 1900 // Per storage key in an access list.
	InitCodeWordGas         uint64 = 2     // Per 32-byte word of contract-creation init code.

	RefundQuotient         uint64 = 2 // Pre refund-quotient-v2 amendment: gasUsed/2 cap.
	RefundQuotientV2       uint64 = 5 // Post refund-quotient-v2 amendment: gasUsed/5 cap.

	MaxInitCodeSize = 2 * 24576  // Cap on contract-creation init code size.
	MaxCodeSize     = 24576      // Cap on deployed contract code size.
	CreateDataGas   uint64 = 200 // Per byte of code stored after a successful create.

	CallCreateDepth uint64 = 1024 // Maximum call/create nesting depth.

	WarmStorageReadCostEIP2929   uint64 = 100   // Cost of a warm storage slot access.
	ColdSloadCostEIP2929         uint64 = 2100  // Cost of a cold storage slot access.
	ColdAccountAccessCostEIP2929 uint64 = 2600  // Cost of a cold address access.
	SstoreSetGasEIP2200          uint64 = 20000 // Cost of SSTORE setting a zero slot to non-zero.
	SstoreResetGasEIP2200        uint64 = 5000  // Cost of SSTORE setting a non-zero slot to a different non-zero value.
	SstoreClearRefundEIP3529     uint64 = 4800  // Refund for SSTORE clearing a non-zero slot to zero.

	GasLimitBoundDivisor uint64 = 1024               // Bound divisor used in gas-limit adjustment validation.
	MinGasLimit          uint64 = 5000                // Minimum the block gas limit may ever be.
	MaxGasLimit          uint64 = 0x7fffffffffffffff  // Maximum the block gas limit (2^63-1).

	ElasticityMultiplier uint64 = 2   // Max block-to-block gas-limit growth target used by base-fee derivation.
	BaseFeeChangeDenominator uint64 = 8 // Bounds the base-fee's per-block rate of change.

	GenesisDifficulty uint64 = 131072 // Placeholder genesis difficulty for rule sets that still carry one.
)
