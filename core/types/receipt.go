package types

import "github.com/vmchain/execengine/common"

// ReceiptStatus mirrors the single status bit named in spec §3.
type ReceiptStatus uint8

const (
	ReceiptStatusFailed ReceiptStatus = 0
	ReceiptStatusSuccessful ReceiptStatus = 1
)

// Receipt is the per-transaction outcome record of spec §3: status,
// monotonically non-decreasing cumulative gas used, a logs bloom, and the
// transaction's logs.
type Receipt struct {
	Status            ReceiptStatus
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []*Log

	// Indexing metadata. The transaction runner sets TxHash,
	// ContractAddress and GasUsed; the block runner and builder set
	// BlockNumber and TransactionIndex. BlockHash is not filled in.
	TxHash          common.Hash
	ContractAddress *common.Address
	GasUsed         uint64
	BlockHash       common.Hash
	BlockNumber     uint64
	TransactionIndex uint
}

// NewReceipt builds a receipt from an execution outcome, deriving its
// bloom filter from the supplied logs.
func NewReceipt(status ReceiptStatus, cumulativeGasUsed uint64, logs []*Log) *Receipt {
	return &Receipt{
		Status:            status,
		CumulativeGasUsed: cumulativeGasUsed,
		Bloom:             LogsBloom(logs),
		Logs:              logs,
	}
}
