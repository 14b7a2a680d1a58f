package types

import (
	"math/big"

	"github.com/vmchain/execengine/common"
)

// Message is the internal, already-validated call/create descriptor of
// spec §3: everything the interpreter needs to execute a top-level or
// nested call, independent of the wire transaction format it came from.
type Message struct {
	From     common.Address
	To       *common.Address // nil ⇒ contract creation
	Nonce    uint64
	Value    *big.Int
	GasLimit uint64

	GasPrice  *big.Int
	GasFeeCap *big.Int
	GasTipCap *big.Int

	Data       []byte
	AccessList AccessList

	// SkipNonceChecks and SkipFromEOACheck mirror the teacher's escape
	// hatches for synthetic call-simulation messages. The transaction
	// runner sets SkipNonceChecks from its skipNonce argument and always
	// leaves SkipFromEOACheck false.
	SkipNonceChecks  bool
	SkipFromEOACheck bool
}

// ToMessage converts a signed Transaction into a Message, computing the
// effective gas price against the supplied base fee when the transaction
// is fee-market priced (spec §4.4 step 6).
func ToMessage(tx *Transaction, baseFee *big.Int) (*Message, error) {
	sender, err := tx.Sender()
	if err != nil {
		return nil, err
	}
	msg := &Message{
		From:       sender,
		To:         tx.To(),
		Nonce:      tx.Nonce(),
		Value:      tx.Value(),
		GasLimit:   tx.Gas(),
		Data:       tx.Data(),
		AccessList: tx.AccessList(),
		GasFeeCap:  tx.GasFeeCap(),
		GasTipCap:  tx.GasTipCap(),
		GasPrice:   tx.GasPrice(),
	}
	if baseFee != nil && tx.Kind() == FeeMarketTxKind {
		msg.GasPrice = new(big.Int).Add(msg.GasTipCap, baseFee)
		if msg.GasPrice.Cmp(msg.GasFeeCap) > 0 {
			msg.GasPrice = new(big.Int).Set(msg.GasFeeCap)
		}
	}
	return msg, nil
}
