package ledger

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventDecoder decodes a log into its event name and arguments. ok is false
// for logs the decoder does not recognise.
type EventDecoder interface {
	DecodeEvent(log *types.Log) (name string, args map[string]any, ok bool)
}

// ABIDecoder decodes SettlementLedger events with the contract ABI.
type ABIDecoder struct {
	abi abi.ABI
}

// NewABIDecoder returns a decoder for the SettlementLedger ABI.
func NewABIDecoder() *ABIDecoder {
	return &ABIDecoder{abi: parsedABI}
}

// DecodeEvent implements EventDecoder.
func (d *ABIDecoder) DecodeEvent(log *types.Log) (string, map[string]any, bool) {
	if log == nil || len(log.Topics) == 0 {
		return "", nil, false
	}
	event, err := d.abi.EventByID(log.Topics[0])
	if err != nil {
		return "", nil, false
	}

	args := make(map[string]any, len(event.Inputs))
	if len(log.Data) > 0 {
		if err := d.abi.UnpackIntoMap(args, event.Name, log.Data); err != nil {
			return "", nil, false
		}
	}

	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
		return "", nil, false
	}
	return event.Name, args, true
}

// SettlementIDFromReceipt returns the settlementId of the first
// SettlementCommitted log in the receipt. Logs that do not decode are skipped.
func SettlementIDFromReceipt(receipt *types.Receipt, decoder EventDecoder) (common.Hash, error) {
	if receipt == nil {
		return common.Hash{}, ErrNoSettlementEvent
	}
	for _, log := range receipt.Logs {
		name, args, ok := decoder.DecodeEvent(log)
		if !ok || name != EventSettlementCommitted {
			continue
		}
		id, ok := asHash(args["settlementId"])
		if ok && id != (common.Hash{}) {
			return id, nil
		}
	}
	return common.Hash{}, ErrNoSettlementEvent
}

func asHash(v any) (common.Hash, bool) {
	switch h := v.(type) {
	case [32]byte:
		return common.Hash(h), true
	case common.Hash:
		return h, true
	case []byte:
		if len(h) == common.HashLength {
			return common.BytesToHash(h), true
		}
	}
	return common.Hash{}, false
}
