package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	methodCommit        = "commitSettlement"
	methodGetSettlement = "getSettlement"

	// EventSettlementCommitted is emitted once per successful commit.
	EventSettlementCommitted = "SettlementCommitted"
)

// SettlementLedgerABI is the subset of the contract interface used here.
const SettlementLedgerABI = `[
	{
		"type": "function",
		"name": "commitSettlement",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "groupId", "type": "bytes32"},
			{"name": "settlementHash", "type": "bytes32"},
			{"name": "currency", "type": "string"},
			{"name": "totalCents", "type": "uint256"},
			{"name": "participants", "type": "address[]"}
		],
		"outputs": [
			{"name": "settlementId", "type": "bytes32"}
		]
	},
	{
		"type": "function",
		"name": "getSettlement",
		"stateMutability": "view",
		"inputs": [
			{"name": "settlementId", "type": "bytes32"}
		],
		"outputs": [
			{"name": "currency", "type": "string"},
			{"name": "settlementHash", "type": "bytes32"},
			{"name": "totalCents", "type": "uint256"},
			{"name": "participants", "type": "address[]"},
			{"name": "committedBy", "type": "address"}
		]
	},
	{
		"type": "event",
		"name": "SettlementCommitted",
		"anonymous": false,
		"inputs": [
			{"name": "settlementId", "type": "bytes32", "indexed": true},
			{"name": "groupId", "type": "bytes32", "indexed": true},
			{"name": "committedBy", "type": "address", "indexed": true},
			{"name": "settlementHash", "type": "bytes32", "indexed": false}
		]
	}
]`

// parsedABI is parsed once; the definition is a constant so failure is a
// programming error.
var parsedABI = mustParseABI(SettlementLedgerABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("ledger: invalid contract ABI: " + err.Error())
	}
	return parsed
}

// ABI returns the parsed contract interface.
func ABI() abi.ABI {
	return parsedABI
}
