package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Polygon Amoy testnet defaults.
const (
	DefaultChainID     int64 = 80002
	DefaultExplorerURL       = "https://amoy.polygonscan.com"
	DefaultRPCURL            = "https://rpc-amoy.polygon.technology"
)

// ErrNoLedgerAddress is returned when no contract address is configured.
var ErrNoLedgerAddress = errors.New("ledger address not configured")

// Config describes where the ledger lives. It is built once at startup and
// passed to whatever needs it.
type Config struct {
	LedgerAddress   common.Address
	ChainID         int64
	ExplorerBaseURL string
	RPCURL          string
}

// DefaultConfig returns the Amoy configuration without a contract address.
func DefaultConfig() Config {
	return Config{
		ChainID:         DefaultChainID,
		ExplorerBaseURL: DefaultExplorerURL,
		RPCURL:          DefaultRPCURL,
	}
}

// Validate reports whether the configuration can be used to talk to a ledger.
func (c Config) Validate() error {
	if c.LedgerAddress == (common.Address{}) {
		return ErrNoLedgerAddress
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("invalid chain id %d", c.ChainID)
	}
	return nil
}

// TxURL links to a transaction on the block explorer.
func (c Config) TxURL(txHash common.Hash) string {
	base := c.ExplorerBaseURL
	if base == "" {
		base = DefaultExplorerURL
	}
	return strings.TrimRight(base, "/") + "/tx/" + txHash.Hex()
}

// ParseAddress parses a contract or wallet address given as 0x-prefixed hex.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
