package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

// Run using
//  go run ./cmd/settlectl <command> <flags>

var (
	dbFlag = cli.StringFlag{
		Name:    "db",
		Usage:   "path of the SQLite database",
		EnvVars: []string{"DB_PATH"},
		Value:   "./data/splitledger.db",
	}
	rpcURLFlag = cli.StringFlag{
		Name:    "rpc-url",
		Usage:   "JSON-RPC endpoint of the chain",
		EnvVars: []string{"RPC_URL"},
		Value:   ledger.DefaultRPCURL,
	}
	chainIDFlag = cli.Int64Flag{
		Name:    "chain-id",
		Usage:   "chain the ledger contract lives on",
		EnvVars: []string{"CHAIN_ID"},
		Value:   ledger.DefaultChainID,
	}
	ledgerAddressFlag = cli.StringFlag{
		Name:    "ledger-address",
		Usage:   "address of the SettlementLedger contract",
		EnvVars: []string{"LEDGER_ADDRESS"},
	}
	explorerURLFlag = cli.StringFlag{
		Name:    "explorer-url",
		Usage:   "block explorer base URL for transaction links",
		EnvVars: []string{"EXPLORER_URL"},
		Value:   ledger.DefaultExplorerURL,
	}
	logLevelFlag = cli.StringFlag{
		Name:    "log-level",
		Usage:   "debug, info, warn or error",
		EnvVars: []string{"LOG_LEVEL"},
		Value:   "warn",
	}
	groupFlag = cli.StringFlag{
		Name:     "group",
		Usage:    "id of the group to settle",
		Required: true,
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "settlectl",
		Usage: "build, commit and verify group settlements",
		Flags: []cli.Flag{
			&dbFlag,
			&rpcURLFlag,
			&chainIDFlag,
			&ledgerAddressFlag,
			&explorerURLFlag,
			&logLevelFlag,
		},
		Before: func(c *cli.Context) error {
			logging.SetupWithLevel(logging.ParseLevel(c.String(logLevelFlag.Name)))
			return nil
		},
		Commands: []*cli.Command{
			&BuildCmd,
			&HashCmd,
			&VerifyCmd,
			&CommitCmd,
			&TokenCmd,
		},
	}
}

// chainBackend is what the verify and commit commands need from a chain
// connection. *ethclient.Client satisfies it.
type chainBackend interface {
	ledger.Backend
	txBackend
	Close()
}

// dialChain connects to the JSON-RPC endpoint at url.
var dialChain = func(ctx context.Context, url string) (chainBackend, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ledgerConfig builds the ledger configuration from the global flags.
func ledgerConfig(c *cli.Context) (ledger.Config, error) {
	cfg := ledger.DefaultConfig()
	cfg.RPCURL = c.String(rpcURLFlag.Name)
	cfg.ChainID = c.Int64(chainIDFlag.Name)
	cfg.ExplorerBaseURL = c.String(explorerURLFlag.Name)

	if v := c.String(ledgerAddressFlag.Name); v != "" {
		addr, err := ledger.ParseAddress(v)
		if err != nil {
			return cfg, fmt.Errorf("--%s: %w", ledgerAddressFlag.Name, err)
		}
		cfg.LedgerAddress = addr
	}
	return cfg, nil
}

func openStore(c *cli.Context) (*sqlite.SQLiteStore, error) {
	path := c.String(dbFlag.Name)
	store, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	slog.Debug("Storage opened", "database", path)
	return store, nil
}

// interruptible cancels the command context on Ctrl-C.
func interruptible(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt)
}

func parseHash(s string) (common.Hash, error) {
	raw, err := hexutil.Decode(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return common.Hash{}, err
	}
	if len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("want %d bytes, got %d", common.HashLength, len(raw))
	}
	return common.BytesToHash(raw), nil
}
