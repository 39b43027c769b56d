package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/settlement"
)

// DefaultPollInterval is how often WaitForReceipt asks for a receipt.
const DefaultPollInterval = 2 * time.Second

// SubmitFunc signs and broadcasts a transaction calling the contract at to
// with calldata, returning the transaction hash. It is supplied by the wallet
// collaborator.
type SubmitFunc func(ctx context.Context, to common.Address, calldata []byte) (common.Hash, error)

// Backend is the read side of a chain connection. *ethclient.Client
// satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// CommitArgs are the commitSettlement call arguments.
type CommitArgs struct {
	GroupDigest    common.Hash
	SettlementHash common.Hash
	Currency       string
	TotalCents     int64
	Participants   []common.Address
}

// NewCommitArgs takes the call arguments from a built settlement.
func NewCommitArgs(result *settlement.Result) CommitArgs {
	participants := make([]common.Address, len(result.ParticipantAddresses))
	for i, addr := range result.ParticipantAddresses {
		participants[i] = common.HexToAddress(addr)
	}
	return CommitArgs{
		GroupDigest:    result.GroupDigest(),
		SettlementHash: result.Hash,
		Currency:       result.Document.Currency,
		TotalCents:     result.TotalCents,
		Participants:   participants,
	}
}

// Client reads from and submits to the SettlementLedger contract.
type Client struct {
	backend      Backend
	cfg          Config
	decoder      EventDecoder
	pollInterval time.Duration

	mu       sync.RWMutex
	chainErr error // set by CheckChain on a chain mismatch
}

// Option configures a Client.
type Option func(*Client)

// WithPollInterval sets the receipt polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithEventDecoder replaces the ABI event decoder.
func WithEventDecoder(d EventDecoder) Option {
	return func(c *Client) {
		if d != nil {
			c.decoder = d
		}
	}
}

// NewClient creates a ledger client. backend may be nil when only Commit is
// used.
func NewClient(backend Backend, cfg Config, opts ...Option) *Client {
	c := &Client{
		backend:      backend,
		cfg:          cfg,
		decoder:      NewABIDecoder(),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the ledger configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// PackCommit encodes commitSettlement calldata.
func PackCommit(args CommitArgs) ([]byte, error) {
	participants := args.Participants
	if participants == nil {
		participants = []common.Address{}
	}
	data, err := parsedABI.Pack(methodCommit,
		[32]byte(args.GroupDigest),
		[32]byte(args.SettlementHash),
		args.Currency,
		big.NewInt(args.TotalCents),
		participants,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", methodCommit, err)
	}
	return data, nil
}

// Commit packs the call and hands it to submit. A failure leaves nothing
// behind; the caller may call Commit again with the same arguments.
func (c *Client) Commit(ctx context.Context, submit SubmitFunc, args CommitArgs) (common.Hash, error) {
	if submit == nil {
		return common.Hash{}, &SubmissionError{Op: "submit", Err: errors.New("no wallet connected")}
	}
	if err := c.cfg.Validate(); err != nil {
		return common.Hash{}, &SubmissionError{Op: "config", Err: err}
	}

	data, err := PackCommit(args)
	if err != nil {
		return common.Hash{}, &SubmissionError{Op: "pack", Err: err}
	}

	txHash, err := submit(ctx, c.cfg.LedgerAddress, data)
	if err != nil {
		return common.Hash{}, &SubmissionError{Op: "submit", Err: err}
	}

	slog.Info("Settlement submitted",
		"tx_hash", txHash.Hex(),
		"tx_url", c.cfg.TxURL(txHash),
		"settlement_hash", args.SettlementHash.Hex(),
	)
	return txHash, nil
}

// CheckChain verifies the backend serves the configured chain. A mismatch is
// remembered and returned by every later read until a check passes.
func (c *Client) CheckChain(ctx context.Context) error {
	if c.backend == nil {
		return fmt.Errorf("%w: no backend", ErrUnavailable)
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var mismatch error
	if !id.IsInt64() || id.Int64() != c.cfg.ChainID {
		mismatch = fmt.Errorf("%w: want %d, got %s", ErrWrongChain, c.cfg.ChainID, id)
	}
	c.mu.Lock()
	c.chainErr = mismatch
	c.mu.Unlock()
	return mismatch
}

// ready reports why the client cannot read from the chain.
func (c *Client) ready() error {
	if c.backend == nil {
		return fmt.Errorf("%w: no backend", ErrUnavailable)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chainErr
}

// GetSettlement reads the commitment recorded under id. An id that was never
// committed yields a record whose Committed method reports false.
func (c *Client) GetSettlement(ctx context.Context, id common.Hash) (*models.CommitmentRecord, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	data, err := parsedABI.Pack(methodGetSettlement, [32]byte(id))
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", methodGetSettlement, err)
	}

	to := c.cfg.LedgerAddress
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return UnpackSettlement(id, out)
}

// UnpackSettlement decodes getSettlement return data.
func UnpackSettlement(id common.Hash, out []byte) (*models.CommitmentRecord, error) {
	values, err := parsedABI.Unpack(methodGetSettlement, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", methodGetSettlement, err)
	}
	if len(values) != 5 {
		return nil, fmt.Errorf("failed to unpack %s: got %d values", methodGetSettlement, len(values))
	}

	currency, ok1 := values[0].(string)
	hash, ok2 := values[1].([32]byte)
	total, ok3 := values[2].(*big.Int)
	participants, ok4 := values[3].([]common.Address)
	committedBy, ok5 := values[4].(common.Address)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil, fmt.Errorf("failed to unpack %s: unexpected value types", methodGetSettlement)
	}

	return &models.CommitmentRecord{
		SettlementID:   id,
		SettlementHash: common.Hash(hash),
		Currency:       currency,
		TotalCents:     total,
		Participants:   participants,
		CommittedBy:    committedBy,
	}, nil
}

// WaitForReceipt polls until the transaction is mined or ctx ends. A reverted
// transaction returns its receipt together with ErrReverted.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, &SubmissionError{Op: "receipt", Err: ErrReverted}
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			slog.Debug("Receipt not yet available", "tx_hash", txHash.Hex())
		default:
			slog.Warn("Receipt lookup failed", "tx_hash", txHash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, &SubmissionError{Op: "receipt", Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

// SettlementID waits for the transaction and extracts the settlement id from
// its receipt.
func (c *Client) SettlementID(ctx context.Context, txHash common.Hash) (common.Hash, error) {
	receipt, err := c.WaitForReceipt(ctx, txHash)
	if err != nil {
		return common.Hash{}, err
	}
	return SettlementIDFromReceipt(receipt, c.decoder)
}
