package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/mmynk/splitledger/internal/finalize"
	"github.com/mmynk/splitledger/internal/ledger"
)

var (
	privateKeyFlag = cli.StringFlag{
		Name:    "private-key",
		Usage:   "hex private key of the committing wallet",
		EnvVars: []string{"PRIVATE_KEY"},
	}
	timeoutFlag = cli.DurationFlag{
		Name:  "timeout",
		Usage: "how long to wait for the transaction receipt",
		Value: 2 * time.Minute,
	}
	pollIntervalFlag = cli.DurationFlag{
		Name:  "poll-interval",
		Usage: "how often to ask for the receipt",
		Value: ledger.DefaultPollInterval,
	}
)

var CommitCmd = cli.Command{
	Action: doCommit,
	Name:   "commit",
	Usage:  "commit a group's settlement hash to the ledger contract",
	Flags: []cli.Flag{
		&groupFlag,
		&privateKeyFlag,
		&timeoutFlag,
		&pollIntervalFlag,
	},
}

func doCommit(c *cli.Context) error {
	cfg, err := ledgerConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	group, err := store.GetGroup(c.Context, c.String(groupFlag.Name))
	if err != nil {
		return err
	}

	ctx, cancel := interruptible(c)
	defer cancel()

	client, err := dialChain(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.RPCURL, err)
	}
	defer client.Close()

	ledgerClient := ledger.NewClient(client, cfg, ledger.WithPollInterval(c.Duration(pollIntervalFlag.Name)))
	if err := ledgerClient.CheckChain(ctx); err != nil {
		return err
	}

	signer, err := newKeySigner(client, c.String(privateKeyFlag.Name), cfg.ChainID)
	if err != nil {
		return err
	}

	finalizer := finalize.New(ledgerClient, store, nil)
	prepared, err := finalizer.Prepare(*group)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, m := range prepared.MissingWallets {
		fmt.Fprintf(w, "no wallet:     %s (%s)\n", m.Name, m.ID)
	}
	fmt.Fprintf(w, "hash:          %s\n", prepared.Result.Hash.Hex())

	ctx, cancelWait := context.WithTimeout(ctx, c.Duration(timeoutFlag.Name))
	defer cancelWait()

	commit, err := finalizer.Submit(ctx, prepared, signer.Submit, signer.Address())
	fmt.Fprintf(w, "status:        %s\n", commit.Status)
	if commit.TxHash != (common.Hash{}) {
		fmt.Fprintf(w, "tx:            %s\n", commit.TxURL)
	}
	if commit.SettlementID != (common.Hash{}) {
		fmt.Fprintf(w, "settlement id: %s\n", commit.SettlementID.Hex())
	}
	return err
}
