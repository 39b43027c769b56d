package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mmynk/splitledger/internal/finalize"
	"github.com/mmynk/splitledger/internal/ledger"
)

var (
	settlementIDFlag = cli.StringFlag{
		Name:  "settlement-id",
		Usage: "id the ledger assigned to the commitment",
	}
	txFlag = cli.StringFlag{
		Name:  "tx",
		Usage: "hash of the commit transaction, used when the settlement id is unknown",
	}
)

var VerifyCmd = cli.Command{
	Action: doVerify,
	Name:   "verify",
	Usage:  "recompute a group's settlement hash and compare it with the ledger",
	Flags: []cli.Flag{
		&groupFlag,
		&settlementIDFlag,
		&txFlag,
	},
}

func doVerify(c *cli.Context) error {
	id, tx := c.String(settlementIDFlag.Name), c.String(txFlag.Name)
	if (id == "") == (tx == "") {
		return fmt.Errorf("give exactly one of --%s and --%s", settlementIDFlag.Name, txFlag.Name)
	}

	cfg, err := ledgerConfig(c)
	if err != nil {
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

	finalizer := finalize.New(ledger.NewClient(client, cfg), store, nil)

	var proof *finalize.Proof
	if id != "" {
		hash, err := parseHash(id)
		if err != nil {
			return fmt.Errorf("--%s: %w", settlementIDFlag.Name, err)
		}
		proof, err = finalizer.Verify(ctx, *group, hash)
		if err != nil {
			return err
		}
	} else {
		hash, err := parseHash(tx)
		if err != nil {
			return fmt.Errorf("--%s: %w", txFlag.Name, err)
		}
		proof, err = finalizer.VerifyTx(ctx, *group, hash)
		if err != nil {
			return err
		}
	}

	w := c.App.Writer
	fmt.Fprintf(w, "outcome:       %s\n", proof.Outcome)
	fmt.Fprintf(w, "settlement id: %s\n", proof.Record.SettlementID.Hex())
	fmt.Fprintf(w, "computed:      %s\n", proof.Computed.Hex())
	if proof.Record.Committed() {
		fmt.Fprintf(w, "recorded:      %s\n", proof.Record.SettlementHash.Hex())
		fmt.Fprintf(w, "committed by:  %s\n", proof.Record.CommittedBy.Hex())
	}
	return proof.Outcome.Err()
}
