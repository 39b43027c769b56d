package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/mmynk/splitledger/internal/commitment"
	"github.com/mmynk/splitledger/internal/settlement"
)

var outFlag = cli.StringFlag{
	Name:  "out",
	Usage: "write the canonical document to this file",
}

var BuildCmd = cli.Command{
	Action: doBuild,
	Name:   "build",
	Usage:  "build the canonical settlement document of a group and print its hash",
	Flags: []cli.Flag{
		&groupFlag,
		&outFlag,
	},
}

var HashCmd = cli.Command{
	Action:    doHash,
	Name:      "hash",
	Usage:     "check a downloaded settlement document and print its hash",
	ArgsUsage: "<document file>",
}

func doBuild(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	group, err := store.GetGroup(c.Context, c.String(groupFlag.Name))
	if err != nil {
		return err
	}

	result, err := settlement.Build(*group)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if out := c.String(outFlag.Name); out != "" {
		if err := os.WriteFile(out, result.JSON(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintf(w, "document:     %s\n", out)
	} else {
		fmt.Fprintf(w, "%s\n", result.Canonical)
	}

	fmt.Fprintf(w, "hash:         %s\n", result.Hash.Hex())
	fmt.Fprintf(w, "group digest: %s\n", result.GroupDigest().Hex())
	fmt.Fprintf(w, "total cents:  %d\n", result.TotalCents)
	fmt.Fprintf(w, "transfers:    %d\n", len(result.Document.Transfers))
	for _, m := range settlement.MissingWallets(*group) {
		fmt.Fprintf(w, "no wallet:    %s (%s)\n", m.Name, m.ID)
	}
	if result.Empty() {
		fmt.Fprintln(w, "nothing to settle")
	}
	return nil
}

func doHash(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("missing document file parameter")
	}
	data, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return err
	}

	doc, hash, err := hashDocument(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "group: %s (%s)\n", doc.Group.Name, doc.Group.ID)
	fmt.Fprintf(c.App.Writer, "hash:  %s\n", hash.Hex())
	return nil
}

// hashDocument validates a document file and hashes its canonical bytes.
// One trailing newline, as added by editors, is ignored.
func hashDocument(data []byte) (settlement.Document, common.Hash, error) {
	data = bytes.TrimSuffix(data, []byte("\n"))
	doc, err := settlement.DecodeDocument(data)
	if err != nil {
		return settlement.Document{}, common.Hash{}, err
	}
	return doc, commitment.HashCanonical(data), nil
}
