package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mmynk/splitledger/internal/auth"
)

var (
	operatorFlag = cli.StringFlag{
		Name:     "operator",
		Usage:    "operator name carried in the token",
		Required: true,
	}
	secretFlag = cli.StringFlag{
		Name:     "secret",
		Usage:    "signing secret shared with the server",
		EnvVars:  []string{"JWT_SECRET"},
		Required: true,
	}
	ttlFlag = cli.DurationFlag{
		Name:  "ttl",
		Usage: "how long the token stays valid",
		Value: 24 * time.Hour,
	}
)

var TokenCmd = cli.Command{
	Action: doToken,
	Name:   "token",
	Usage:  "issue an operator token for mutating RPCs",
	Flags: []cli.Flag{
		&operatorFlag,
		&secretFlag,
		&ttlFlag,
	},
}

func doToken(c *cli.Context) error {
	manager := auth.NewJWTManager(c.String(secretFlag.Name), c.Duration(ttlFlag.Name))
	token, err := manager.Generate(c.String(operatorFlag.Name))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}
