package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"
)

var serveCommand = cli.Command{
	Name:  "serve",
	Usage: "mint a bearer token, or check one passed with --verify, signed with --token-secret",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "token-secret", Usage: "HMAC secret for bearer tokens (required)"},
		cli.StringFlag{Name: "subject", Value: "operator", Usage: "token subject"},
		cli.DurationFlag{Name: "ttl", Value: time.Hour, Usage: "token lifetime"},
		cli.StringFlag{Name: "verify", Usage: "verify an existing token instead of minting one"},
	},
	Action: runServe,
}

func runServe(c *cli.Context) error {
	secret := c.String("token-secret")
	if secret == "" {
		return errors.New("rxctl serve: --token-secret is required")
	}
	auth := newBearerAuth(secret)

	if tok := c.String("verify"); tok != "" {
		subject, err := auth.verify(tok)
		if err != nil {
			return fmt.Errorf("token rejected: %w", err)
		}
		fmt.Printf("token valid for subject %q\n", subject)
		return nil
	}

	tok, err := auth.issue(c.String("subject"), c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
