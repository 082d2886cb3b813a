package main

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

var transaction = cli.Command{
	Name:  "transaction",
	Usage: "submit and track signed transactions",
	Subcommands: []*cli.Command{
		{
			Name:  "submit",
			Usage: "submit a signed transaction envelope to the network",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "envelope",
					Usage: "the base64 signed transaction envelope",
				},
				&cli.PathFlag{
					Name:  "envelope-file",
					Usage: "the file containing the signed transaction envelope",
				},
				&cli.StringFlag{
					Name:  "type",
					Usage: "the type of transaction: deposit or withdraw",
					Value: "deposit",
				},
				&cli.StringFlag{
					Name:     "amount",
					Usage:    "the amount transferred",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "asset",
					Usage:    "the asset transferred",
					Required: true,
				},
			},
			Action: submitTransactionAction,
		},
		{
			Name:  "list",
			Usage: "list the submitted transactions",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "status",
					Usage: "filter by status: pending, processing, confirmed or failed",
				},
			},
			Action: listTransactionsAction,
		},
	},
}

func submitTransactionAction(ctx *cli.Context) error {
	envelope, err := readEnvelope(ctx)
	if err != nil {
		return err
	}
	client, err := getClient()
	if err != nil {
		return err
	}

	resp, err := client.do(http.MethodPost, "/transactions", nil, map[string]string{
		"envelope": envelope,
		"type":     ctx.String("type"),
		"amount":   ctx.String("amount"),
		"asset":    ctx.String("asset"),
	})
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func listTransactionsAction(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	query := queryOf(map[string]string{"status": ctx.String("status")})
	resp, err := client.do(http.MethodGet, "/transactions", query, nil)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func readEnvelope(ctx *cli.Context) (string, error) {
	envelope := ctx.String("envelope")
	if path := ctx.Path("envelope-file"); path != "" {
		if envelope != "" {
			return "", errors.New("envelope and envelope-file are mutually exclusive")
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		envelope = string(buf)
	}
	envelope = strings.TrimSpace(envelope)
	if envelope == "" {
		return "", errors.New("missing signed transaction envelope")
	}
	return envelope, nil
}
