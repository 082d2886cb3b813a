package main

import (
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var deposit = cli.Command{
	Name:  "deposit",
	Usage: "manage deposit requests",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "open a new deposit request",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "asset",
					Usage:    "the asset to deposit: XLM, USDC or USDT",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "amount",
					Usage: "the expected amount, if omitted any amount is accepted",
				},
				&cli.StringFlag{
					Name:  "memo",
					Usage: "the text memo identifying the payment",
				},
				&cli.StringFlag{
					Name:  "custom-address",
					Usage: "the address receiving the deposit, defaults to the requester's",
				},
			},
			Action: createDepositAction,
		},
		{
			Name:  "list",
			Usage: "list the deposit requests, most recent first",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "status",
					Usage: "filter by status: pending, completed, failed or expired",
				},
			},
			Action: listDepositsAction,
		},
		{
			Name:      "get",
			Usage:     "get a deposit request",
			ArgsUsage: "<id>",
			Action:    getDepositAction,
		},
		{
			Name:      "update",
			Usage:     "update status, transaction hash or confirmation time of a deposit",
			ArgsUsage: "<id>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "status", Usage: "the new status"},
				&cli.StringFlag{Name: "tx-hash", Usage: "the hash of the payment"},
				&cli.TimestampFlag{
					Name:   "confirmed-at",
					Usage:  "the confirmation time in RFC3339 format",
					Layout: "2006-01-02T15:04:05Z07:00",
				},
			},
			Action: updateDepositAction,
		},
		{
			Name:      "delete",
			Usage:     "delete a deposit request",
			ArgsUsage: "<id>",
			Action:    deleteDepositAction,
		},
	},
}

func createDepositAction(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"asset":         ctx.String("asset"),
		"memo":          ctx.String("memo"),
		"customAddress": ctx.String("custom-address"),
	}
	if amount := ctx.String("amount"); amount != "" {
		body["amount"] = amount
	}

	resp, err := client.do(http.MethodPost, "/deposit", nil, body)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func listDepositsAction(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	query := queryOf(map[string]string{"status": ctx.String("status")})
	resp, err := client.do(http.MethodGet, "/deposit", query, nil)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func getDepositAction(ctx *cli.Context) error {
	id, err := depositID(ctx, "get")
	if err != nil {
		return err
	}
	client, err := getClient()
	if err != nil {
		return err
	}

	resp, err := client.do(http.MethodGet, "/deposit/"+id, nil, nil)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func updateDepositAction(ctx *cli.Context) error {
	id, err := depositID(ctx, "update")
	if err != nil {
		return err
	}
	client, err := getClient()
	if err != nil {
		return err
	}

	body := map[string]interface{}{}
	if status := ctx.String("status"); status != "" {
		body["status"] = status
	}
	if hash := ctx.String("tx-hash"); hash != "" {
		body["transactionHash"] = hash
	}
	if confirmedAt := ctx.Timestamp("confirmed-at"); confirmedAt != nil {
		body["confirmedAt"] = confirmedAt
	}
	if len(body) <= 0 {
		return &invalidUsageError{ctx, "update"}
	}

	resp, err := client.do(http.MethodPut, "/deposit/"+id, nil, body)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func deleteDepositAction(ctx *cli.Context) error {
	id, err := depositID(ctx, "delete")
	if err != nil {
		return err
	}
	client, err := getClient()
	if err != nil {
		return err
	}

	if _, err := client.do(http.MethodDelete, "/deposit/"+id, nil, nil); err != nil {
		return err
	}
	printRespJSON(nil)
	return nil
}

func depositID(ctx *cli.Context, command string) (string, error) {
	if ctx.NArg() < 1 {
		return "", &invalidUsageError{ctx, command}
	}
	return url.PathEscape(ctx.Args().First()), nil
}
