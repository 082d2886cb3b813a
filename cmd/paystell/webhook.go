package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var webhook = cli.Command{
	Name:  "webhook",
	Usage: "manage the webhooks notified about deposit and transaction events",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "add a webhook registered for some event",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "endpoint",
					Usage:    "the endpoint where to notify the webhook",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "secret",
					Usage: "the eventual secret to authenticate requests",
				},
				&cli.StringFlag{
					Name:  "topic",
					Usage: "the event for which the webhook gets notified, ie. deposit.completed or *",
					Value: "*",
				},
			},
			Action: addWebhookAction,
		},
		{
			Name:  "list",
			Usage: "list the webhooks, optionally filtered by topic",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "topic",
					Usage: "the topic to filter hooks by",
				},
			},
			Action: listWebhooksAction,
		},
		{
			Name:      "remove",
			Usage:     "remove a webhook",
			ArgsUsage: "<id>",
			Action:    removeWebhookAction,
		},
	},
}

func addWebhookAction(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	resp, err := client.do(http.MethodPost, "/webhooks", nil, map[string]string{
		"topic":    ctx.String("topic"),
		"endpoint": ctx.String("endpoint"),
		"secret":   ctx.String("secret"),
	})
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	query := queryOf(map[string]string{"topic": ctx.String("topic")})
	resp, err := client.do(http.MethodGet, "/webhooks", query, nil)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func removeWebhookAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return &invalidUsageError{ctx, "remove"}
	}
	client, err := getClient()
	if err != nil {
		return err
	}

	id := ctx.Args().First()
	if _, err := client.do(
		http.MethodDelete, "/webhooks/"+url.PathEscape(id), nil, nil,
	); err != nil {
		return err
	}
	fmt.Println("removed webhook", id)
	return nil
}
