package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var (
	monitoredAddressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "the monitored address",
	}
	monitoredAssetFlag = cli.StringFlag{
		Name:  "asset",
		Usage: "the monitored asset",
	}
)

var monitoring = cli.Command{
	Name:  "monitoring",
	Usage: "manage the addresses whose incoming payments settle deposits",
	Subcommands: []*cli.Command{
		{
			Name:  "start",
			Usage: "start monitoring an asset received by an address",
			Flags: []cli.Flag{
				&monitoredAddressFlag,
				&cli.StringFlag{
					Name:     "asset",
					Usage:    "the monitored asset",
					Required: true,
				},
				&cli.StringFlag{Name: "min-amount", Usage: "the min accepted amount"},
				&cli.StringFlag{Name: "max-amount", Usage: "the max accepted amount"},
				&cli.StringFlag{Name: "memo", Usage: "the required memo"},
			},
			Action: startMonitoringAction,
		},
		{
			Name:   "list",
			Usage:  "list the monitoring configs",
			Flags:  []cli.Flag{&monitoredAddressFlag, &monitoredAssetFlag},
			Action: listMonitoringAction,
		},
		{
			Name:   "stop",
			Usage:  "stop monitoring an asset received by an address",
			Flags:  []cli.Flag{&monitoredAddressFlag, &monitoredAssetFlag},
			Action: stopMonitoringAction,
		},
	},
}

var monitor = cli.Command{
	Name:   "monitor",
	Usage:  "show deposits, transactions, balances and realtime channel status",
	Action: monitorAction,
}

func startMonitoringAction(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"address": ctx.String("address"),
		"asset":   ctx.String("asset"),
		"memo":    ctx.String("memo"),
	}
	if minAmount := ctx.String("min-amount"); minAmount != "" {
		body["minAmount"] = minAmount
	}
	if maxAmount := ctx.String("max-amount"); maxAmount != "" {
		body["maxAmount"] = maxAmount
	}

	resp, err := client.do(http.MethodPost, "/deposit/monitor", nil, body)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func listMonitoringAction(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	query := queryOf(map[string]string{
		"address": ctx.String("address"),
		"asset":   ctx.String("asset"),
	})
	resp, err := client.do(http.MethodGet, "/deposit/monitor", query, nil)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func stopMonitoringAction(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	address := ctx.String("address")
	if address == "" {
		address = client.address
	}
	query := queryOf(map[string]string{
		"address": address,
		"asset":   ctx.String("asset"),
	})
	if _, err := client.do(http.MethodDelete, "/deposit/monitor", query, nil); err != nil {
		return err
	}
	printRespJSON(nil)
	return nil
}

func monitorAction(_ *cli.Context) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	resp, err := client.do(http.MethodGet, "/monitor", nil, nil)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}
