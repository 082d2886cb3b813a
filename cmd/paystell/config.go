package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"
)

var (
	serverFlag = cli.StringFlag{
		Name:  "server",
		Usage: "paystell daemon url",
		Value: "http://localhost:8080",
	}
	userIDFlag = cli.StringFlag{
		Name:  "user-id",
		Usage: "the identity forwarded to the daemon as requester",
	}
	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "the Stellar address of the requester",
	}
)

var config = cli.Command{
	Name:   "config",
	Usage:  "Print local configuration of the paystell CLI",
	Action: configAction,
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "set a <key> <value> in the local state",
			Action: configSetAction,
		},
		{
			Name:   "init",
			Usage:  "initialize the local state with flags",
			Action: configInitAction,
			Flags:  []cli.Flag{&serverFlag, &userIDFlag, &addressFlag},
		},
	},
}

func configAction(_ *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Println(key + ": " + state[key])
	}
	return nil
}

func configInitAction(c *cli.Context) error {
	return setState(map[string]string{
		"server":  c.String("server"),
		"user_id": c.String("user-id"),
		"address": c.String("address"),
	})
}

func configSetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("key and value are missing")
	}

	key := c.Args().Get(0)
	value := c.Args().Get(1)

	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Printf("%s %s has been set\n", key, value)
	return nil
}
