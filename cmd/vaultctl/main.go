package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gabrielantonyxaviour/jedi-vault/internal/client"
	"github.com/gabrielantonyxaviour/jedi-vault/pkg/vault"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	project string
)

func main() {
	c := &coral.Command{
		Use:     "vaultctl",
		Short:   "Client of the jedi-vault secret-shared record store",
		Version: fmt.Sprintf("%s - build %.7s @ %s", version, revision, date),
		Args:    coral.NoArgs,
	}
	c.AddCommand(initCmd)
	c.AddCommand(forgetCmd)
	c.AddCommand(writeCmd)

	readCmd.Flags().StringVarP(&project, "project", "p", "", "Restrict to one project id")
	c.AddCommand(readCmd)

	fetchCmd.Flags().StringVarP(&project, "project", "p", "", "Restrict to one project id")
	c.AddCommand(fetchCmd)

	if err := c.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var (
	initCmd = &coral.Command{
		Use:   "init CONFIG",
		Short: "Seal the node credentials from a YAML topology file",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			konf := koanf.New(".")
			if err := konf.Load(file.Provider(args[0]), yaml.Parser()); err != nil {
				return err
			}

			var cfg client.Config
			if err := konf.Unmarshal("", &cfg); err != nil {
				return errors.Wrap(err, "could not parse topology")
			}

			return client.Save(cfg)
		},
	}

	forgetCmd = &coral.Command{
		Use:   "forget",
		Short: "Remove the sealed credentials file",
		Args:  coral.NoArgs,
		RunE: func(_ *coral.Command, _ []string) error {
			return client.Remove()
		},
	}

	writeCmd = &coral.Command{
		Use:   "write COLLECTION FILENAME",
		Short: "Split records into shares and write them to all nodes",
		Args:  coral.ExactArgs(2),
		RunE: func(_ *coral.Command, args []string) error {
			payload, err := os.ReadFile(args[1])
			if err != nil {
				return errors.Wrap(err, "could not read records file")
			}
			return client.Write(context.Background(), args[0], payload)
		},
	}

	readCmd = &coral.Command{
		Use:   "read COLLECTION",
		Short: "Reconstruct a collection from the node shares",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			return client.Read(context.Background(), args[0], project)
		},
	}

	fetchCmd = &coral.Command{
		Use:       "fetch COLLECTION",
		Short:     "Reconstruct one of the typed collections",
		ValidArgs: vault.Collections,
		Args:      coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			return client.Fetch(context.Background(), args[0], project)
		},
	}
)
