package main

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"runtime"

	"github.com/asdine/storm/v3"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/database"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/model"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/server"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	sargon2 "github.com/mdouchement/simple-argon2"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
)

const dbname = "vaultnode.db"

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg string
)

func main() {
	c := &coral.Command{
		Use:     "vaultnode",
		Short:   "Storage node for the jedi-vault secret-shared record store",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    coral.ExactArgs(0),
	}
	initCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	c.AddCommand(initCmd)

	serverCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	c.AddCommand(serverCmd)
	c.AddCommand(consoleCmd)

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func dbnameWithPath(path string) string {
	if len(path) == 0 {
		return dbname
	}
	return filepath.Join(path, dbname)
}

var (
	initCmd = &coral.Command{
		Use:   "init",
		Short: "Init the database and register the operator account",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf := koanf.New(".")
			if err := konf.Load(file.Provider(cfg), yaml.Parser()); err != nil {
				return err
			}

			if konf.String("api_key") == "" {
				return errors.New("api_key not found")
			}

			filename := dbnameWithPath(konf.String("database_path"))
			if err := database.StormInit(filename); err != nil {
				return err
			}

			db, err := database.StormOpen(filename)
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			hash, err := sargon2.GenerateFromPasswordString(konf.String("api_key"), sargon2.Default)
			if err != nil {
				return errors.Wrap(err, "could not hash API key")
			}

			account, err := db.FindAccountByLabel(model.DefaultAccountLabel)
			if err != nil {
				if !db.IsNotFound(err) {
					return errors.Wrap(err, "could not read operator account")
				}
				account = &model.Account{Label: model.DefaultAccountLabel}
			}
			account.APIKeyHash = hash

			return errors.Wrap(db.Save(account), "could not save operator account")
		},
	}

	//
	//
	serverCmd = &coral.Command{
		Use:   "server",
		Short: "Start the storage node",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf := koanf.New(".")
			if err := konf.Load(file.Provider(cfg), yaml.Parser()); err != nil {
				return err
			}

			db, err := database.StormOpen(dbnameWithPath(konf.String("database_path")))
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			engine := server.EchoEngine(server.IOC{
				Version:                    version,
				Database:                   db,
				AccessTokenExpirationTime:  konf.MustDuration("session.access_token_ttl"),
				RefreshTokenExpirationTime: konf.MustDuration("session.refresh_token_ttl"),
			})
			server.PrintRoutes(engine)

			address := konf.String("address")
			log.Printf("Node listening on %s\n", address)
			return errors.Wrap(engine.Start(address), "could not run server")
		},
	}

	//
	//
	consoleCmd = &coral.Command{
		Use:     "console DATABASE SQL",
		Short:   "Run a SELECT statement against a node database",
		Example: `  vaultnode console vaultnode.db "SELECT count(*) FROM shares WHERE SchemaID = 'sch-logs';"`,
		Args:    coral.ExactArgs(2),
		RunE: func(_ *coral.Command, args []string) error {
			sq, err := database.ParseSelect(args[1])
			if err != nil {
				return err
			}

			db, err := storm.Open(args[0], database.StormCodec)
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			query := db.Select(sq.Matcher)
			if sq.Skip > 0 {
				query.Skip(sq.Skip)
			}
			if sq.Limit > 0 {
				query.Limit(sq.Limit)
			}
			if len(sq.OrderBy) > 0 {
				query.OrderBy(sq.OrderBy...)
				if sq.Reversed {
					query.Reverse()
				}
			}

			if sq.Count {
				records, err := consoleModel(sq.Tablename)
				if err != nil {
					return err
				}

				n, err := query.Count(records)
				if err != nil {
					return errors.Wrap(err, "could not perform query")
				}
				fmt.Println("Count:", n)
				return nil
			}

			records, err := consoleSlice(sq.Tablename)
			if err != nil {
				return err
			}

			err = query.Find(records)
			if err == storm.ErrNotFound {
				fmt.Println("[]")
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "could not perform query")
			}

			payload, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return errors.Wrap(err, "could not render records")
			}
			fmt.Println(string(payload))
			return nil
		},
	}
)

func consoleModel(tablename string) (any, error) {
	switch tablename {
	case "accounts":
		return &model.Account{}, nil
	case "sessions":
		return &model.Session{}, nil
	case "shares":
		return &model.ShareRow{}, nil
	}
	return nil, errors.Errorf("unknown tablename: %s", tablename)
}

func consoleSlice(tablename string) (any, error) {
	switch tablename {
	case "accounts":
		return &[]*model.Account{}, nil
	case "sessions":
		return &[]*model.Session{}, nil
	case "shares":
		return &[]*model.ShareRow{}, nil
	}
	return nil, errors.Errorf("unknown tablename: %s", tablename)
}
