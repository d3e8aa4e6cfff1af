package client

import (
	"context"
	"net/http"
	"time"

	"github.com/gabrielantonyxaviour/jedi-vault/pkg/vault"
	"github.com/pkg/errors"
)

// BuildStore constructs the secret-shared record store described by the
// configuration and authenticates against every node.
func BuildStore(ctx context.Context, cfg Config) (*vault.Store, error) {
	if len(cfg.Nodes) == 0 {
		return nil, errors.New("no nodes configured")
	}

	scheme, err := vault.SchemeByName(cfg.Scheme)
	if err != nil {
		return nil, err
	}

	nodes := make([]vault.NodeClient, 0, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		n, err := vault.NewNodeClient(http.DefaultClient, nc)
		if err != nil {
			return nil, errors.Wrapf(err, "node %s", nc.Name)
		}
		nodes = append(nodes, n)
	}

	schemas := make(map[string]vault.Schema, len(cfg.Collections))
	for name, cc := range cfg.Collections {
		sensitive := cc.Sensitive
		if sensitive == nil {
			sensitive = vault.SensitiveFields(name)
		}
		schemas[name] = vault.Schema{ID: cc.SchemaID, Sensitive: sensitive}
	}

	store, err := vault.NewStore(vault.StoreConfig{
		Nodes:       nodes,
		Scheme:      scheme,
		Registry:    vault.NewSchemaRegistry(schemas),
		NodeTimeout: time.Duration(cfg.NodeTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	if err := store.Authenticate(ctx); err != nil {
		return nil, err
	}

	return store, nil
}
