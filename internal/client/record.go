package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gabrielantonyxaviour/jedi-vault/pkg/vault"
	"github.com/pkg/errors"
)

// Write splits the given JSON records into shares and writes them to every
// configured node. The payload is either a single record object or an array:
//
//	{"_id": "...", "fields": {"company": "Acme", "project_id": "prj_1"}}
func Write(ctx context.Context, collection string, payload []byte) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	store, err := BuildStore(ctx, cfg)
	if err != nil {
		return err
	}

	records, err := parseRecords(payload)
	if err != nil {
		return err
	}

	written, err := store.Write(ctx, collection, records)
	if err != nil {
		var partial *vault.PartialWriteError
		if errors.As(err, &partial) {
			fmt.Fprintf(os.Stderr, "write acknowledged by %v, failed on %v; retry with the same _id values\n",
				partial.Succeeded(), partial.Failed())
		}
		return err
	}

	for _, record := range written {
		fmt.Println(record.ID)
	}
	return nil
}

// Read reconstructs a collection and prints it as JSON, optionally restricted
// to one project.
func Read(ctx context.Context, collection, projectID string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	store, err := BuildStore(ctx, cfg)
	if err != nil {
		return err
	}

	var filter map[string]string
	if projectID != "" {
		filter = map[string]string{"project_id": projectID}
	}

	result, err := store.Read(ctx, collection, filter)
	if err != nil {
		return err
	}

	for _, skipped := range result.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", skipped.ID, skipped.Reason)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(result.Records), "could not render records")
}

// Fetch reconstructs one of the typed collections and prints the resulting
// envelope as JSON, optionally restricted to one project.
func Fetch(ctx context.Context, collection, projectID string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	store, err := BuildStore(ctx, cfg)
	if err != nil {
		return err
	}

	var result any
	switch collection {
	case vault.CollectionCompliance:
		result = vault.FetchCompliance(ctx, store, projectID)
	case vault.CollectionSocials:
		result = vault.FetchSocials(ctx, store, projectID)
	case vault.CollectionLeads:
		result = vault.FetchLeads(ctx, store, projectID)
	case vault.CollectionLogs:
		result = vault.FetchLogs(ctx, store, projectID)
	case vault.CollectionStories:
		result = vault.FetchStories(ctx, store, projectID)
	case vault.CollectionGrants:
		result = vault.FetchGrants(ctx, store, projectID)
	case vault.CollectionCreating:
		result = vault.FetchCreating(ctx, store, projectID)
	default:
		return errors.Errorf("unknown collection %s", collection)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(result), "could not render result")
}

func parseRecords(payload []byte) ([]vault.Record, error) {
	var records []vault.Record
	if err := json.Unmarshal(payload, &records); err == nil {
		return records, nil
	}

	var record vault.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, errors.Wrap(err, "could not parse records")
	}
	return []vault.Record{record}, nil
}
