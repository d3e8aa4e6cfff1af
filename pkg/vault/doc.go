//
// vault is a client-side distributed secret-shared record store. Each record
// is split into independent shares, one per storage node; no single node ever
// holds a plaintext copy of a sensitive field. Reads gather the shares back
// from all nodes and reconstruct the original records.
//

// Create the store
//
//	nodes := make([]vault.NodeClient, 0, 3)
//	for _, cfg := range nodeConfigs {
//		n, err := vault.NewNodeClient(http.DefaultClient, cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		nodes = append(nodes, n)
//	}
//
//	store, err := vault.NewStore(vault.StoreConfig{
//		Nodes:    nodes,
//		Scheme:   vault.XORScheme{},
//		Registry: vault.NewSchemaRegistry(vault.DefaultSchemas(schemaIDs)),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Authenticate against every node
//
//	if err := store.Authenticate(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// Write records
//
//	finding := vault.ComplianceRecord{
//		ProjectID: "prj_42",
//		Company:   "Acme",  // secret-shared, never stored in plaintext
//		Severity:  "high",
//	}
//	_, err = store.Write(ctx, vault.CollectionCompliance, []vault.Record{finding.ToRecord()})
//	if err != nil {
//		var partial *vault.PartialWriteError
//		if errors.As(err, &partial) {
//			log.Printf("retry against: %v", partial.Failed())
//		}
//		log.Fatal(err)
//	}
//
// Read them back
//
//	result := vault.FetchCompliance(ctx, store, "prj_42")
//	if !result.Success {
//		log.Fatal(result.Error)
//	}
//	for _, skipped := range result.Skipped {
//		log.Printf("record %s not reconstructed: %s", skipped.ID, skipped.Reason)
//	}
package vault
