package vault_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/gabrielantonyxaviour/jedi-vault/pkg/vault"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memNode is an in-memory NodeClient used to exercise the store orchestration
// without network I/O.
type memNode struct {
	name string

	mu          sync.Mutex
	collections map[string]map[string]vault.ShareRecord
	down        bool
	rejecting   bool
	calls       int
}

func newMemNode(name string) *memNode {
	return &memNode{
		name:        name,
		collections: map[string]map[string]vault.ShareRecord{},
	}
}

func (n *memNode) Name() string {
	return n.name
}

func (n *memNode) Authenticate(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	if n.down {
		return &vault.NodeUnavailableError{Node: n.name, Cause: errors.New("connection refused")}
	}
	return nil
}

func (n *memNode) WriteBatch(ctx context.Context, schemaID string, records []vault.ShareRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	if n.down {
		return &vault.NodeUnavailableError{Node: n.name, Cause: errors.New("connection refused")}
	}
	if n.rejecting {
		return &vault.NodeRejectedError{Node: n.name, StatusCode: 422, Reason: "schema validation failed"}
	}

	if n.collections[schemaID] == nil {
		n.collections[schemaID] = map[string]vault.ShareRecord{}
	}
	for _, record := range records {
		n.collections[schemaID][record.ID] = record
	}
	return nil
}

func (n *memNode) ReadBatch(ctx context.Context, schemaID string, ids []string) ([]vault.ShareRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	if n.down {
		return nil, &vault.NodeUnavailableError{Node: n.name, Cause: errors.New("connection refused")}
	}

	records := []vault.ShareRecord{}
	for _, record := range n.collections[schemaID] {
		records = append(records, record)
	}
	return records, nil
}

func discard() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupStore(t *testing.T) (*vault.Store, []*memNode) {
	nodes := []*memNode{newMemNode("alpha"), newMemNode("bravo"), newMemNode("charlie")}

	clients := make([]vault.NodeClient, len(nodes))
	for i, n := range nodes {
		clients[i] = n
	}

	store, err := vault.NewStore(vault.StoreConfig{
		Nodes:  clients,
		Scheme: vault.XORScheme{},
		Registry: vault.NewSchemaRegistry(map[string]vault.Schema{
			"compliance": {ID: "sch-compliance", Sensitive: []string{"company"}},
			"logs":       {ID: "sch-logs"},
		}),
		Logger: discard(),
	})
	require.NoError(t, err)

	return store, nodes
}

func TestNewStore_Validation(t *testing.T) {
	_, err := vault.NewStore(vault.StoreConfig{})
	assert.EqualError(t, err, "at least one node is required")

	_, err = vault.NewStore(vault.StoreConfig{Nodes: []vault.NodeClient{newMemNode("alpha")}})
	assert.EqualError(t, err, "a secret sharing scheme is required")
}

func TestStore_WriteRead(t *testing.T) {
	store, nodes := setupStore(t)
	ctx := context.Background()

	record := vault.Record{ID: "x1", Fields: map[string]string{
		"company": "Acme",
		"score":   "42",
	}}

	written, err := store.Write(ctx, "compliance", []vault.Record{record})
	require.NoError(t, err)
	require.Equal(t, 1, len(written))
	assert.Equal(t, "x1", written[0].ID)

	// No node holds the sensitive value in plaintext.
	for _, n := range nodes {
		stored := n.collections["sch-compliance"]["x1"]
		assert.NotEqual(t, "Acme", stored.Fields["company"], "node %s leaks the plaintext", n.name)
		assert.Equal(t, "42", stored.Fields["score"], "node %s misses the plaintext copy", n.name)
	}

	result, err := store.Read(ctx, "compliance", nil)
	require.NoError(t, err)
	require.Equal(t, 1, len(result.Records))
	assert.Empty(t, result.Skipped)
	assert.Equal(t, record, result.Records[0])
}

func TestStore_WriteAssignsIDs(t *testing.T) {
	store, _ := setupStore(t)

	written, err := store.Write(context.Background(), "logs", []vault.Record{
		{Fields: map[string]string{"action": "deploy"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, written[0].ID)
}

func TestStore_WriteQuorum(t *testing.T) {
	store, nodes := setupStore(t)
	ctx := context.Background()

	nodes[1].rejecting = true

	record := vault.Record{ID: "x1", Fields: map[string]string{"company": "Acme"}}
	_, err := store.Write(ctx, "compliance", []vault.Record{record})
	require.Error(t, err)

	var partial *vault.PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"alpha", "charlie"}, partial.Succeeded())
	assert.Equal(t, []string{"bravo"}, partial.Failed())

	// Retrying the same record against the full node set converges: writes are
	// idempotent, keyed by record ID.
	nodes[1].rejecting = false
	_, err = store.Write(ctx, "compliance", []vault.Record{record})
	require.NoError(t, err)

	result, err := store.Read(ctx, "compliance", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, len(result.Records))
	assert.Empty(t, result.Skipped)
}

func TestStore_WriteRetryFailedSubset(t *testing.T) {
	store, nodes := setupStore(t)
	ctx := context.Background()

	nodes[1].rejecting = true

	record := vault.Record{ID: "l1", Fields: map[string]string{"action": "deploy", "project_id": "prj_1"}}
	_, err := store.Write(ctx, "logs", []vault.Record{record})

	var partial *vault.PartialWriteError
	require.ErrorAs(t, err, &partial)
	require.Equal(t, []string{"bravo"}, partial.Failed())

	// Plaintext fields are replicated verbatim, so the failed subset can be
	// brought to quorum without touching the nodes that already acknowledged.
	nodes[1].rejecting = false
	retry, err := vault.NewStore(vault.StoreConfig{
		Nodes:    []vault.NodeClient{nodes[1]},
		Scheme:   vault.XORScheme{},
		Registry: vault.NewSchemaRegistry(map[string]vault.Schema{"logs": {ID: "sch-logs"}}),
		Logger:   discard(),
	})
	require.NoError(t, err)

	alphaCalls, charlieCalls := nodes[0].calls, nodes[2].calls
	_, err = retry.Write(ctx, "logs", []vault.Record{record})
	require.NoError(t, err)
	assert.Equal(t, alphaCalls, nodes[0].calls)
	assert.Equal(t, charlieCalls, nodes[2].calls)

	result, err := store.Read(ctx, "logs", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Skipped)
	require.Equal(t, 1, len(result.Records))
	assert.Equal(t, record.Fields, result.Records[0].Fields)
}

func TestStore_WriteReadRecordIDWithColons(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	// A caller-supplied ID may contain the envelope separator.
	_, err := store.Write(ctx, "compliance", []vault.Record{
		{ID: "prj:42:x1", Fields: map[string]string{"company": "Acme", "score": "42"}},
	})
	require.NoError(t, err)

	result, err := store.Read(ctx, "compliance", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Skipped)
	require.Equal(t, 1, len(result.Records))
	assert.Equal(t, "prj:42:x1", result.Records[0].ID)
	assert.Equal(t, "Acme", result.Records[0].Fields["company"])
}

func TestStore_ReadIdempotence(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Write(ctx, "compliance", []vault.Record{
		{ID: "x1", Fields: map[string]string{"company": "Acme"}},
		{ID: "x2", Fields: map[string]string{"company": "Globex"}},
	})
	require.NoError(t, err)

	first, err := store.Read(ctx, "compliance", nil)
	require.NoError(t, err)
	second, err := store.Read(ctx, "compliance", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
}

func TestStore_ReadWithNodeDown(t *testing.T) {
	store, nodes := setupStore(t)
	ctx := context.Background()

	_, err := store.Write(ctx, "compliance", []vault.Record{
		{ID: "x1", Fields: map[string]string{"company": "Acme", "score": "42"}},
	})
	require.NoError(t, err)

	// XOR is strict 3-of-3: one node down means zero reconstructed records and
	// one diagnostic entry, never a silent omission.
	nodes[1].down = true

	result, err := store.Read(ctx, "compliance", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Equal(t, 1, len(result.Skipped))
	assert.Equal(t, "x1", result.Skipped[0].ID)
	assert.Contains(t, result.Skipped[0].Reason, "insufficient shares")
}

func TestStore_ReadPlaintextOnlyWithNodeDown(t *testing.T) {
	store, nodes := setupStore(t)
	ctx := context.Background()

	// The logs collection has no sensitive fields; threshold does not apply
	// and a single surviving node is enough.
	_, err := store.Write(ctx, "logs", []vault.Record{
		{ID: "l1", Fields: map[string]string{"action": "deploy", "project_id": "prj_1"}},
	})
	require.NoError(t, err)

	nodes[0].down = true
	nodes[2].down = true

	result, err := store.Read(ctx, "logs", nil)
	require.NoError(t, err)
	require.Equal(t, 1, len(result.Records))
	assert.Equal(t, "deploy", result.Records[0].Fields["action"])
}

func TestStore_ReadAllNodesDown(t *testing.T) {
	store, nodes := setupStore(t)
	for _, n := range nodes {
		n.down = true
	}

	_, err := store.Read(context.Background(), "compliance", nil)
	require.Error(t, err)

	var unavailable *vault.CollectionUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "compliance", unavailable.Collection)
}

func TestStore_ReadFilter(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Write(ctx, "compliance", []vault.Record{
		{ID: "x1", Fields: map[string]string{"company": "Acme", "project_id": "prj_1"}},
		{ID: "x2", Fields: map[string]string{"company": "Globex", "project_id": "prj_2"}},
	})
	require.NoError(t, err)

	result, err := store.Read(ctx, "compliance", map[string]string{"project_id": "prj_2"})
	require.NoError(t, err)
	require.Equal(t, 1, len(result.Records))
	assert.Equal(t, "x2", result.Records[0].ID)
	// Filtering happens after reconstruction, so it also works on sensitive fields.
	result, err = store.Read(ctx, "compliance", map[string]string{"company": "Acme"})
	require.NoError(t, err)
	require.Equal(t, 1, len(result.Records))
	assert.Equal(t, "x1", result.Records[0].ID)
}

func TestStore_UnknownCollection(t *testing.T) {
	store, nodes := setupStore(t)

	_, err := store.Read(context.Background(), "doesNotExist", nil)
	assert.True(t, vault.IsUnknownCollection(err))

	_, err = store.Write(context.Background(), "doesNotExist", []vault.Record{{ID: "x1"}})
	assert.True(t, vault.IsUnknownCollection(err))

	for _, n := range nodes {
		assert.Equal(t, 0, n.calls, "node %s was called for an unknown collection", n.name)
	}
}

func TestStore_ReadPlaintextMismatch(t *testing.T) {
	store, nodes := setupStore(t)
	ctx := context.Background()

	_, err := store.Write(ctx, "logs", []vault.Record{
		{ID: "l1", Fields: map[string]string{"action": "deploy"}},
	})
	require.NoError(t, err)

	// A node returning a diverging plaintext copy marks the record skipped.
	nodes[2].collections["sch-logs"]["l1"] = vault.ShareRecord{
		ID:     "l1",
		Fields: map[string]string{"action": "tampered"},
	}

	result, err := store.Read(ctx, "logs", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Equal(t, 1, len(result.Skipped))
	assert.Contains(t, result.Skipped[0].Reason, "differs across nodes")
}

func TestStore_Authenticate(t *testing.T) {
	store, nodes := setupStore(t)

	require.NoError(t, store.Authenticate(context.Background()))

	nodes[2].down = true
	err := store.Authenticate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charlie")
}
