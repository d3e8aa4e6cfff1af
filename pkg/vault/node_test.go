package vault_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gabrielantonyxaviour/jedi-vault/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode is a minimal HTTP storage node honouring the wire contract.
func fakeNode(t *testing.T) (*httptest.Server, map[string]map[string]vault.ShareRecord) {
	collections := map[string]map[string]vault.ShareRecord{}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/sign_in", func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			APIKey string `json:"api_key"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))

		if params.APIKey != "valid-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "Invalid API key."},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session": map[string]string{"access_token": "token-123", "refresh_token": "refresh-123"},
		})
	})
	mux.HandleFunc("/collections/sch-compliance/write", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-123" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "Invalid login credentials."},
			})
			return
		}

		var params struct {
			Records []vault.ShareRecord `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))

		if collections["sch-compliance"] == nil {
			collections["sch-compliance"] = map[string]vault.ShareRecord{}
		}
		saved := []string{}
		for _, record := range params.Records {
			collections["sch-compliance"][record.ID] = record
			saved = append(saved, record.ID)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"saved": saved})
	})
	mux.HandleFunc("/collections/sch-compliance/read", func(w http.ResponseWriter, r *http.Request) {
		records := []vault.ShareRecord{}
		for _, record := range collections["sch-compliance"] {
			records = append(records, record)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"records": records})
	})

	return httptest.NewServer(mux), collections
}

func TestNodeClient_Authenticate(t *testing.T) {
	server, _ := fakeNode(t)
	defer server.Close()

	client, err := vault.NewNodeClient(server.Client(), vault.NodeConfig{
		Name:     "alpha",
		Endpoint: server.URL,
		APIKey:   "valid-key",
	})
	require.NoError(t, err)

	assert.NoError(t, client.Authenticate(context.Background()))
}

func TestNodeClient_AuthenticateRejected(t *testing.T) {
	server, _ := fakeNode(t)
	defer server.Close()

	client, err := vault.NewNodeClient(server.Client(), vault.NodeConfig{
		Name:     "alpha",
		Endpoint: server.URL,
		APIKey:   "wrong-key",
	})
	require.NoError(t, err)

	err = client.Authenticate(context.Background())
	require.Error(t, err)

	var rejected *vault.NodeRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
	assert.Equal(t, "Invalid API key.", rejected.Reason)

	// A client that failed authentication must not be reused for batch calls.
	err = client.WriteBatch(context.Background(), "sch-compliance", nil)
	assert.ErrorIs(t, err, vault.ErrNotAuthenticated)
}

func TestNodeClient_WriteReadBatch(t *testing.T) {
	server, stored := fakeNode(t)
	defer server.Close()

	client, err := vault.NewNodeClient(server.Client(), vault.NodeConfig{
		Name:     "alpha",
		Endpoint: server.URL,
		APIKey:   "valid-key",
	})
	require.NoError(t, err)
	require.NoError(t, client.Authenticate(context.Background()))

	records := []vault.ShareRecord{
		{ID: "x1", Fields: map[string]string{"company": "1:xor:0:x1:QWNt", "score": "42"}},
	}
	require.NoError(t, client.WriteBatch(context.Background(), "sch-compliance", records))
	assert.Equal(t, records[0], stored["sch-compliance"]["x1"])

	read, err := client.ReadBatch(context.Background(), "sch-compliance", nil)
	require.NoError(t, err)
	require.Equal(t, 1, len(read))
	assert.Equal(t, records[0], read[0])
}

func TestNodeClient_EmptyCollection(t *testing.T) {
	server, _ := fakeNode(t)
	defer server.Close()

	client, err := vault.NewNodeClient(server.Client(), vault.NodeConfig{
		Name:     "alpha",
		Endpoint: server.URL,
		APIKey:   "valid-key",
	})
	require.NoError(t, err)
	require.NoError(t, client.Authenticate(context.Background()))

	read, err := client.ReadBatch(context.Background(), "sch-compliance", nil)
	require.NoError(t, err)
	assert.Empty(t, read)
}

func TestNodeClient_Unavailable(t *testing.T) {
	server, _ := fakeNode(t)
	server.Close() // refuse all connections

	client, err := vault.NewNodeClient(http.DefaultClient, vault.NodeConfig{
		Name:     "alpha",
		Endpoint: server.URL,
		APIKey:   "valid-key",
	})
	require.NoError(t, err)

	err = client.Authenticate(context.Background())
	assert.True(t, vault.IsNodeUnavailable(err))
}
