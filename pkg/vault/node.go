package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/pkg/errors"
)

type (
	// A NodeClient is the I/O boundary with one storage node. Each instance is
	// independent: it owns its own session state and never shares it.
	NodeClient interface {
		// Name returns the node identifier used in diagnostics.
		Name() string
		// Authenticate establishes a session with the node. A client whose
		// authentication failed must not be reused for batch calls.
		Authenticate(ctx context.Context) error
		// WriteBatch sends this node's share of each record to the collection
		// addressed by schemaID. Writes are idempotent, keyed by record ID.
		WriteBatch(ctx context.Context, schemaID string, records []ShareRecord) error
		// ReadBatch returns this node's shares for the requested records, or
		// for the whole collection when ids is empty. An empty collection
		// yields an empty slice, not an error.
		ReadBatch(ctx context.Context, schemaID string, ids []string) ([]ShareRecord, error)
	}

	// A NodeConfig describes one storage node endpoint.
	NodeConfig struct {
		Name     string `json:"name"     koanf:"name"`
		Endpoint string `json:"endpoint" koanf:"endpoint"`
		APIKey   string `json:"api_key"  koanf:"api_key"`
	}

	p    map[string]any
	node struct {
		http     *http.Client
		name     string
		endpoint string
		apikey   string
		bearer   string
	}
)

// NewNodeClient returns a NodeClient talking to the configured endpoint.
func NewNodeClient(c *http.Client, cfg NodeConfig) (NodeClient, error) {
	if c == nil {
		c = http.DefaultClient
	}
	_, err := url.Parse(cfg.Endpoint)
	return &node{
		http:     c,
		name:     cfg.Name,
		endpoint: cfg.Endpoint,
		apikey:   cfg.APIKey,
	}, errors.Wrap(err, "could not parse endpoint")
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Authenticate(ctx context.Context) error {
	payload := struct {
		Session struct {
			AccessToken string `json:"access_token"`
		} `json:"session"`
	}{}

	err := n.perform(ctx, "/auth/sign_in", p{"api_key": n.apikey}, &payload)
	if err != nil {
		n.bearer = ""
		return err
	}

	if payload.Session.AccessToken == "" {
		n.bearer = ""
		return &NodeRejectedError{Node: n.name, StatusCode: http.StatusOK, Reason: "no access token in sign-in response"}
	}

	n.bearer = payload.Session.AccessToken
	return nil
}

func (n *node) WriteBatch(ctx context.Context, schemaID string, records []ShareRecord) error {
	if n.bearer == "" {
		return errors.Wrapf(ErrNotAuthenticated, "node %s", n.name)
	}

	payload := struct {
		Saved []string `json:"saved"`
	}{}

	endpoint := fmt.Sprintf("/collections/%s/write", schemaID)
	if err := n.perform(ctx, endpoint, p{"records": records}, &payload); err != nil {
		return err
	}

	if len(payload.Saved) != len(records) {
		return &NodeRejectedError{
			Node:       n.name,
			StatusCode: http.StatusOK,
			Reason:     fmt.Sprintf("partial acknowledgement: %d of %d records saved", len(payload.Saved), len(records)),
		}
	}
	return nil
}

func (n *node) ReadBatch(ctx context.Context, schemaID string, ids []string) ([]ShareRecord, error) {
	if n.bearer == "" {
		return nil, errors.Wrapf(ErrNotAuthenticated, "node %s", n.name)
	}

	if ids == nil {
		ids = []string{}
	}
	payload := struct {
		Records []ShareRecord `json:"records"`
	}{}

	endpoint := fmt.Sprintf("/collections/%s/read", schemaID)
	if err := n.perform(ctx, endpoint, p{"ids": ids}, &payload); err != nil {
		return nil, err
	}

	if payload.Records == nil {
		payload.Records = []ShareRecord{}
	}
	return payload.Records, nil
}

// perform runs one POST round-trip against the node and decodes the response
// into out. Transport failures are converted to NodeUnavailableError, node-side
// failures to NodeRejectedError.
func (n *node) perform(ctx context.Context, endpoint string, body any, out any) error {
	u, err := url.Parse(n.endpoint)
	if err != nil {
		return errors.Wrap(err, "could not parse endpoint")
	}
	u.Path = path.Join(u.Path, endpoint)

	//
	// Build request
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "could not serialize request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	req.Close = true
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	if n.bearer != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", n.bearer))
	}

	//
	// Perform request
	res, err := n.http.Do(req)
	if err != nil {
		return &NodeUnavailableError{Node: n.name, Cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		return &NodeUnavailableError{Node: n.name, Cause: parseNodeError(res.Body, n.name, res.StatusCode)}
	}
	if res.StatusCode >= 400 {
		return parseNodeError(res.Body, n.name, res.StatusCode)
	}

	//
	// Process response
	dec := json.NewDecoder(res.Body)
	return errors.Wrap(dec.Decode(out), "could not parse response")
}
