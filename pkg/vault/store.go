package vault

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultNodeTimeout bounds every per-node call issued by the store.
const DefaultNodeTimeout = 10 * time.Second

type (
	// A Store is the secret-shared record store orchestrator. It owns a fixed,
	// ordered list of node clients and fans every write and read out to all of
	// them, applying the secret sharing scheme per sensitive field.
	Store struct {
		nodes    []NodeClient
		scheme   SecretSharingScheme
		registry *SchemaRegistry
		timeout  time.Duration
		log      logrus.FieldLogger
	}

	// A StoreConfig is used to initialize a Store.
	StoreConfig struct {
		Nodes       []NodeClient
		Scheme      SecretSharingScheme
		Registry    *SchemaRegistry
		NodeTimeout time.Duration
		Logger      logrus.FieldLogger
	}

	// A ReadResult carries the reconstructed records of one read call plus the
	// diagnostics for every record that could not be reconstructed.
	ReadResult struct {
		Records []Record
		Skipped []SkippedRecord
	}
)

// NewStore returns a Store over the given node list.
func NewStore(cfg StoreConfig) (*Store, error) {
	if len(cfg.Nodes) == 0 {
		return nil, errors.New("at least one node is required")
	}
	if cfg.Scheme == nil {
		return nil, errors.New("a secret sharing scheme is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("a schema registry is required")
	}
	if cfg.NodeTimeout <= 0 {
		cfg.NodeTimeout = DefaultNodeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Store{
		nodes:    cfg.Nodes,
		scheme:   cfg.Scheme,
		registry: cfg.Registry,
		timeout:  cfg.NodeTimeout,
		log:      cfg.Logger,
	}, nil
}

// Nodes returns the number of nodes the store writes to.
func (s *Store) Nodes() int {
	return len(s.nodes)
}

// Authenticate establishes a session with every node concurrently. A node that
// cannot be authenticated is reported in the returned PartialWriteError-style
// outcome list through the wrapped error.
func (s *Store) Authenticate(ctx context.Context) error {
	outcomes := s.fanout(ctx, func(ctx context.Context, _ int, n NodeClient) error {
		return n.Authenticate(ctx)
	})

	for _, o := range outcomes {
		if !o.OK() {
			return errors.Wrapf(o.Err, "could not authenticate against node %s", o.Node)
		}
	}
	return nil
}

// Write splits every sensitive field of the given records into one share per
// node and dispatches each node's slice of the batch concurrently. The write
// succeeds only if every node acknowledges (strict quorum); on any failure a
// PartialWriteError reports the per-node outcomes so the caller can retry the
// failed subset. Nodes that already acknowledged are not rolled back.
//
// Records without an ID are assigned one; the (possibly completed) records are
// returned even when the quorum is missed.
func (s *Store) Write(ctx context.Context, collection string, records []Record) ([]Record, error) {
	schema, err := s.registry.Resolve(collection)
	if err != nil {
		return nil, err
	}

	written := make([]Record, len(records))
	payloads := make([][]ShareRecord, len(s.nodes))
	for i := range payloads {
		payloads[i] = make([]ShareRecord, 0, len(records))
	}

	for ri, record := range records {
		record = record.Clone()
		if record.ID == "" {
			record.ID = uuid.Must(uuid.NewV4()).String()
		}
		written[ri] = record

		projections, err := s.project(schema, record)
		if err != nil {
			return nil, errors.Wrapf(err, "record %s", record.ID)
		}
		for i := range payloads {
			payloads[i] = append(payloads[i], projections[i])
		}
	}

	outcomes := s.fanout(ctx, func(ctx context.Context, i int, n NodeClient) error {
		return n.WriteBatch(ctx, schema.ID, payloads[i])
	})

	for _, o := range outcomes {
		if !o.OK() {
			s.log.WithFields(logrus.Fields{
				"collection": collection,
				"records":    len(records),
			}).Warn("write quorum missed")
			return written, &PartialWriteError{Collection: collection, Outcomes: outcomes}
		}
	}

	s.log.WithFields(logrus.Fields{
		"collection": collection,
		"records":    len(records),
	}).Debug("write acknowledged by all nodes")
	return written, nil
}

// Read fetches this collection's shares from every node concurrently, groups
// them by record ID and reconstructs each group through the scheme. Records
// whose gathered shares are below the scheme threshold are reported in the
// result's Skipped list, never silently dropped. The optional filter is an
// equality match applied strictly after reconstruction.
func (s *Store) Read(ctx context.Context, collection string, filter map[string]string) (*ReadResult, error) {
	schema, err := s.registry.Resolve(collection)
	if err != nil {
		return nil, err
	}

	batches := make([][]ShareRecord, len(s.nodes))
	outcomes := s.fanout(ctx, func(ctx context.Context, i int, n NodeClient) error {
		records, err := n.ReadBatch(ctx, schema.ID, nil)
		batches[i] = records
		return err
	})

	var available int
	for _, o := range outcomes {
		if o.OK() {
			available++
		}
	}
	if available == 0 {
		return nil, &CollectionUnavailableError{Collection: collection, Outcomes: outcomes}
	}

	//
	// Group shares by record ID, one slot per node.
	groups := make(map[string][]*ShareRecord)
	for i, batch := range batches {
		for bi := range batch {
			record := batch[bi]
			if groups[record.ID] == nil {
				groups[record.ID] = make([]*ShareRecord, len(s.nodes))
			}
			groups[record.ID][i] = &record
		}
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := &ReadResult{Records: []Record{}, Skipped: []SkippedRecord{}}
	for _, id := range ids {
		record, reason := s.reconstruct(schema, id, groups[id])
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedRecord{ID: id, Reason: reason})
			continue
		}
		if !matches(record, filter) {
			continue
		}
		result.Records = append(result.Records, record)
	}

	s.log.WithFields(logrus.Fields{
		"collection": collection,
		"records":    len(result.Records),
		"skipped":    len(result.Skipped),
		"nodes":      available,
	}).Debug("read reconstructed")
	return result, nil
}

// project builds the per-node share records for one record.
func (s *Store) project(schema Schema, record Record) ([]ShareRecord, error) {
	projections := make([]ShareRecord, len(s.nodes))
	for i := range projections {
		projections[i] = ShareRecord{ID: record.ID, Fields: make(map[string]string, len(record.Fields))}
	}

	for field, value := range record.Fields {
		if !schema.IsSensitive(field) {
			for i := range projections {
				projections[i].Fields[field] = value
			}
			continue
		}

		shares, err := s.scheme.Split([]byte(value), len(s.nodes))
		if err != nil {
			return nil, errors.Wrapf(err, "could not split field %s", field)
		}
		for i := range projections {
			projections[i].Fields[field] = Share{
				Scheme:   s.scheme.Name(),
				Index:    i,
				RecordID: record.ID,
				Payload:  shares[i],
			}.Envelope()
		}
	}

	return projections, nil
}

// reconstruct rebuilds one record from its per-node share slots. It returns a
// non-empty reason instead of a record when reconstruction is not possible.
func (s *Store) reconstruct(schema Schema, id string, slots []*ShareRecord) (Record, string) {
	record := Record{ID: id, Fields: map[string]string{}}

	fields := map[string]bool{}
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		for field := range slot.Fields {
			fields[field] = true
		}
	}

	for field := range fields {
		if !schema.IsSensitive(field) {
			value, ok := plaintextValue(slots, field)
			if !ok {
				return Record{}, fmt.Sprintf("plaintext field %s differs across nodes", field)
			}
			record.Fields[field] = value
			continue
		}

		shares := make([][]byte, len(s.nodes))
		var gathered int
		for _, slot := range slots {
			if slot == nil {
				continue
			}
			envelope, ok := slot.Fields[field]
			if !ok {
				continue
			}

			share, err := ParseShare(envelope, id)
			if err != nil || share.Scheme != s.scheme.Name() || share.Index >= len(shares) {
				return Record{}, fmt.Sprintf("invalid share envelope for field %s", field)
			}
			if shares[share.Index] == nil {
				shares[share.Index] = share.Payload
				gathered++
			}
		}

		if gathered < s.scheme.Threshold(len(s.nodes)) {
			return Record{}, fmt.Sprintf("insufficient shares for field %s (%d of %d)",
				field, gathered, s.scheme.Threshold(len(s.nodes)))
		}

		value, err := s.scheme.Combine(shares)
		if err != nil {
			return Record{}, fmt.Sprintf("could not combine field %s: %s", field, err)
		}
		record.Fields[field] = string(value)
	}

	return record, ""
}

// fanout runs one call per node concurrently, each bounded by the store's node
// timeout, and joins them into a fixed-size outcome list. It never spawns more
// than one task per node.
func (s *Store) fanout(ctx context.Context, call func(context.Context, int, NodeClient) error) []NodeOutcome {
	outcomes := make([]NodeOutcome, len(s.nodes))

	g, ctx := errgroup.WithContext(ctx)
	for i, n := range s.nodes {
		i, n := i, n
		g.Go(func() error {
			nctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			outcomes[i] = NodeOutcome{Node: n.Name(), Err: call(nctx, i, n)}
			return nil
		})
	}
	_ = g.Wait() // tasks report through outcomes, never through the group

	return outcomes
}

func plaintextValue(slots []*ShareRecord, field string) (string, bool) {
	var value string
	var found bool
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		v, ok := slot.Fields[field]
		if !ok {
			continue
		}
		if found && v != value {
			return "", false
		}
		value = v
		found = true
	}
	return value, found
}

func matches(record Record, filter map[string]string) bool {
	for field, expected := range filter {
		if record.Fields[field] != expected {
			return false
		}
	}
	return true
}
