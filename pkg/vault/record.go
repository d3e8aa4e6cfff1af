package vault

type (
	// A Record is one reconstructed (or to-be-written) entry of a collection.
	// Fields holds every field in plaintext; the store decides which of them
	// are split into shares based on the collection's schema.
	Record struct {
		ID     string            `json:"_id"`
		Fields map[string]string `json:"fields"`
	}

	// A ShareRecord is the per-node projection of a Record: plaintext fields
	// are carried verbatim, sensitive fields carry this node's share envelope.
	ShareRecord struct {
		ID     string            `json:"_id"`
		Fields map[string]string `json:"fields"`
	}

	// A SkippedRecord reports a record that could not be reconstructed during
	// a read. Skipped records are diagnostics, never silent omissions.
	SkippedRecord struct {
		ID     string `json:"_id"`
		Reason string `json:"reason"`
	}
)

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{ID: r.ID, Fields: fields}
}
