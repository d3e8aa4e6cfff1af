package model

// A ShareRow is this node's share of one record of one collection. Key is the
// composite (schema, record) identifier making writes idempotent; Content is
// the JSON-serialized field map where sensitive fields carry share envelopes.
type ShareRow struct {
	Base `msgpack:",inline" storm:"inline"`

	Key      string `msgpack:"key"       storm:"unique"`
	SchemaID string `msgpack:"schema_id" storm:"index"`
	RecordID string `msgpack:"record_id" storm:"index"`
	Content  string `msgpack:"content"`
}

// ShareRowKey builds the composite unique key of a share row.
func ShareRowKey(schemaID, recordID string) string {
	return schemaID + "/" + recordID
}
