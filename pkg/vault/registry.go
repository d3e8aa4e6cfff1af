package vault

import "sort"

type (
	// A Schema binds a collection to its node-side identifier and lists the
	// fields that must be secret-shared instead of replicated.
	Schema struct {
		ID        string
		Sensitive []string
	}

	// A SchemaRegistry maps collection names to schemas. It is built once at
	// store construction and never mutated afterwards.
	SchemaRegistry struct {
		schemas map[string]Schema
	}
)

// IsSensitive returns true if the given field must be secret-shared.
func (s Schema) IsSensitive(field string) bool {
	for _, name := range s.Sensitive {
		if name == field {
			return true
		}
	}
	return false
}

// NewSchemaRegistry returns a registry over a copy of the given table.
func NewSchemaRegistry(schemas map[string]Schema) *SchemaRegistry {
	table := make(map[string]Schema, len(schemas))
	for name, schema := range schemas {
		table[name] = schema
	}
	return &SchemaRegistry{schemas: table}
}

// Resolve returns the schema bound to the given collection name.
func (r *SchemaRegistry) Resolve(collection string) (Schema, error) {
	schema, ok := r.schemas[collection]
	if !ok {
		return Schema{}, &UnknownCollectionError{Name: collection}
	}
	return schema, nil
}

// Collections returns the registered collection names in lexical order.
func (r *SchemaRegistry) Collections() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
