package model

// DefaultAccountLabel is the label of the account created at node init.
const DefaultAccountLabel = "operator"

// An Account is an operator allowed to authenticate against this node.
// The API key is stored argon2id-hashed, never in clear.
type Account struct {
	Base `msgpack:",inline" storm:"inline"`

	Label      string `msgpack:"label"        storm:"unique"`
	APIKeyHash string `msgpack:"api_key_hash"`
}
