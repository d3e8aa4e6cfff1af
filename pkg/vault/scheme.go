package vault

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// SchemeXOR is the identifier of the XOR masking scheme.
const SchemeXOR = "xor"

type (
	// A SecretSharingScheme turns a sensitive value into independent shares and
	// back. Split is deterministic in share count but may be probabilistic in
	// the share values themselves.
	SecretSharingScheme interface {
		// Name returns the scheme identifier used in share envelopes.
		Name() string
		// Split produces exactly n shares of value, ordered by node index.
		Split(value []byte, n int) ([][]byte, error)
		// Combine reconstructs the original value. Missing shares are passed as
		// nil entries; Combine fails with ErrInsufficientShares when fewer than
		// Threshold(len(shares)) shares are present.
		Combine(shares [][]byte) ([]byte, error)
		// Threshold returns the minimum number of shares required to
		// reconstruct a value split n ways.
		Threshold(n int) int
	}

	// XORScheme is a strict N-of-N masking scheme: n-1 random masks and the
	// value XORed with all of them. Any single missing share makes the value
	// unrecoverable.
	XORScheme struct{}
)

// SchemeByName returns the scheme registered under the given identifier.
func SchemeByName(name string) (SecretSharingScheme, error) {
	switch name {
	case SchemeXOR:
		return XORScheme{}, nil
	}
	return nil, errors.Errorf("unknown secret sharing scheme %q", name)
}

// Name returns the scheme identifier used in share envelopes.
func (XORScheme) Name() string {
	return SchemeXOR
}

// Split produces n shares whose XOR is the original value.
func (XORScheme) Split(value []byte, n int) ([][]byte, error) {
	if n < 1 {
		return nil, errors.Errorf("invalid share count %d", n)
	}

	shares := make([][]byte, n)
	last := make([]byte, len(value))
	copy(last, value)

	for i := 0; i < n-1; i++ {
		mask := make([]byte, len(value))
		if _, err := rand.Read(mask); err != nil {
			return nil, errors.Wrap(err, "could not generate mask")
		}

		for j := range last {
			last[j] ^= mask[j]
		}
		shares[i] = mask
	}
	shares[n-1] = last

	return shares, nil
}

// Combine XORs all n shares back into the original value.
func (XORScheme) Combine(shares [][]byte) ([]byte, error) {
	if len(shares) == 0 {
		return nil, ErrInsufficientShares
	}

	var value []byte
	for _, share := range shares {
		if share == nil {
			return nil, ErrInsufficientShares
		}
		if value == nil {
			value = make([]byte, len(share))
		}
		if len(share) != len(value) {
			return nil, errors.New("share length mismatch")
		}

		for j := range value {
			value[j] ^= share[j]
		}
	}

	return value, nil
}

// Threshold is strict: every share of an n-way split is required.
func (XORScheme) Threshold(n int) int {
	return n
}
