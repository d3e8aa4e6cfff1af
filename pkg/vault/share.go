package vault

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EnvelopeVersion is the version of the share envelope wire format.
const EnvelopeVersion = "1"

// A Share is one node's portion of a sensitive field's value.
type Share struct {
	Scheme   string
	Index    int // position of the owning node in the store's node list
	RecordID string
	Payload  []byte
}

// Envelope serializes the share into its wire form:
//
//	<version>:<scheme>:<index>:<recordID>:<base64 payload>
func (s Share) Envelope() string {
	return fmt.Sprintf("%s:%s:%d:%s:%s",
		EnvelopeVersion, s.Scheme, s.Index, s.RecordID,
		base64.StdEncoding.EncodeToString(s.Payload))
}

// ParseShare parses a share envelope and verifies that it belongs to the given
// record. Record IDs are caller-supplied and may themselves contain colons;
// the payload is base64 and never does, so the record ID spans everything
// between the fixed head and the last separator.
func ParseShare(envelope, recordID string) (Share, error) {
	s := Share{}

	components := strings.SplitN(envelope, ":", 4)
	if len(components) != 4 {
		return s, errors.New("invalid share envelope format")
	}

	if components[0] != EnvelopeVersion {
		return s, errors.New("unsupported share envelope version")
	}
	s.Scheme = components[1]

	index, err := strconv.Atoi(components[2])
	if err != nil || index < 0 {
		return s, errors.New("invalid share index")
	}
	s.Index = index

	sep := strings.LastIndex(components[3], ":")
	if sep < 0 {
		return s, errors.New("invalid share envelope format")
	}

	s.RecordID = components[3][:sep]
	if s.RecordID != recordID {
		return s, errors.New("mismatch between share record ID and record ID")
	}

	s.Payload, err = base64.StdEncoding.DecodeString(components[3][sep+1:])
	if err != nil {
		return s, errors.Wrap(err, "could not decode share payload")
	}

	return s, nil
}
