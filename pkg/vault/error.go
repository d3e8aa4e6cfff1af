package vault

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInsufficientShares is returned by SecretSharingScheme.Combine when the
	// gathered shares are below the scheme's threshold.
	ErrInsufficientShares = errors.New("insufficient shares for reconstruction")
	// ErrNotAuthenticated is returned by a NodeClient whose Authenticate call
	// never succeeded.
	ErrNotAuthenticated = errors.New("node client is not authenticated")
)

type (
	// A NodeUnavailableError signals a transport failure or timeout while
	// talking to one storage node.
	NodeUnavailableError struct {
		Node  string
		Cause error
	}

	// A NodeRejectedError signals a node-side validation failure.
	NodeRejectedError struct {
		Node       string
		StatusCode int
		Reason     string
	}

	// An UnknownCollectionError signals a collection name that was never
	// registered.
	UnknownCollectionError struct {
		Name string
	}

	// A NodeOutcome is the per-node result of one fan-out call.
	NodeOutcome struct {
		Node string
		Err  error
	}

	// A PartialWriteError is returned when the strict write quorum is not met.
	// Outcomes lists every node so the caller can retry the failed subset.
	PartialWriteError struct {
		Collection string
		Outcomes   []NodeOutcome
	}

	// A CollectionUnavailableError is returned when no node could serve a read.
	CollectionUnavailableError struct {
		Collection string
		Outcomes   []NodeOutcome
	}
)

func (e *NodeUnavailableError) Error() string {
	return fmt.Sprintf("node %s unavailable: %s", e.Node, e.Cause)
}

func (e *NodeUnavailableError) Unwrap() error {
	return e.Cause
}

func (e *NodeRejectedError) Error() string {
	return fmt.Sprintf("node %s rejected the request (%d): %s", e.Node, e.StatusCode, e.Reason)
}

func (e *UnknownCollectionError) Error() string {
	return fmt.Sprintf("unknown collection %q", e.Name)
}

// OK returns true if the node acknowledged the call.
func (o NodeOutcome) OK() bool {
	return o.Err == nil
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("write to collection %q acknowledged by %s", e.Collection, summarize(e.Outcomes))
}

// Succeeded returns the names of the nodes that acknowledged the write.
func (e *PartialWriteError) Succeeded() []string {
	return filterOutcomes(e.Outcomes, true)
}

// Failed returns the names of the nodes that did not acknowledge the write.
func (e *PartialWriteError) Failed() []string {
	return filterOutcomes(e.Outcomes, false)
}

func (e *CollectionUnavailableError) Error() string {
	return fmt.Sprintf("collection %q unavailable: all %d nodes failed", e.Collection, len(e.Outcomes))
}

func filterOutcomes(outcomes []NodeOutcome, ok bool) []string {
	nodes := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() == ok {
			nodes = append(nodes, o.Node)
		}
	}
	return nodes
}

func summarize(outcomes []NodeOutcome) string {
	var acked int
	for _, o := range outcomes {
		if o.OK() {
			acked++
		}
	}
	return fmt.Sprintf("%d of %d nodes (failed: %s)",
		acked, len(outcomes), strings.Join(filterOutcomes(outcomes, false), ", "))
}

// IsNodeUnavailable returns true if err originates from a node transport failure.
func IsNodeUnavailable(err error) bool {
	var nerr *NodeUnavailableError
	return errors.As(err, &nerr)
}

// IsUnknownCollection returns true if err originates from a failed schema lookup.
func IsUnknownCollection(err error) bool {
	var uerr *UnknownCollectionError
	return errors.As(err, &uerr)
}

// parseNodeError decodes the error payload rendered by a storage node.
func parseNodeError(r io.Reader, node string, code int) error {
	var payload struct {
		Err struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return &NodeRejectedError{Node: node, StatusCode: code, Reason: "unparsable error payload"}
	}
	return &NodeRejectedError{Node: node, StatusCode: code, Reason: payload.Err.Message}
}
