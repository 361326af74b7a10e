package peer

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by outbound operations after Stop.
var ErrStopped = errors.New("peer stopped")

// TransportError wraps a failure of the underlying stream. It is terminal
// for the peer: the read loop stops and is not retried here.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ProtocolError wraps a line that parsed as JSON but not as a protocol
// message.
type ProtocolError struct {
	Line  string
	Cause error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on line %q: %v", e.Line, e.Cause)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }
