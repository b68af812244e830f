package hios

import (
	"fmt"
	"time"
)

// ConnectError reports an authentication or reachability failure while
// opening the session. It is fatal to that Open attempt; the driver does
// not retry internally.
type ConnectError struct {
	Host string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot connect to switch %s: %v", e.Host, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TransportError reports a mid-session I/O failure. The session is left
// Connected but should be considered unhealthy until reopened.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure running %q: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError reports that a command round-trip exceeded its bounded wait.
// The session stays Connected-but-unresponsive; recovery is Close then Open.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q did not complete within %s", e.Command, e.Timeout)
}

// NotConnectedError is a usage error: a data operation was invoked while
// the driver is in the Disconnected state.
type NotConnectedError struct {
	Op string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("%s requires an open session: call Open first", e.Op)
}

// NormalizationError reports a value that was present in the device output
// but outside the expected grammar. It always carries the field name and
// the raw input so failures can be debugged against real device samples.
type NormalizationError struct {
	Field  string
	Raw    string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize %s from %q: %s", e.Field, e.Raw, e.Reason)
}
