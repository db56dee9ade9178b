// Package aeryserr implements the error taxonomy: ConfigError,
// ConfigWarning, ResponseLifecycle, InvalidBody, ClientGone, and
// InternalFilter. Each is a distinct exported type so callers can
// dispatch with errors.As instead of matching on message text.
package aeryserr

import "fmt"

// ConfigError is a fatal startup-time error: bad address, bad port, a
// missing or unreadable certificate file, a certificate without a
// private key, or an empty crypto_method bitmask. It surfaces at
// startup and prevents serving.
type ConfigError struct {
	Context string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Context, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err with context describing what was being
// configured (e.g. "host listen address", "tls certificate").
func NewConfigError(context string, err error) *ConfigError {
	return &ConfigError{Context: context, Err: err}
}

// ConfigWarning is non-fatal: a certificate CN/SAN mismatch, or a
// certificate whose notAfter has already passed. Logged and ignored.
type ConfigWarning struct {
	Context string
	Message string
}

func (w *ConfigWarning) Error() string {
	return fmt.Sprintf("config warning: %s: %s", w.Context, w.Message)
}

// NewConfigWarning builds a ConfigWarning.
func NewConfigWarning(context, message string) *ConfigWarning {
	return &ConfigWarning{Context: context, Message: message}
}

// ResponseLifecycle is raised when a Response setter or state operation
// is called in a disallowed state (e.g. setHeader after STARTED). It is
// always a programmer bug, synchronous, and fatal to the current
// response only.
type ResponseLifecycle struct {
	Op    string
	State string
}

func (e *ResponseLifecycle) Error() string {
	return fmt.Sprintf("response lifecycle violation: %s called while state=%s", e.Op, e.State)
}

// NewResponseLifecycle builds a ResponseLifecycle error for op attempted
// while in state.
func NewResponseLifecycle(op, state string) *ResponseLifecycle {
	return &ResponseLifecycle{Op: op, State: state}
}

// InvalidBody is raised when the writer factory is handed a body shape
// it does not recognize. Always a programmer bug.
type InvalidBody struct {
	Shape string
}

func (e *InvalidBody) Error() string {
	return fmt.Sprintf("invalid body shape: %s", e.Shape)
}

// NewInvalidBody builds an InvalidBody error naming the unrecognized
// shape (typically a %T of the body value).
func NewInvalidBody(shape string) *InvalidBody {
	return &InvalidBody{Shape: shape}
}

// ClientGone means the underlying socket closed or reset during a read
// or write. It aborts the current writer and terminates further work on
// the connection; pending queued requests are dropped.
type ClientGone struct {
	Op  string
	Err error
}

func (e *ClientGone) Error() string {
	return fmt.Sprintf("client gone during %s: %v", e.Op, e.Err)
}

func (e *ClientGone) Unwrap() error { return e.Err }

// NewClientGone wraps the underlying net error observed during op.
func NewClientGone(op string, err error) *ClientGone {
	return &ClientGone{Op: op, Err: err}
}

// InternalFilter is raised when a codec filter fails while processing
// headers or body. HeadersSent records whether the header block had
// already been forwarded downstream when the failure occurred. The error
// is returned to the Response method that pushed the event; pkg/driver
// does not substitute a 500 for it.
type InternalFilter struct {
	Filter      string
	HeadersSent bool
	Err         error
}

func (e *InternalFilter) Error() string {
	return fmt.Sprintf("internal filter error in %s: %v", e.Filter, e.Err)
}

func (e *InternalFilter) Unwrap() error { return e.Err }

// NewInternalFilter builds an InternalFilter error. headersSent records
// whether the terminal filter had already handed a header block to the
// writer when the failure occurred, per the §7 recovery rule.
func NewInternalFilter(filter string, headersSent bool, err error) *InternalFilter {
	return &InternalFilter{Filter: filter, HeadersSent: headersSent, Err: err}
}
