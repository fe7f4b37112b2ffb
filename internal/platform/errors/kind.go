package errors

import "fmt"

// Kind classifies an error by how the caller and the surrounding loop should
// react to it, per the propagation policy: leaf loops never let a single
// item take a batch down, request-scoped calls propagate to the caller.
type Kind string

const (
	// ConfigMissing means a required model/provider was never selected.
	ConfigMissing Kind = "config_missing"
	// ValidationFailed means the input itself was malformed.
	ValidationFailed Kind = "validation_failed"
	// AuthFailed means the principal could not be resolved or lacks access.
	AuthFailed Kind = "auth_failed"
	// CapabilityUnsupported means the vendor/model cannot do what was asked.
	CapabilityUnsupported Kind = "capability_unsupported"
	// UpstreamTransient means a vendor timeout, 5xx, or proxy error occurred.
	UpstreamTransient Kind = "upstream_transient"
	// UpstreamPermanent means a vendor 4xx (other than auth) occurred.
	UpstreamPermanent Kind = "upstream_permanent"
	// StorageError means filesystem or object-store I/O failed.
	StorageError Kind = "storage_error"
	// QueueError means the durable queue's infrastructure failed.
	QueueError Kind = "queue_error"
)

// Typed is an error tagged with a Kind so callers can switch on it with
// errors.As instead of matching strings.
type Typed struct {
	Kind Kind
	Message string
	Cause error
}

// Error implements the error interface.
func (e *Typed) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Typed) Unwrap() error {
	return e.Cause
}

// New builds a Typed error with no underlying cause.
func New(kind Kind, message string) error {
	return &Typed{Kind: kind, Message: message}
}

// Wrap builds a Typed error around an underlying cause.
func Wrap(kind Kind, message string, cause error) error {
	if cause == nil {
		return New(kind, message)
	}
	return &Typed{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the Kind of err if it (or something it wraps) is a *Typed,
// and false otherwise.
func KindOf(err error) (Kind, bool) {
	var t *Typed
	if ok := asTyped(err, &t); ok {
		return t.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func asTyped(err error, target **Typed) bool {
	for err != nil {
		if t, ok := err.(*Typed); ok {
			*target = t
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
