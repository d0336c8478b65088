package chain

import (
	"errors"
	"fmt"
)

// Kind is the error taxonomy surfaced by every chain operation.
type Kind string

const (
	// KindConfig covers unknown chains and unsupported families. Never retried.
	KindConfig Kind = "config"
	// KindTransient covers timeouts, resets and non-2xx answers after failover exhaustion.
	KindTransient Kind = "transient"
	// KindRemote covers delivered responses that encode a failure.
	KindRemote Kind = "remote"
	// KindValidation covers malformed input and missing credentials. Never retried.
	KindValidation Kind = "validation"
)

var (
	ErrUnknownChain       = errors.New("unknown chain id")
	ErrUnknownNetwork     = errors.New("unknown network")
	ErrUnsupportedFamily  = errors.New("unsupported protocol family")
	ErrMissingCredential  = errors.New("no signing credential for chain")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrInvalidParams      = errors.New("invalid transaction params")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrEndpointsExhausted = errors.New("all endpoints failed")
)

// Error carries the kind and the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Network string
	Err     error
}

func (e *Error) Error() string {
	if e.Network != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Network, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err unless it is already a *Error, in which case the
// innermost classification wins and only missing context is filled in.
func NewError(kind Kind, op, network string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Op: op, Network: network, Err: err}
}

// ConfigError marks err as a configuration failure.
func ConfigError(op string, err error) error {
	return NewError(KindConfig, op, "", err)
}

// ValidationError marks err as an input-validation failure.
func ValidationError(op, network string, err error) error {
	return NewError(KindValidation, op, network, err)
}

// KindOf returns the kind of err, defaulting to transient for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// InvalidAddress builds the validation error for a malformed address.
func InvalidAddress(network, address string, cause error) error {
	if cause == nil {
		return ValidationError("validate address", network, fmt.Errorf("%w %q", ErrInvalidAddress, address))
	}
	return ValidationError("validate address", network, fmt.Errorf("%w %q: %v", ErrInvalidAddress, address, cause))
}
