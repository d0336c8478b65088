package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/emperorhan/multichain-wallet/internal/chain"
)

type Class string

const (
	ClassTerminal  Class = "terminal"
	ClassTransient Class = "transient"
)

type Decision struct {
	Class  Class
	Reason string
}

func (d Decision) IsTransient() bool {
	return d.Class == ClassTransient
}

type classifiedError struct {
	err    error
	class  Class
	reason string
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{
		err:    err,
		class:  ClassTransient,
		reason: "explicit_transient",
	}
}

func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{
		err:    err,
		class:  ClassTerminal,
		reason: "explicit_terminal",
	}
}

// codedError is satisfied by JSON-RPC style error payloads.
type codedError interface {
	RPCCode() int
}

// Classify decides whether an endpoint failure warrants rotating to the next
// candidate. Delivered responses that encode a failure are transient by
// default because a different endpoint may answer correctly.
func Classify(err error) Decision {
	if err == nil {
		return Decision{Class: ClassTerminal, Reason: "nil_error"}
	}

	var marked *classifiedError
	if errors.As(err, &marked) {
		return Decision{Class: marked.class, Reason: marked.reason}
	}

	if errors.Is(err, context.Canceled) {
		return Decision{Class: ClassTerminal, Reason: "context_canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Decision{Class: ClassTransient, Reason: "context_deadline_exceeded"}
	}

	var chainErr *chain.Error
	if errors.As(err, &chainErr) {
		switch chainErr.Kind {
		case chain.KindValidation:
			return Decision{Class: ClassTerminal, Reason: "validation"}
		case chain.KindConfig:
			return Decision{Class: ClassTerminal, Reason: "config"}
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Decision{Class: ClassTransient, Reason: "eof"}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Decision{Class: ClassTransient, Reason: "net_timeout"}
		}
		return Decision{Class: ClassTransient, Reason: "net_error"}
	}

	var coded codedError
	if errors.As(err, &coded) {
		if decision, ok := classifyJSONRPCCode(coded.RPCCode()); ok {
			return decision
		}
	}

	lower := strings.ToLower(err.Error())
	if containsAny(lower, terminalMessageTokens) {
		return Decision{Class: ClassTerminal, Reason: "message_terminal"}
	}
	if containsAny(lower, transientMessageTokens) {
		return Decision{Class: ClassTransient, Reason: "message_transient"}
	}

	return Decision{Class: ClassTransient, Reason: "remote_default_transient"}
}

func classifyJSONRPCCode(code int) (Decision, bool) {
	if code == -32603 || code == -32005 {
		return Decision{Class: ClassTransient, Reason: "jsonrpc_server_transient"}, true
	}
	// -32000 is the catch-all geth uses for both node trouble and deterministic
	// tx rejection, so it falls through to message inspection.
	if code == -32000 {
		return Decision{}, false
	}
	if code <= -32001 && code >= -32099 {
		return Decision{Class: ClassTransient, Reason: "jsonrpc_server_range"}, true
	}
	if code == -32601 {
		return Decision{Class: ClassTransient, Reason: "jsonrpc_method_not_found"}, true
	}
	if code == -32602 || code == 3 {
		return Decision{Class: ClassTerminal, Reason: "jsonrpc_terminal"}, true
	}
	return Decision{}, false
}

func containsAny(msg string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

var transientMessageTokens = []string{
	"timeout",
	"timed out",
	"temporar",
	"unavailable",
	"connection reset",
	"connection refused",
	"broken pipe",
	"econnreset",
	"econnrefused",
	"too many requests",
	"rate limit",
	"http status 429",
	"http status 500",
	"http status 502",
	"http status 503",
	"http status 504",
	"server closed idle connection",
	"unexpected eof",
	": eof",
}

// Deterministic rejections of a signed transaction or a call: every endpoint
// would answer the same way.
var terminalMessageTokens = []string{
	"execution reverted",
	"insufficient funds",
	"nonce too low",
	"replacement transaction underpriced",
	"already known",
	"invalid sender",
	"intrinsic gas too low",
	"exceeds block gas limit",
	"bad-txns",
	"dust",
	"contract_validate_error",
	"sigerror",
	"dup_transaction_error",
	"transaction_expiration_error",
	"balance is not sufficient",
}
