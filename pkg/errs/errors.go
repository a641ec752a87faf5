package errs

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
)

const codespace = "agenthire"

// Registered error classes. Every failure surfaced by this module wraps
// exactly one of these, so callers can branch with errorsmod.IsOf.
var (
	// ErrConfiguration: missing signer or contract address. Fatal, never retried.
	ErrConfiguration = errorsmod.Register(codespace, 2, "configuration error")

	// ErrValidation: rejected before any gateway call was made.
	ErrValidation = errorsmod.Register(codespace, 3, "validation error")

	// ErrNotFound: service or job id absent on chain.
	ErrNotFound = errorsmod.Register(codespace, 4, "not found")

	// ErrStateConflict: the contract rejected the call (wrong caller, wrong
	// lifecycle state, insufficient payment). Fatal for that call, not retryable.
	ErrStateConflict = errorsmod.Register(codespace, 5, "state conflict")

	// ErrTransient: transport-level failure talking to the chain, retryable.
	ErrTransient = errorsmod.Register(codespace, 6, "transient gateway error")

	// ErrTimeout: a wait exceeded its deadline without a terminal job state.
	ErrTimeout = errorsmod.Register(codespace, 7, "timeout")

	// ErrGateway: the chain behaved unexpectedly (e.g. a tx succeeded but the
	// expected creation event is missing). Fatal integration error.
	ErrGateway = errorsmod.Register(codespace, 8, "gateway integration error")
)

func IsConfiguration(err error) bool { return errorsmod.IsOf(err, ErrConfiguration) }
func IsValidation(err error) bool    { return errorsmod.IsOf(err, ErrValidation) }
func IsNotFound(err error) bool      { return errorsmod.IsOf(err, ErrNotFound) }
func IsStateConflict(err error) bool { return errorsmod.IsOf(err, ErrStateConflict) }
func IsTransient(err error) bool     { return errorsmod.IsOf(err, ErrTransient) }
func IsTimeout(err error) bool       { return errorsmod.IsOf(err, ErrTimeout) }

// Contract revert reasons, as emitted by ServiceRegistry and JobEscrow.
// They show up verbatim in the tx raw_log / CLI stderr.
var stateConflictReasons = []string{
	"Insufficient payment",
	"Cannot hire yourself",
	"Service not active",
	"Not the provider",
	"Not the consumer",
	"Not consumer or provider",
	"Already rated",
	"Already inactive",
	"Rating must be 1-5",
	"Must wait 1 hour to cancel",
	"Must wait 24 hours to claim",
	"Name required",
	"At least one tag required",
	"Price must be > 0",
	"Only escrow",
	"invalid job status",
}

var notFoundReasons = []string{
	"not found",
	"Service does not exist",
	"Job does not exist",
}

var transientReasons = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"context deadline exceeded",
	"EOF",
	"timed out waiting for tx",
	"post failed",
	"account sequence mismatch",
}

// ClassifyChainError maps raw chain CLI / RPC output onto the taxonomy.
// Semantic rejections become ErrStateConflict so callers never retry them;
// anything transport-shaped becomes ErrTransient.
func ClassifyChainError(err error, output string) error {
	if err == nil {
		return nil
	}
	text := output
	if text == "" {
		text = err.Error()
	}
	for _, reason := range notFoundReasons {
		if strings.Contains(text, reason) {
			return errorsmod.Wrap(ErrNotFound, firstLine(text))
		}
	}
	for _, reason := range stateConflictReasons {
		if strings.Contains(text, reason) {
			return errorsmod.Wrap(ErrStateConflict, firstLine(text))
		}
	}
	for _, reason := range transientReasons {
		if strings.Contains(text, reason) {
			return errorsmod.Wrap(ErrTransient, firstLine(text))
		}
	}
	return errorsmod.Wrapf(ErrGateway, "%v: %s", err, firstLine(text))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
