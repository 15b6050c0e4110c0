package auth

import (
	"github.com/pkg/errors"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/wallet"
)

// Kind is the engine's error taxonomy. The UI renders specific guidance per
// kind, so every failure leaving this package carries one.
type Kind string

const (
	// KindUserRejected: the user declined the signature. Terminal, no retry.
	KindUserRejected Kind = "USER_REJECTED"
	// KindNonceExpired: the challenge went stale; retryable by re-initiating
	// the flow from a fresh nonce fetch.
	KindNonceExpired Kind = "NONCE_EXPIRED"
	// KindInvalidSignature: the backend could not verify the signature.
	KindInvalidSignature Kind = "INVALID_SIGNATURE"
	// KindWalletAlreadyRegistered: terminal; resolved by a different wallet.
	KindWalletAlreadyRegistered Kind = "WALLET_ALREADY_REGISTERED"
	// KindWalletAlreadyLinked: terminal; the wallet belongs to another account.
	KindWalletAlreadyLinked Kind = "WALLET_ALREADY_LINKED"
	// KindTokenExpired: survived the single refresh-and-retry pass.
	KindTokenExpired Kind = "TOKEN_EXPIRED"
	// KindNetwork: everything else, surfaced verbatim.
	KindNetwork Kind = "NETWORK"
)

// Error is the typed result every failed auth operation returns.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a typed error around cause.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the Kind from err, defaulting to NETWORK.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindNetwork
}

// classifyAuthErr maps collaborator failures onto the taxonomy.
func classifyAuthErr(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wallet.ErrUserRejected):
		return NewError(KindUserRejected, "signature request was declined", err)
	case errors.Is(err, backendapi.ErrWalletAlreadyRegistered):
		return NewError(KindWalletAlreadyRegistered, "this wallet is already registered", err)
	case errors.Is(err, backendapi.ErrWalletAlreadyLinked):
		return NewError(KindWalletAlreadyLinked, "this wallet is already linked to an account", err)
	case errors.Is(err, backendapi.ErrNonceExpired):
		return NewError(KindNonceExpired, "sign-in challenge expired, please try again", err)
	case errors.Is(err, backendapi.ErrInvalidSignature):
		return NewError(KindInvalidSignature, "the backend could not verify the signature", err)
	case errors.Is(err, backendapi.ErrTokenExpired):
		return NewError(KindTokenExpired, "session expired, please sign in again", err)
	default:
		return NewError(KindNetwork, err.Error(), err)
	}
}
