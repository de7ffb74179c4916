// Package fhe provides the encrypted-value capability used by the sealed-bid
// auction core. Values are opaque handles: the auction contract operates on
// them through comparison and selection without ever observing plaintext.
// The only reveal path is an asynchronous decryption request resolved by the
// reveal oracle, whose result carries an independently verifiable proof.
package fhe

import (
	"encoding/hex"
	"errors"
)

// Value is an opaque handle to an encrypted 64-bit unsigned integer (or an
// encrypted boolean produced by GreaterThan). Handles carry no information
// about the underlying plaintext.
type Value [32]byte

// Hex returns the handle as a hex string for logging and wire transport.
func (v Value) Hex() string {
	return hex.EncodeToString(v[:])
}

// IsZero reports whether the handle is the zero handle (no value).
func (v Value) IsZero() bool {
	return v == Value{}
}

// Binding ties an external ciphertext to the bidder and contract it was
// produced for, so a ciphertext cannot be replayed under another identity.
type Binding struct {
	Bidder   string
	Contract string
}

// Capability is the encrypted-arithmetic surface the auction core depends on.
// Implementations must keep control flow independent of plaintext values.
type Capability interface {
	// Lift encrypts a public plaintext into a fresh handle (trivial
	// encryption - the input is public, the output handle is opaque).
	Lift(plaintext uint64) (Value, error)

	// FromExternal verifies an externally produced ciphertext and its input
	// proof against the binding, then imports it as a fresh handle.
	FromExternal(ciphertext, proof []byte, binding Binding) (Value, error)

	// GreaterThan returns an encrypted boolean handle for a > b.
	GreaterThan(a, b Value) (Value, error)

	// Select returns a if cond holds, b otherwise, as a fresh handle. The
	// condition's plaintext is never exposed.
	Select(cond, a, b Value) (Value, error)

	// RequestDecrypt registers an asynchronous decryption request for v and
	// returns a correlation id. The plaintext is delivered out of band by
	// the reveal oracle.
	RequestDecrypt(v Value) (string, error)
}

// RevealVerifier checks that a revealed plaintext genuinely corresponds to a
// decryption request. Verification must not depend on who relayed the reveal.
type RevealVerifier interface {
	Verify(requestID string, plaintext uint64, proof []byte) error
}

// Reveal is the oracle's answer to a decryption request.
type Reveal struct {
	RequestID string `json:"request_id"`
	Plaintext uint64 `json:"plaintext"`
	Proof     []byte `json:"proof"` // COSE_Sign1 over the reveal payload
}

var (
	// ErrUnknownHandle is returned when an operation references a handle the
	// engine has never issued.
	ErrUnknownHandle = errors.New("unknown value handle")

	// ErrInvalidInput is returned when an external ciphertext or its input
	// proof fails verification.
	ErrInvalidInput = errors.New("invalid external input")

	// ErrUnknownRequest is returned when a decryption request id has no
	// pending request.
	ErrUnknownRequest = errors.New("unknown decryption request")
)
