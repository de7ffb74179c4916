package fhe

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SecureEngine is a handle-backed implementation of Capability. Plaintexts
// live only inside the engine, keyed by opaque handles; callers observe
// nothing but fresh handles regardless of the values involved. In production
// the engine runs inside the enclave next to the auction contract, so the
// plaintext store shares the enclave's isolation boundary.
type SecureEngine struct {
	mu         sync.Mutex
	privateKey *rsa.PrivateKey
	values     map[Value]uint64
	pending    map[string]Value // decryption request id -> handle
}

// NewSecureEngine creates an engine with a freshly generated RSA-2048 key
// pair for opening external ciphertexts.
func NewSecureEngine() (*SecureEngine, error) {
	privateKey, err := GenerateRSAKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine key pair: %w", err)
	}
	return NewSecureEngineFromKey(privateKey), nil
}

// NewSecureEngineFromKey creates an engine around an existing private key,
// for hosts that manage key material separately.
func NewSecureEngineFromKey(privateKey *rsa.PrivateKey) *SecureEngine {
	return &SecureEngine{
		privateKey: privateKey,
		values:     make(map[Value]uint64),
		pending:    make(map[string]Value),
	}
}

// PublicKey returns the key bidders seal their amounts to.
func (e *SecureEngine) PublicKey() *rsa.PublicKey {
	return &e.privateKey.PublicKey
}

// newHandle issues a fresh random handle. Handles are unlinkable to each
// other and to the values they reference.
func newHandle() (Value, error) {
	var h Value
	if _, err := rand.Read(h[:]); err != nil {
		return Value{}, fmt.Errorf("handle entropy generation failed: %w", err)
	}
	return h, nil
}

// store records a plaintext under a fresh handle. Caller must hold e.mu.
func (e *SecureEngine) store(plaintext uint64) (Value, error) {
	h, err := newHandle()
	if err != nil {
		return Value{}, err
	}
	e.values[h] = plaintext
	return h, nil
}

// Lift encrypts a public plaintext into a fresh handle.
func (e *SecureEngine) Lift(plaintext uint64) (Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store(plaintext)
}

// FromExternal verifies the input proof binding, opens the hybrid envelope
// and imports the sealed amount as a fresh handle. A failed proof or a
// malformed envelope rejects the input without any engine state change.
func (e *SecureEngine) FromExternal(ciphertext, proof []byte, binding Binding) (Value, error) {
	expected := InputProof(ciphertext, binding)
	if !hmac.Equal(expected, proof) {
		return Value{}, fmt.Errorf("%w: input proof does not bind ciphertext to %s", ErrInvalidInput, binding.Bidder)
	}

	ct, err := ParseExternalCiphertext(ciphertext)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	amount, err := decryptAmount(ct, e.privateKey)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store(amount)
}

// GreaterThan returns an encrypted boolean handle for a > b (1 or 0).
func (e *SecureEngine) GreaterThan(a, b Value) (Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	va, ok := e.values[a]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownHandle, a.Hex())
	}
	vb, ok := e.values[b]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownHandle, b.Hex())
	}

	var result uint64
	if va > vb {
		result = 1
	}
	return e.store(result)
}

// Select returns a fresh handle holding a's value if cond is 1, b's value
// otherwise. Both branches are read unconditionally so the access pattern is
// identical either way.
func (e *SecureEngine) Select(cond, a, b Value) (Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vc, ok := e.values[cond]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownHandle, cond.Hex())
	}
	va, ok := e.values[a]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownHandle, a.Hex())
	}
	vb, ok := e.values[b]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownHandle, b.Hex())
	}

	// Branch-free select: vc is 0 or 1.
	mask := -(vc & 1)
	result := (va & mask) | (vb &^ mask)
	return e.store(result)
}

// RequestDecrypt registers an asynchronous decryption request for v and
// returns its correlation id. The reveal oracle later resolves the request
// into a signed plaintext.
func (e *SecureEngine) RequestDecrypt(v Value) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.values[v]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, v.Hex())
	}

	requestID := uuid.NewString()
	e.pending[requestID] = v
	return requestID, nil
}

// ResolveRequest returns the plaintext behind a pending decryption request.
// Only the reveal oracle calls this; the request stays pending so duplicate
// reveals for the same id verify identically.
func (e *SecureEngine) ResolveRequest(requestID string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	handle, ok := e.pending[requestID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	plaintext, ok := e.values[handle]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownHandle, handle.Hex())
	}
	return plaintext, nil
}
