package fhe

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

// RevealPayload is the CBOR payload the oracle signs for each reveal. The
// request id and plaintext are what the contract callback verifies; the
// timestamp supports off-host auditing.
type RevealPayload struct {
	RequestID string `cbor:"request_id"`
	Plaintext uint64 `cbor:"plaintext"`
	Timestamp int64  `cbor:"timestamp"`
}

// revealEncMode is the deterministic CBOR encoder for reveal payloads, so a
// payload always serializes to the same bytes no matter which host builds it.
var revealEncMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("reveal CBOR encode mode: %v", err))
	}
	revealEncMode = em
}

// RevealOracle resolves pending decryption requests into signed reveals.
// The signature makes a reveal verifiable by anyone holding the oracle's
// public key, so relaying it requires no trust in the relayer.
type RevealOracle struct {
	engine     *SecureEngine
	signingKey *ecdsa.PrivateKey
	now        func() time.Time
}

// GenerateRevealKey generates the oracle's ECDSA P-256 signing key.
func GenerateRevealKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reveal signing key: %w", err)
	}
	return key, nil
}

// NewRevealOracle creates an oracle bound to an engine and a signing key.
func NewRevealOracle(engine *SecureEngine, signingKey *ecdsa.PrivateKey) *RevealOracle {
	return &RevealOracle{
		engine:     engine,
		signingKey: signingKey,
		now:        time.Now,
	}
}

// VerificationKey returns the public key reveals are verified against.
func (o *RevealOracle) VerificationKey() *ecdsa.PublicKey {
	return &o.signingKey.PublicKey
}

// Resolve looks up a pending decryption request and produces the signed
// reveal for it. Resolving the same request twice yields two reveals for the
// same plaintext, both of which verify.
func (o *RevealOracle) Resolve(requestID string) (*Reveal, error) {
	plaintext, err := o.engine.ResolveRequest(requestID)
	if err != nil {
		return nil, err
	}

	payload := RevealPayload{
		RequestID: requestID,
		Plaintext: plaintext,
		Timestamp: o.now().Unix(),
	}

	payloadBytes, err := revealEncMode.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal reveal payload: %w", err)
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, o.signingKey)
	if err != nil {
		return nil, fmt.Errorf("create reveal signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected[cose.HeaderLabelAlgorithm] = cose.AlgorithmES256
	msg.Payload = payloadBytes
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("sign reveal: %w", err)
	}

	proof, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("marshal reveal proof: %w", err)
	}

	return &Reveal{
		RequestID: requestID,
		Plaintext: plaintext,
		Proof:     proof,
	}, nil
}

// CoseRevealVerifier verifies reveal proofs against the oracle's public key.
// It implements RevealVerifier for the auction contract's callback path.
type CoseRevealVerifier struct {
	key *ecdsa.PublicKey
}

// NewCoseRevealVerifier creates a verifier for the given oracle public key.
func NewCoseRevealVerifier(key *ecdsa.PublicKey) *CoseRevealVerifier {
	return &CoseRevealVerifier{key: key}
}

// Verify checks the COSE signature and that the signed payload matches the
// claimed request id and plaintext. Anyone can relay a reveal; only a reveal
// the oracle actually signed for this request id passes.
func (v *CoseRevealVerifier) Verify(requestID string, plaintext uint64, proof []byte) error {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(proof); err != nil {
		return fmt.Errorf("parse reveal proof: %w", err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, v.key)
	if err != nil {
		return fmt.Errorf("create reveal verifier: %w", err)
	}

	if err := msg.Verify(nil, verifier); err != nil {
		return fmt.Errorf("reveal signature verification failed: %w", err)
	}

	var payload RevealPayload
	if err := cbor.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("parse reveal payload: %w", err)
	}

	if payload.RequestID != requestID {
		return fmt.Errorf("reveal payload request id %s does not match %s", payload.RequestID, requestID)
	}
	if payload.Plaintext != plaintext {
		return fmt.Errorf("reveal payload plaintext %d does not match claimed %d", payload.Plaintext, plaintext)
	}

	return nil
}
