package fhe

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/veraison/go-cose"
)

func newOraclePair(t *testing.T) (*SecureEngine, *RevealOracle, *CoseRevealVerifier) {
	t.Helper()
	engine := newEngine(t)
	key, err := GenerateRevealKey()
	assert.NoError(t, err)
	oracle := NewRevealOracle(engine, key)
	return engine, oracle, NewCoseRevealVerifier(oracle.VerificationKey())
}

func TestOracle_ResolveAndVerify(t *testing.T) {
	engine, oracle, verifier := newOraclePair(t)

	v, err := engine.Lift(99)
	check.NoError(t, err)
	requestID, err := engine.RequestDecrypt(v)
	check.NoError(t, err)

	reveal, err := oracle.Resolve(requestID)
	check.NoError(t, err)
	check.Equal(t, requestID, reveal.RequestID)
	check.Equal(t, uint64(99), reveal.Plaintext)

	check.NoError(t, verifier.Verify(reveal.RequestID, reveal.Plaintext, reveal.Proof))
}

func TestOracle_ResolveUnknownRequest(t *testing.T) {
	_, oracle, _ := newOraclePair(t)

	_, err := oracle.Resolve("no-such-request")
	check.True(t, errors.Is(err, ErrUnknownRequest))
}

func TestOracle_DuplicateResolvesBothVerify(t *testing.T) {
	engine, oracle, verifier := newOraclePair(t)

	v, err := engine.Lift(5)
	check.NoError(t, err)
	requestID, err := engine.RequestDecrypt(v)
	check.NoError(t, err)

	first, err := oracle.Resolve(requestID)
	check.NoError(t, err)
	second, err := oracle.Resolve(requestID)
	check.NoError(t, err)

	check.NoError(t, verifier.Verify(first.RequestID, first.Plaintext, first.Proof))
	check.NoError(t, verifier.Verify(second.RequestID, second.Plaintext, second.Proof))
}

func TestVerify_TamperedPlaintext(t *testing.T) {
	engine, oracle, verifier := newOraclePair(t)

	v, err := engine.Lift(7)
	check.NoError(t, err)
	requestID, err := engine.RequestDecrypt(v)
	check.NoError(t, err)
	reveal, err := oracle.Resolve(requestID)
	check.NoError(t, err)

	check.Error(t, verifier.Verify(reveal.RequestID, reveal.Plaintext+1, reveal.Proof))
}

func TestVerify_WrongRequestID(t *testing.T) {
	engine, oracle, verifier := newOraclePair(t)

	v, err := engine.Lift(7)
	check.NoError(t, err)
	requestID, err := engine.RequestDecrypt(v)
	check.NoError(t, err)
	reveal, err := oracle.Resolve(requestID)
	check.NoError(t, err)

	check.Error(t, verifier.Verify("other-request", reveal.Plaintext, reveal.Proof))
}

func TestVerify_WrongSigningKey(t *testing.T) {
	engine, oracle, _ := newOraclePair(t)

	otherKey, err := GenerateRevealKey()
	assert.NoError(t, err)
	wrongVerifier := NewCoseRevealVerifier(&otherKey.PublicKey)

	v, err := engine.Lift(7)
	check.NoError(t, err)
	requestID, err := engine.RequestDecrypt(v)
	check.NoError(t, err)
	reveal, err := oracle.Resolve(requestID)
	check.NoError(t, err)

	check.Error(t, wrongVerifier.Verify(reveal.RequestID, reveal.Plaintext, reveal.Proof))
}

func TestVerify_ForgedPayload(t *testing.T) {
	engine, _, verifier := newOraclePair(t)

	v, err := engine.Lift(7)
	check.NoError(t, err)
	requestID, err := engine.RequestDecrypt(v)
	check.NoError(t, err)

	// Re-sign a payload claiming a different plaintext with a key the
	// verifier does not trust.
	forgedKey, err := GenerateRevealKey()
	assert.NoError(t, err)
	payloadBytes, err := revealEncMode.Marshal(RevealPayload{
		RequestID: requestID,
		Plaintext: 1_000_000,
		Timestamp: 0,
	})
	assert.NoError(t, err)

	signer, err := cose.NewSigner(cose.AlgorithmES256, forgedKey)
	assert.NoError(t, err)
	msg := cose.NewSign1Message()
	msg.Headers.Protected[cose.HeaderLabelAlgorithm] = cose.AlgorithmES256
	msg.Payload = payloadBytes
	assert.NoError(t, msg.Sign(rand.Reader, nil, signer))
	forged, err := msg.MarshalCBOR()
	assert.NoError(t, err)

	check.Error(t, verifier.Verify(requestID, 1_000_000, forged))
}

func TestVerify_GarbageProof(t *testing.T) {
	_, _, verifier := newOraclePair(t)

	check.Error(t, verifier.Verify("request", 1, []byte("not-cose")))
}

func TestRevealPayload_DeterministicEncoding(t *testing.T) {
	payload := RevealPayload{RequestID: "abc", Plaintext: 42, Timestamp: 1700000000}

	first, err := revealEncMode.Marshal(payload)
	check.NoError(t, err)
	second, err := revealEncMode.Marshal(payload)
	check.NoError(t, err)
	check.Equal(t, first, second)

	var decoded RevealPayload
	check.NoError(t, cbor.Unmarshal(first, &decoded))
	check.Equal(t, payload, decoded)
}
