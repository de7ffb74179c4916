package validation

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/cloudx-io/sealedbid/fhe"
)

// ParseRevealVerificationKey parses the PEM-encoded ECDSA public key the
// reveal oracle signs with (from KeyResponse.RevealVerificationKey).
func ParseRevealVerificationKey(pemData string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in reveal verification key")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse reveal verification key: %w", err)
	}

	ecdsaKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("reveal verification key is not ECDSA")
	}

	return ecdsaKey, nil
}

// ValidateReveal checks a reveal's COSE proof against the oracle's
// verification key: the signature must verify and the signed payload must
// carry the claimed request id and plaintext. This is the same check the
// auction contract's callback performs, exposed for off-host auditing.
func ValidateReveal(reveal fhe.Reveal, verificationKeyPEM string) (*RevealValidationResult, error) {
	key, err := ParseRevealVerificationKey(verificationKeyPEM)
	if err != nil {
		return nil, err
	}

	result := &RevealValidationResult{
		ValidationDetails: []string{},
	}

	verifier := fhe.NewCoseRevealVerifier(key)
	if err := verifier.Verify(reveal.RequestID, reveal.Plaintext, reveal.Proof); err != nil {
		result.SignatureValid = false
		result.PayloadMatch = false
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Reveal verification failed: %v", err))
		return result, nil
	}

	result.SignatureValid = true
	result.PayloadMatch = true
	result.ValidationDetails = append(result.ValidationDetails, "Reveal signature verified")
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Payload matches request %s with plaintext %d", reveal.RequestID, reveal.Plaintext))
	return result, nil
}
