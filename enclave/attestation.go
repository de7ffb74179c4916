package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"

	"github.com/cloudx-io/sealedbid/auctionapi"
)

// EnclaveAttester interface for dependency injection and testing
type EnclaveAttester interface {
	Attest(options enclave.AttestationOptions) ([]byte, error)
}

// getEnclaveAttester attempts to get the NSM attester, returns error if not available
func getEnclaveAttester() (EnclaveAttester, error) {
	handle, err := enclave.GetOrInitializeHandle()
	if err != nil {
		return nil, fmt.Errorf("NSM not available: %w", err)
	}
	return handle, nil
}

// generateSecureRandomBytes generates cryptographically secure random bytes.
// In an NSM enclave crypto/rand draws from the NSM-enhanced entropy pool.
func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

func generateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32) // 256 bits of entropy
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}

// GenerateKeyAttestation produces an NSM attestation embedding the auction's
// two public keys, so a bidder can verify that the key they seal to and the
// key reveals are signed with both live inside the measured enclave image.
func GenerateKeyAttestation(attester EnclaveAttester, encryptionKeyPEM, revealKeyPEM, contractID string) (*auctionapi.KeyAttestationDoc, auctionapi.AttestationCOSE, error) {
	if attester == nil {
		return nil, nil, fmt.Errorf("enclave attester is nil")
	}

	keyUserData := &auctionapi.KeyAttestationUserData{
		EncryptionKeyAlgorithm: "RSA-2048",
		EncryptionKey:          encryptionKeyPEM,
		RevealKeyAlgorithm:     "ECDSA-P256",
		RevealVerificationKey:  revealKeyPEM,
		ContractID:             contractID,
	}

	userDataBytes, err := json.Marshal(keyUserData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal key user data: %w", err)
	}

	randomNonce, err := generateNonce()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate attestation nonce: %w", err)
	}

	attestationCBOR, err := attester.Attest(enclave.AttestationOptions{
		UserData: userDataBytes,
		Nonce:    []byte(randomNonce),
	})
	if err != nil {
		log.Printf("ERROR: NSM key attestation failed: %v", err)
		return nil, nil, fmt.Errorf("NSM key attestation failed: %w", err)
	}

	log.Printf("INFO: Key attestation generated: %d bytes", len(attestationCBOR))

	attestationCOSE := auctionapi.AttestationCOSE(attestationCBOR)
	attestationDoc, _, err := attestationCOSE.ParseAttestationDoc()
	if err != nil {
		return nil, nil, fmt.Errorf("parse generated attestation: %w", err)
	}

	return &auctionapi.KeyAttestationDoc{
		AttestationDoc: attestationDoc,
		UserData:       keyUserData,
	}, attestationCOSE, nil
}
