package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudx-io/sealedbid/auctionapi"
)

// ValidateKeyAttestation validates an enclave key attestation from COSE bytes.
//
// Parameters:
//   - attestationCOSEBase64: Base64-encoded COSE_Sign1 bytes from KeyResponse.AttestationCOSEBase64
//   - expectedEncryptionKey: PEM-encoded bid encryption key (from KeyResponse.EncryptionKey)
//   - expectedRevealKey: PEM-encoded reveal verification key (from KeyResponse.RevealVerificationKey)
//
// Returns:
//   - KeyValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed input, missing config)
func ValidateKeyAttestation(attestationCOSEBase64 auctionapi.AttestationCOSEBase64, expectedEncryptionKey, expectedRevealKey string) (*KeyValidationResult, error) {
	// Perform common attestation validation (PCRs, certificate, signature)
	baseResult, err := validateCommonAttestation(attestationCOSEBase64)
	if err != nil {
		return nil, err
	}

	// Parse key attestation to get user data for key-specific validation
	keyAttestation, err := parseKeyAttestationFromCOSE(attestationCOSEBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse attestation from attestation_cose_base64: %w", err)
	}

	result := &KeyValidationResult{
		BaseValidationResult: *baseResult,
	}

	if keyAttestation.UserData == nil {
		result.ValidationDetails = append(result.ValidationDetails, "Key material missing from attestation")
		return result, nil
	}

	result.EncryptionKeyMatch = pemKeysEqual(expectedEncryptionKey, keyAttestation.UserData.EncryptionKey)
	if result.EncryptionKeyMatch {
		result.ValidationDetails = append(result.ValidationDetails, "Encryption key matches attestation")
	} else {
		result.ValidationDetails = append(result.ValidationDetails, "Encryption key mismatch: provided key does not match attested key")
	}

	result.RevealKeyMatch = pemKeysEqual(expectedRevealKey, keyAttestation.UserData.RevealVerificationKey)
	if result.RevealKeyMatch {
		result.ValidationDetails = append(result.ValidationDetails, "Reveal verification key matches attestation")
	} else {
		result.ValidationDetails = append(result.ValidationDetails, "Reveal verification key mismatch: provided key does not match attested key")
	}

	return result, nil
}

// pemKeysEqual compares two PEM keys ignoring surrounding whitespace
// (handles trailing newlines from PEM encoding).
func pemKeysEqual(provided, attested string) bool {
	if attested == "" {
		return false
	}
	return strings.TrimSpace(provided) == strings.TrimSpace(attested)
}

// parseKeyAttestationFromCOSE parses a KeyAttestationDoc from base64-encoded COSE bytes
// This extracts the attestation document from the COSE_Sign1 payload
func parseKeyAttestationFromCOSE(attestationCOSEB64 auctionapi.AttestationCOSEBase64) (*auctionapi.KeyAttestationDoc, error) {
	// Decode base64 COSE bytes
	coseBytes, err := attestationCOSEB64.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode COSE bytes: %w", err)
	}

	// Extract payload from COSE_Sign1 array
	attestationDoc, userDataBytes, err := coseBytes.ParseAttestationDoc()
	if err != nil {
		return nil, fmt.Errorf("parse attestation document: %w", err)
	}

	// Parse user data JSON to get KeyAttestationUserData
	var keyUserData auctionapi.KeyAttestationUserData
	if len(userDataBytes) > 0 {
		if err := json.Unmarshal(userDataBytes, &keyUserData); err != nil {
			return nil, fmt.Errorf("parse user data: %w", err)
		}
	}

	return &auctionapi.KeyAttestationDoc{
		AttestationDoc: attestationDoc,
		UserData:       &keyUserData,
	}, nil
}
