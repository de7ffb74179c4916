package main

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/cloudx-io/sealedbid/auctionapi"
	"github.com/cloudx-io/sealedbid/fhe"
)

// KeyManager holds the enclave's key material: the RSA pair bidders seal
// amounts to and the ECDSA pair the reveal oracle signs with.
type KeyManager struct {
	encryptionKey *rsa.PrivateKey // Keep private - sensitive!
	revealKey     *ecdsa.PrivateKey
}

// NewKeyManager generates fresh key pairs for one auction instance.
func NewKeyManager() (*KeyManager, error) {
	encryptionKey, err := fhe.GenerateRSAKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate encryption key pair: %w", err)
	}

	revealKey, err := fhe.GenerateRevealKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reveal key pair: %w", err)
	}

	return &KeyManager{
		encryptionKey: encryptionKey,
		revealKey:     revealKey,
	}, nil
}

// publicKeyPEM marshals any PKIX-encodable public key to PEM.
func publicKeyPEM(publicKey any) (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}

// EncryptionKeyPEM returns the bid encryption public key in PEM format.
func (km *KeyManager) EncryptionKeyPEM() (string, error) {
	return publicKeyPEM(&km.encryptionKey.PublicKey)
}

// RevealVerificationKeyPEM returns the reveal verification public key in PEM
// format.
func (km *KeyManager) RevealVerificationKeyPEM() (string, error) {
	return publicKeyPEM(&km.revealKey.PublicKey)
}

// HandleKeyRequest answers a key_request with both public keys under an NSM
// attestation.
func HandleKeyRequest(attester EnclaveAttester, keyManager *KeyManager, contractID string) (*auctionapi.KeyResponse, error) {
	encryptionKeyPEM, err := keyManager.EncryptionKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to export encryption key: %w", err)
	}

	revealKeyPEM, err := keyManager.RevealVerificationKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to export reveal verification key: %w", err)
	}

	keyAttestation, attestationCOSE, err := GenerateKeyAttestation(attester, encryptionKeyPEM, revealKeyPEM, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key attestation: %w", err)
	}

	return &auctionapi.KeyResponse{
		Type:                  "key_response",
		EncryptionKey:         encryptionKeyPEM,
		RevealVerificationKey: revealKeyPEM,
		KeyAttestation:        keyAttestation,
		AttestationCOSEBase64: attestationCOSE.EncodeBase64(),
	}, nil
}
