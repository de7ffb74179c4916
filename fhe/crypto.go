package fhe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash"
)

// HashAlgorithm specifies which hash function to use in RSA-OAEP.
type HashAlgorithm string

const (
	// HashAlgorithmSHA256 uses SHA-256 (recommended, default)
	HashAlgorithmSHA256 HashAlgorithm = "SHA-256"
	// HashAlgorithmSHA1 uses SHA-1 (legacy support for client compatibility)
	HashAlgorithmSHA1 HashAlgorithm = "SHA-1"
)

// ExternalCiphertext is the hybrid RSA-OAEP + AES-256-GCM envelope a bidder
// produces for a sealed amount. Only the engine holding the private key can
// open it; the auction contract treats it as opaque bytes.
type ExternalCiphertext struct {
	AESKeyEncrypted  string `json:"aes_key_encrypted"`        // base64-encoded RSA-OAEP encrypted AES key
	EncryptedPayload string `json:"encrypted_payload"`        // base64-encoded AES-GCM encrypted {"amount": N}
	Nonce            string `json:"nonce"`                    // base64-encoded GCM nonce (12 bytes)
	HashAlgorithm    string `json:"hash_algorithm,omitempty"` // Optional: "SHA-256" (default) or "SHA-1" for RSA-OAEP
}

// sealedAmount is the plaintext structure inside an ExternalCiphertext.
type sealedAmount struct {
	Amount uint64 `json:"amount"`
}

// Marshal serializes the envelope for transport and proof binding.
func (c *ExternalCiphertext) Marshal() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal ciphertext envelope: %w", err)
	}
	return data, nil
}

// ParseExternalCiphertext deserializes an envelope produced by Marshal.
func ParseExternalCiphertext(data []byte) (*ExternalCiphertext, error) {
	var ct ExternalCiphertext
	if err := json.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("parse ciphertext envelope: %w", err)
	}
	if ct.AESKeyEncrypted == "" || ct.EncryptedPayload == "" || ct.Nonce == "" {
		return nil, fmt.Errorf("ciphertext envelope missing required fields")
	}
	return &ct, nil
}

// GenerateRSAKeyPair generates a new RSA-2048 key pair using crypto/rand.
// In a TEE environment, crypto/rand uses NSM-enhanced entropy.
func GenerateRSAKeyPair() (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, nil
}

// newHash creates the appropriate implementation of hash.Hash,
// or returns an error if the algorithm is unsupported.
func newHash(hashAlg HashAlgorithm) (hash.Hash, error) {
	switch hashAlg {
	case HashAlgorithmSHA256:
		return sha256.New(), nil
	case HashAlgorithmSHA1:
		return sha1.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", hashAlg)
	}
}

// EncryptAmount seals a bid amount to the engine's public key using hybrid
// RSA-OAEP + AES-256-GCM encryption. This is the bidder-side half of the
// sealed-bid exchange.
func EncryptAmount(amount uint64, publicKey *rsa.PublicKey, hashAlg HashAlgorithm) (*ExternalCiphertext, error) {
	hasher, err := newHash(hashAlg)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(sealedAmount{Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("marshal sealed amount: %w", err)
	}

	// Generate random AES-256 key
	aesKey := make([]byte, 32)
	if _, err := rand.Read(aesKey); err != nil {
		return nil, fmt.Errorf("failed to generate AES key: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceBytes := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, nonceBytes, plaintext, nil)

	encryptedAESKeyBytes, err := rsa.EncryptOAEP(hasher, rand.Reader, publicKey, aesKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt AES key: %w", err)
	}

	return &ExternalCiphertext{
		AESKeyEncrypted:  base64.StdEncoding.EncodeToString(encryptedAESKeyBytes),
		EncryptedPayload: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:            base64.StdEncoding.EncodeToString(nonceBytes),
		HashAlgorithm:    string(hashAlg),
	}, nil
}

// decryptAmount opens a sealed amount envelope with the engine's private key.
func decryptAmount(ct *ExternalCiphertext, privateKey *rsa.PrivateKey) (uint64, error) {
	hashAlg := HashAlgorithm(ct.HashAlgorithm)
	if hashAlg == "" {
		hashAlg = HashAlgorithmSHA256
	}
	hasher, err := newHash(hashAlg)
	if err != nil {
		return 0, err
	}

	encryptedAESKeyBytes, err := base64.StdEncoding.DecodeString(ct.AESKeyEncrypted)
	if err != nil {
		return 0, fmt.Errorf("failed to decode encrypted AES key: %w", err)
	}

	encryptedPayloadBytes, err := base64.StdEncoding.DecodeString(ct.EncryptedPayload)
	if err != nil {
		return 0, fmt.Errorf("failed to decode encrypted payload: %w", err)
	}

	nonceBytes, err := base64.StdEncoding.DecodeString(ct.Nonce)
	if err != nil {
		return 0, fmt.Errorf("failed to decode nonce: %w", err)
	}

	aesKey, err := rsa.DecryptOAEP(hasher, rand.Reader, privateKey, encryptedAESKeyBytes, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to decrypt AES key: %w", err)
	}

	if len(aesKey) != 32 {
		return 0, fmt.Errorf("invalid AES key length: expected 32 bytes, got %d", len(aesKey))
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return 0, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return 0, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(nonceBytes) != aesgcm.NonceSize() {
		return 0, fmt.Errorf("invalid nonce length: expected %d bytes, got %d", aesgcm.NonceSize(), len(nonceBytes))
	}

	plaintext, err := aesgcm.Open(nil, nonceBytes, encryptedPayloadBytes, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to decrypt payload: %w", err)
	}

	var sealed sealedAmount
	if err := json.Unmarshal(plaintext, &sealed); err != nil {
		return 0, fmt.Errorf("invalid sealed amount payload: %w", err)
	}

	return sealed.Amount, nil
}

// InputProof computes the binding proof a bidder attaches to an external
// ciphertext: SHA256(ciphertext | bidder | contract). It establishes that the
// envelope was produced for this bidder and this contract. This is a binding
// check standing in for a full proof of plaintext knowledge.
func InputProof(ciphertext []byte, binding Binding) []byte {
	h := sha256.New()
	h.Write(ciphertext)
	h.Write([]byte("|"))
	h.Write([]byte(binding.Bidder))
	h.Write([]byte("|"))
	h.Write([]byte(binding.Contract))
	return h.Sum(nil)
}
