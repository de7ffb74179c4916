// Package auctionapi defines the wire types exchanged between the host, the
// enclave auction service and off-host validators, plus the client-side
// helpers bidders use to seal their amounts.
package auctionapi

import (
	"time"

	"github.com/cloudx-io/sealedbid/fhe"
)

// Request type tags dispatched by the enclave server.
const (
	TypePing                = "ping"
	TypeKeyRequest          = "key_request"
	TypeBid                 = "bid"
	TypeEndAuction          = "end_auction"
	TypeRequestDecryption   = "request_decryption"
	TypeFetchReveal         = "fetch_reveal"
	TypeDecryptionCallback  = "decryption_callback"
	TypeClaim               = "claim"
	TypeAuctionInfo         = "auction_info"
	TypeTimeRemaining       = "time_remaining"
)

// BidRequest submits one sealed bid. EncryptedAmount is the hybrid envelope
// sealed to the enclave's bid encryption key; Proof binds it to the bidder
// and the auction contract.
type BidRequest struct {
	Type            string                  `json:"type"`
	Bidder          string                  `json:"bidder"`
	EncryptedAmount *fhe.ExternalCiphertext `json:"encrypted_amount"`
	Proof           string                  `json:"proof"` // base64-encoded input proof
}

// StatusResponse is the generic success/failure answer for state-changing
// requests.
type StatusResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// DecryptionRequestResponse answers a request_decryption call with the
// correlation id the oracle's reveal must carry.
type DecryptionRequestResponse struct {
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// FetchRevealRequest asks the reveal oracle for the signed reveal of an
// outstanding decryption request, so a relayer can deliver it back through
// the decryption callback.
type FetchRevealRequest struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
}

// RevealResponse carries the oracle's signed reveal.
type RevealResponse struct {
	Type            string `json:"type"`
	Success         bool   `json:"success"`
	Message         string `json:"message,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
	Plaintext       uint64 `json:"plaintext,omitempty"`
	ProofCOSEBase64 string `json:"proof_cose_base64,omitempty"`
}

// DecryptionCallbackRequest relays the oracle's reveal of the winning
// ticket. Anyone may send it; the proof is what authenticates it.
type DecryptionCallbackRequest struct {
	Type            string `json:"type"`
	RequestID       string `json:"request_id"`
	Plaintext       uint64 `json:"plaintext"`
	ProofCOSEBase64 string `json:"proof_cose_base64"`
}

// ClaimRequest asks for the asset as the winning bidder.
type ClaimRequest struct {
	Type   string `json:"type"`
	Bidder string `json:"bidder"`
}

// AuctionInfoResponse is the public read surface of the auction record.
type AuctionInfoResponse struct {
	Type        string    `json:"type"`
	Seller      string    `json:"seller"`
	Collection  string    `json:"collection"`
	TokenID     string    `json:"token_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MinBid      uint64    `json:"min_bid"`
	BidderCount int       `json:"bidder_count"`
	State       string    `json:"state"`
}

// TimeRemainingResponse reports seconds left in the bidding window, 0 once
// ended.
type TimeRemainingResponse struct {
	Type             string `json:"type"`
	SecondsRemaining int64  `json:"seconds_remaining"`
}

// KeyResponse answers a key_request with the enclave's two public keys: the
// RSA key bidders seal amounts to and the ECDSA key reveals are verified
// against, both attested by the NSM.
type KeyResponse struct {
	Type                  string                `json:"type"`
	EncryptionKey         string                `json:"encryption_key"`          // PEM, RSA-2048
	RevealVerificationKey string                `json:"reveal_verification_key"` // PEM, ECDSA P-256
	KeyAttestation        *KeyAttestationDoc    `json:"key_attestation"`
	AttestationCOSEBase64 AttestationCOSEBase64 `json:"attestation_cose_base64"`
}

// PCRs represents the Platform Configuration Registers from AWS Nitro Enclaves
type PCRs struct {
	// PCR0: Hash of the Enclave Image File (EIF)
	ImageFileHash string `json:"0"`

	// PCR1: Hash of the Linux kernel and initial RAM data (initramfs)
	KernelHash string `json:"1"`

	// PCR2: Hash of user applications, excluding the boot ramfs
	ApplicationHash string `json:"2"`

	// PCR3: Hash of the IAM role assigned to the parent instance
	IAMRoleHash string `json:"3"`

	// PCR4: Hash of the parent instance's ID
	InstanceIDHash string `json:"4"`

	// PCR8: Hash of the enclave image file's signing certificate
	SigningCertHash string `json:"8,omitempty"`
}

// AttestationDoc represents the structured attestation data from AWS Nitro
// Enclaves, common to all attestation types.
type AttestationDoc struct {
	// Module ID identifies the enclave
	ModuleID string `json:"module_id"`

	// Timestamp when the attestation was generated
	Timestamp time.Time `json:"timestamp"`

	// Digest algorithm used (e.g., "SHA384")
	DigestAlgorithm string `json:"digest"`

	// PCRs (Platform Configuration Registers) containing measurements
	PCRs PCRs `json:"pcrs"`

	// Certificate containing the attestation signature
	Certificate string `json:"certificate"`

	// Cabundle for certificate chain validation
	CABundle []string `json:"cabundle"`

	// Public key used for attestation
	PublicKey string `json:"public_key"`

	// Nonce for replay protection
	Nonce string `json:"nonce"`
}

// KeyAttestationUserData is the key material embedded in the enclave's key
// attestation. Both published keys are attested together so a bidder who
// verifies one verifies the other.
type KeyAttestationUserData struct {
	EncryptionKeyAlgorithm string `json:"encryption_key_algorithm"` // e.g., "RSA-2048"
	EncryptionKey          string `json:"encryption_key"`           // PEM-encoded
	RevealKeyAlgorithm     string `json:"reveal_key_algorithm"`     // e.g., "ECDSA-P256"
	RevealVerificationKey  string `json:"reveal_verification_key"`  // PEM-encoded
	ContractID             string `json:"contract_id"`              // auction instance the keys serve
}

// KeyAttestationDoc is the attestation wrapper for key distribution.
type KeyAttestationDoc struct {
	AttestationDoc
	UserData *KeyAttestationUserData `json:"user_data"`
}
