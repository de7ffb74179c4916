package auctionapi

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/cloudx-io/sealedbid/fhe"
)

// NewBidRequest seals an amount to the enclave's bid encryption key and
// builds the complete bid request, including the input proof binding the
// ciphertext to the bidder and the auction contract. This is the client-side
// half of bid submission; the key should first be verified against its NSM
// attestation.
func NewBidRequest(bidder string, amount uint64, encryptionKey *rsa.PublicKey, contractID string) (*BidRequest, error) {
	ct, err := fhe.EncryptAmount(amount, encryptionKey, fhe.HashAlgorithmSHA256)
	if err != nil {
		return nil, fmt.Errorf("seal bid amount: %w", err)
	}

	ctBytes, err := ct.Marshal()
	if err != nil {
		return nil, err
	}

	proof := fhe.InputProof(ctBytes, fhe.Binding{Bidder: bidder, Contract: contractID})

	return &BidRequest{
		Type:            TypeBid,
		Bidder:          bidder,
		EncryptedAmount: ct,
		Proof:           base64.StdEncoding.EncodeToString(proof),
	}, nil
}

// DecodeProof returns the raw input proof bytes from a bid request.
func (r *BidRequest) DecodeProof() ([]byte, error) {
	proof, err := base64.StdEncoding.DecodeString(r.Proof)
	if err != nil {
		return nil, fmt.Errorf("decode bid proof: %w", err)
	}
	return proof, nil
}
