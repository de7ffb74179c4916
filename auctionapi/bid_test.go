package auctionapi

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/sealedbid/fhe"
)

func TestNewBidRequest(t *testing.T) {
	engine, err := fhe.NewSecureEngine()
	assert.NoError(t, err)

	req, err := NewBidRequest("alice", 42, engine.PublicKey(), "auction-1")
	assert.NoError(t, err)

	check.Equal(t, TypeBid, req.Type)
	check.Equal(t, "alice", req.Bidder)
	check.NotNil(t, req.EncryptedAmount)

	// The sealed envelope and proof admit through the engine under the
	// same binding.
	ctBytes, err := req.EncryptedAmount.Marshal()
	assert.NoError(t, err)
	proof, err := req.DecodeProof()
	assert.NoError(t, err)

	v, err := engine.FromExternal(ctBytes, proof, fhe.Binding{Bidder: "alice", Contract: "auction-1"})
	check.NoError(t, err)

	requestID, err := engine.RequestDecrypt(v)
	assert.NoError(t, err)
	plaintext, err := engine.ResolveRequest(requestID)
	assert.NoError(t, err)
	check.Equal(t, uint64(42), plaintext)
}

func TestNewBidRequest_ProofBoundToBidder(t *testing.T) {
	engine, err := fhe.NewSecureEngine()
	assert.NoError(t, err)

	req, err := NewBidRequest("alice", 42, engine.PublicKey(), "auction-1")
	assert.NoError(t, err)

	ctBytes, err := req.EncryptedAmount.Marshal()
	assert.NoError(t, err)
	proof, err := req.DecodeProof()
	assert.NoError(t, err)

	// Replaying alice's envelope and proof under mallory's identity fails.
	_, err = engine.FromExternal(ctBytes, proof, fhe.Binding{Bidder: "mallory", Contract: "auction-1"})
	check.Error(t, err)
}

func TestDecodeProof_InvalidBase64(t *testing.T) {
	req := &BidRequest{Proof: "not-base64!!!"}
	_, err := req.DecodeProof()
	check.Error(t, err)
}
