package main

import (
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/sealedbid/auctionapi"
	"github.com/cloudx-io/sealedbid/core"
	"github.com/cloudx-io/sealedbid/fhe"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type serviceFixture struct {
	service    *AuctionService
	keyManager *KeyManager
	clock      *testClock
	contractID string
	end        time.Time
}

// newServiceFixture builds a full service wiring with a controllable clock.
func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	keyManager, err := NewKeyManager()
	assert.NoError(t, err)

	engine := fhe.NewSecureEngineFromKey(keyManager.encryptionKey)
	oracle := fhe.NewRevealOracle(engine, keyManager.revealKey)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	clock := &testClock{now: start}
	contractID := "auction-e2e"

	auction, err := core.NewAuction(core.Config{
		Seller:     "seller-1",
		Asset:      core.AssetRef{Collection: "punks", TokenID: "7"},
		StartTime:  start,
		EndTime:    end,
		MinBid:     5,
		ContractID: contractID,
		Capability: engine,
		Verifier:   fhe.NewCoseRevealVerifier(oracle.VerificationKey()),
		Transferor: custodyBridge{},
		Clock:      clock.Now,
	})
	assert.NoError(t, err)

	return &serviceFixture{
		service: &AuctionService{
			auction:    auction,
			engine:     engine,
			oracle:     oracle,
			contractID: contractID,
		},
		keyManager: keyManager,
		clock:      clock,
		contractID: contractID,
		end:        end,
	}
}

func (f *serviceFixture) bid(t *testing.T, bidder string, amount uint64) auctionapi.StatusResponse {
	t.Helper()
	req, err := auctionapi.NewBidRequest(bidder, amount, &f.keyManager.encryptionKey.PublicKey, f.contractID)
	assert.NoError(t, err)
	return f.service.handleBid(*req)
}

func TestAuctionService_FullFlow(t *testing.T) {
	f := newServiceFixture(t)

	check.True(t, f.bid(t, "alice", 10).Success)
	check.True(t, f.bid(t, "bob", 30).Success)
	check.True(t, f.bid(t, "carol", 20).Success)

	info := f.service.handleAuctionInfo()
	check.Equal(t, 3, info.BidderCount)
	check.Equal(t, "open", info.State)
	check.Equal(t, uint64(5), info.MinBid)

	remaining := f.service.handleTimeRemaining()
	check.Equal(t, int64(3600), remaining.SecondsRemaining)

	f.clock.Set(f.end.Add(time.Second))
	check.True(t, f.service.handleEndAuction().Success)

	decResp := f.service.handleRequestDecryption()
	check.True(t, decResp.Success)
	check.NotEqual(t, "", decResp.RequestID)

	reveal := f.service.handleFetchReveal(auctionapi.FetchRevealRequest{RequestID: decResp.RequestID})
	check.True(t, reveal.Success)
	check.Equal(t, uint64(2), reveal.Plaintext) // bob's ticket

	callback := f.service.handleDecryptionCallback(auctionapi.DecryptionCallbackRequest{
		RequestID:       reveal.RequestID,
		Plaintext:       reveal.Plaintext,
		ProofCOSEBase64: reveal.ProofCOSEBase64,
	})
	check.True(t, callback.Success)
	check.Equal(t, "finalized", f.service.handleAuctionInfo().State)

	check.False(t, f.service.handleClaim(auctionapi.ClaimRequest{Bidder: "alice"}).Success)
	check.True(t, f.service.handleClaim(auctionapi.ClaimRequest{Bidder: "bob"}).Success)
	check.False(t, f.service.handleClaim(auctionapi.ClaimRequest{Bidder: "bob"}).Success)
}

func TestHandleBid_MissingEnvelope(t *testing.T) {
	f := newServiceFixture(t)

	resp := f.service.handleBid(auctionapi.BidRequest{Type: auctionapi.TypeBid, Bidder: "alice"})
	check.False(t, resp.Success)
	check.Equal(t, "encrypted amount is required", resp.Message)
}

func TestHandleBid_BadProofEncoding(t *testing.T) {
	f := newServiceFixture(t)

	req, err := auctionapi.NewBidRequest("alice", 10, &f.keyManager.encryptionKey.PublicKey, f.contractID)
	assert.NoError(t, err)
	req.Proof = "!!not-base64!!"

	resp := f.service.handleBid(*req)
	check.False(t, resp.Success)
}

func TestHandleBid_DuplicateRejected(t *testing.T) {
	f := newServiceFixture(t)

	check.True(t, f.bid(t, "alice", 10).Success)
	resp := f.bid(t, "alice", 20)
	check.False(t, resp.Success)
	check.Equal(t, 1, f.service.handleAuctionInfo().BidderCount)
}

func TestHandleEndAuction_TooEarly(t *testing.T) {
	f := newServiceFixture(t)

	resp := f.service.handleEndAuction()
	check.False(t, resp.Success)
	check.Equal(t, "open", f.service.handleAuctionInfo().State)
}

func TestHandleFetchReveal_UnknownRequest(t *testing.T) {
	f := newServiceFixture(t)

	resp := f.service.handleFetchReveal(auctionapi.FetchRevealRequest{RequestID: "bogus"})
	check.False(t, resp.Success)
}

func TestHandleDecryptionCallback_BadProofEncoding(t *testing.T) {
	f := newServiceFixture(t)
	check.True(t, f.bid(t, "alice", 10).Success)
	f.clock.Set(f.end.Add(time.Second))

	decResp := f.service.handleRequestDecryption()
	check.True(t, decResp.Success)

	resp := f.service.handleDecryptionCallback(auctionapi.DecryptionCallbackRequest{
		RequestID:       decResp.RequestID,
		Plaintext:       1,
		ProofCOSEBase64: "!!not-base64!!",
	})
	check.False(t, resp.Success)
}

func TestHandleDecryptionCallback_TamperedPlaintext(t *testing.T) {
	f := newServiceFixture(t)
	check.True(t, f.bid(t, "alice", 10).Success)
	f.clock.Set(f.end.Add(time.Second))

	decResp := f.service.handleRequestDecryption()
	check.True(t, decResp.Success)
	reveal := f.service.handleFetchReveal(auctionapi.FetchRevealRequest{RequestID: decResp.RequestID})
	check.True(t, reveal.Success)

	resp := f.service.handleDecryptionCallback(auctionapi.DecryptionCallbackRequest{
		RequestID:       reveal.RequestID,
		Plaintext:       reveal.Plaintext + 5,
		ProofCOSEBase64: reveal.ProofCOSEBase64,
	})
	check.False(t, resp.Success)
	check.Equal(t, "decryption_requested", f.service.handleAuctionInfo().State)
}

func TestNewAuctionService(t *testing.T) {
	keyManager, err := NewKeyManager()
	assert.NoError(t, err)

	cfg := &auctionConfig{
		Seller:     "seller-1",
		Asset:      core.AssetRef{Collection: "punks", TokenID: "7"},
		StartTime:  time.Now(),
		EndTime:    time.Now().Add(time.Hour),
		MinBid:     1,
		ContractID: "auction-svc",
		MaxWorkers: 4,
	}

	service, err := NewAuctionService(cfg, keyManager)
	check.NoError(t, err)
	check.NotNil(t, service)
	check.Equal(t, "auction-svc", service.contractID)

	// The oracle verification key must be the key manager's reveal key, or
	// callbacks would never verify.
	check.True(t, service.oracle.VerificationKey().Equal(&keyManager.revealKey.PublicKey))
}
