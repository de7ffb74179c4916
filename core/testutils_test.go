package core

import (
	"sync"
	"testing"
	"time"

	"github.com/cloudx-io/sealedbid/fhe"
)

// fakeClock is a settable clock for driving the bidding window in tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// recordingSink captures emitted events in order.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) kinds() []EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]EventKind, 0, len(s.events))
	for _, e := range s.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// recordingTransferor records asset releases and optionally fails them.
type recordingTransferor struct {
	mu        sync.Mutex
	transfers []string
	err       error
}

func (tr *recordingTransferor) Transfer(winner string, _ AssetRef) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.err != nil {
		return tr.err
	}
	tr.transfers = append(tr.transfers, winner)
	return nil
}

// testAuction bundles an auction with the collaborators tests need to drive
// and observe it.
type testAuction struct {
	auction    *Auction
	engine     *fhe.SecureEngine
	oracle     *fhe.RevealOracle
	clock      *fakeClock
	sink       *recordingSink
	transferor *recordingTransferor
	contractID string
	start      time.Time
	end        time.Time
}

func newTestAuction(t *testing.T, minBid uint64) *testAuction {
	t.Helper()

	engine, err := fhe.NewSecureEngine()
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}
	revealKey, err := fhe.GenerateRevealKey()
	if err != nil {
		t.Fatalf("create reveal key: %v", err)
	}
	oracle := fhe.NewRevealOracle(engine, revealKey)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(1 * time.Hour)
	clock := &fakeClock{now: start}
	sink := &recordingSink{}
	transferor := &recordingTransferor{}

	auction, err := NewAuction(Config{
		Seller:     "seller-1",
		Asset:      AssetRef{Collection: "punks", TokenID: "42"},
		StartTime:  start,
		EndTime:    end,
		MinBid:     minBid,
		ContractID: "auction-test-1",
		Capability: engine,
		Verifier:   fhe.NewCoseRevealVerifier(oracle.VerificationKey()),
		Transferor: transferor,
		Clock:      clock.Now,
		Events:     sink,
	})
	if err != nil {
		t.Fatalf("create auction: %v", err)
	}

	return &testAuction{
		auction:    auction,
		engine:     engine,
		oracle:     oracle,
		clock:      clock,
		sink:       sink,
		transferor: transferor,
		contractID: "auction-test-1",
		start:      start,
		end:        end,
	}
}

// submit seals an amount for a bidder and submits it.
func (ta *testAuction) submit(t *testing.T, bidder string, amount uint64) error {
	t.Helper()

	ct, err := fhe.EncryptAmount(amount, ta.engine.PublicKey(), fhe.HashAlgorithmSHA256)
	if err != nil {
		t.Fatalf("seal amount: %v", err)
	}
	ctBytes, err := ct.Marshal()
	if err != nil {
		t.Fatalf("marshal ciphertext: %v", err)
	}
	proof := fhe.InputProof(ctBytes, fhe.Binding{Bidder: bidder, Contract: ta.contractID})
	return ta.auction.SubmitBid(bidder, ctBytes, proof)
}

// decrypt reads back a handle's plaintext through the engine's reveal path,
// for assertions only.
func (ta *testAuction) decrypt(t *testing.T, v fhe.Value) uint64 {
	t.Helper()

	requestID, err := ta.engine.RequestDecrypt(v)
	if err != nil {
		t.Fatalf("request decrypt: %v", err)
	}
	plaintext, err := ta.engine.ResolveRequest(requestID)
	if err != nil {
		t.Fatalf("resolve request: %v", err)
	}
	return plaintext
}

// finalize runs the end + decryption handshake so claims can be tested.
func (ta *testAuction) finalize(t *testing.T) uint64 {
	t.Helper()

	ta.clock.Set(ta.end.Add(time.Second))
	if err := ta.auction.EndAuction(); err != nil {
		t.Fatalf("end auction: %v", err)
	}
	requestID, err := ta.auction.RequestDecryption()
	if err != nil {
		t.Fatalf("request decryption: %v", err)
	}
	reveal, err := ta.oracle.Resolve(requestID)
	if err != nil {
		t.Fatalf("resolve reveal: %v", err)
	}
	if err := ta.auction.DecryptionCallback(reveal.RequestID, reveal.Plaintext, reveal.Proof); err != nil {
		t.Fatalf("decryption callback: %v", err)
	}
	return reveal.Plaintext
}
