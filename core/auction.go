// Package core implements the sealed-bid auction state machine. Bid amounts
// are opaque encrypted handles from start to finish: admission, winner
// tracking and finalization never branch on plaintext, so the execution
// trace leaks nothing about bid ordering beyond participation and count.
// The single controlled reveal is the winning ticket, decrypted by the
// reveal oracle after the auction ends.
package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/cloudx-io/sealedbid/fhe"
)

// Config carries everything needed to construct an Auction. Capability,
// Verifier and Transferor are required; Clock and Events default to the wall
// clock and a logging sink.
type Config struct {
	Seller     string
	Asset      AssetRef
	StartTime  time.Time
	EndTime    time.Time
	MinBid     uint64
	ContractID string // auction instance identity, bound into input proofs

	Capability fhe.Capability
	Verifier   fhe.RevealVerifier
	Transferor AssetTransferor

	Clock  func() time.Time
	Events EventSink
}

// Auction is the single owned aggregate for one auction's lifecycle. All
// mutation goes through the entry points below; external calls are
// serialized by the mutex, matching a ledger's one-call-at-a-time execution
// model.
type Auction struct {
	mu sync.Mutex

	seller     string
	asset      AssetRef
	startTime  time.Time
	endTime    time.Time
	minBid     uint64
	contractID string

	state                  State
	highestBid             fhe.Value
	winningTicket          fhe.Value
	decryptedWinningTicket *uint64
	pendingRequestID       string
	claimed                bool

	bids        map[string]*Bid
	bidderIndex []string // append-only submission order, derives ticket values

	cap        fhe.Capability
	verifier   fhe.RevealVerifier
	transferor AssetTransferor
	now        func() time.Time
	events     EventSink
}

// NewAuction creates an auction in the Open state. The encrypted highest bid
// is seeded with the public minimum bid and the winning ticket with 0, so a
// bid must strictly exceed the floor to ever win and ticket 0 decrypts as
// "no qualifying winner". This enforces the floor without any per-bid
// plaintext check.
func NewAuction(cfg Config) (*Auction, error) {
	if cfg.Seller == "" {
		return nil, fmt.Errorf("seller identity is required")
	}
	if cfg.ContractID == "" {
		return nil, fmt.Errorf("contract identity is required")
	}
	if !cfg.EndTime.After(cfg.StartTime) {
		return nil, fmt.Errorf("end time %s is not after start time %s", cfg.EndTime, cfg.StartTime)
	}
	if cfg.Capability == nil {
		return nil, fmt.Errorf("encrypted value capability is required")
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("reveal verifier is required")
	}
	if cfg.Transferor == nil {
		return nil, fmt.Errorf("asset transferor is required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	events := cfg.Events
	if events == nil {
		events = logSink{}
	}

	highestBid, err := cfg.Capability.Lift(cfg.MinBid)
	if err != nil {
		return nil, fmt.Errorf("seed highest bid: %w", err)
	}
	winningTicket, err := cfg.Capability.Lift(0)
	if err != nil {
		return nil, fmt.Errorf("seed winning ticket: %w", err)
	}

	return &Auction{
		seller:        cfg.Seller,
		asset:         cfg.Asset,
		startTime:     cfg.StartTime,
		endTime:       cfg.EndTime,
		minBid:        cfg.MinBid,
		contractID:    cfg.ContractID,
		state:         StateOpen,
		highestBid:    highestBid,
		winningTicket: winningTicket,
		bids:          make(map[string]*Bid),
		bidderIndex:   make([]string, 0),
		cap:           cfg.Capability,
		verifier:      cfg.Verifier,
		transferor:    cfg.Transferor,
		now:           clock,
		events:        events,
	}, nil
}

// maybeEndLocked folds the Open -> Ended transition once the end time has
// passed. Caller must hold a.mu.
func (a *Auction) maybeEndLocked() {
	if a.state != StateOpen {
		return
	}
	if a.now().Before(a.endTime) {
		return
	}
	a.state = StateEnded
	a.events.Emit(Event{Kind: EventAuctionEnded, At: a.now()})
}

// EndAuction closes bidding once the end time has passed. Callable by
// anyone; calling it again while already ended is a no-op so racing callers
// never observe an error.
func (a *Auction) EndAuction() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateOpen {
		return nil
	}
	if a.now().Before(a.endTime) {
		return fmt.Errorf("%w: auction has not reached its end time", ErrInvalidPhase)
	}
	a.maybeEndLocked()
	return nil
}

// State returns the current lifecycle phase.
func (a *Auction) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Claimed reports whether the asset has been released to the winner.
func (a *Auction) Claimed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.claimed
}

// Info returns the public view of the auction record.
func (a *Auction) Info() AuctionInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	return AuctionInfo{
		Seller:      a.seller,
		Asset:       a.asset,
		StartTime:   a.startTime,
		EndTime:     a.endTime,
		MinBid:      a.minBid,
		BidderCount: len(a.bidderIndex),
		State:       a.state.String(),
	}
}

// TimeRemaining returns the time left in the bidding window, 0 once the
// auction has ended.
func (a *Auction) TimeRemaining() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateOpen {
		return 0
	}
	remaining := a.endTime.Sub(a.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
