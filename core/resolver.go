package core

import (
	"fmt"

	"github.com/cloudx-io/sealedbid/fhe"
)

// resolve recomputes the running highest bid and winning ticket for a new
// bid using oblivious compare-and-select. This is the only place these two
// fields are derived, and both selects use the identical condition handle,
// so they always describe the same bidder.
//
// The comparison is strict greater-than: on an exact tie the incumbent (the
// earlier bidder) keeps the win. No plaintext is read or branched on.
//
// Caller must hold a.mu and commit the returned handles together.
func (a *Auction) resolve(newBid, newTicket fhe.Value) (highestBid, winningTicket fhe.Value, err error) {
	isHigher, err := a.cap.GreaterThan(newBid, a.highestBid)
	if err != nil {
		return fhe.Value{}, fhe.Value{}, fmt.Errorf("compare bids: %w", err)
	}

	highestBid, err = a.cap.Select(isHigher, newBid, a.highestBid)
	if err != nil {
		return fhe.Value{}, fhe.Value{}, fmt.Errorf("select highest bid: %w", err)
	}

	winningTicket, err = a.cap.Select(isHigher, newTicket, a.winningTicket)
	if err != nil {
		return fhe.Value{}, fhe.Value{}, fmt.Errorf("select winning ticket: %w", err)
	}

	return highestBid, winningTicket, nil
}

// HighestBid returns the current encrypted highest bid handle.
func (a *Auction) HighestBid() fhe.Value {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBid
}

// WinningTicket returns the current encrypted winning ticket handle.
func (a *Auction) WinningTicket() fhe.Value {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.winningTicket
}
