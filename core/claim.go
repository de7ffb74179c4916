package core

import (
	"fmt"
	"log"
)

// Claim releases the asset to the winner, exactly once. The caller must be a
// registered bidder; winner matching compares the caller's ticket (retained
// in plaintext at assignment, since it derives from public submission order)
// against the revealed winning ticket, leaking nothing beyond what the
// submission order already made public.
//
// claimed is committed before the transfer side effect runs so a reentering
// call observes ErrAlreadyClaimed rather than a second release.
func (a *Auction) Claim(caller string) error {
	a.mu.Lock()

	if a.state != StateFinalized {
		a.mu.Unlock()
		return fmt.Errorf("%w: auction is not finalized", ErrInvalidPhase)
	}
	if a.claimed {
		a.mu.Unlock()
		return ErrAlreadyClaimed
	}
	bid, ok := a.bids[caller]
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	if a.decryptedWinningTicket == nil || bid.Ticket != *a.decryptedWinningTicket {
		a.mu.Unlock()
		return ErrNotWinner
	}

	a.claimed = true
	asset := a.asset
	a.events.Emit(Event{Kind: EventClaimed, Bidder: caller, At: a.now()})
	a.mu.Unlock()

	log.Printf("INFO: Asset claim committed: winner=%s collection=%s token=%s", caller, asset.Collection, asset.TokenID)

	if err := a.transferor.Transfer(caller, asset); err != nil {
		return fmt.Errorf("asset transfer: %w", err)
	}
	return nil
}
