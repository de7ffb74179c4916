package core

import (
	"fmt"
	"log"

	"github.com/cloudx-io/sealedbid/fhe"
)

// SubmitBid admits one sealed bid per bidder address. The ciphertext and its
// input proof are verified and imported by the capability; the ticket value
// is the bidder's position in submission order (starting at 1, never zero,
// never reused) lifted into an encrypted handle before it is stored.
//
// All effects are atomic: the capability operations run first, and the
// bidder index, bid record and resolver fields are only committed once every
// one of them has succeeded. A rejected bid leaves no trace.
func (a *Auction) SubmitBid(bidder string, ciphertext, proof []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if bidder == "" {
		return fmt.Errorf("%w: empty bidder identity", ErrUnauthorized)
	}

	now := a.now()
	if a.state != StateOpen || now.Before(a.startTime) || !now.Before(a.endTime) {
		return fmt.Errorf("%w: bidding window is closed", ErrInvalidPhase)
	}
	if _, exists := a.bids[bidder]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBid, bidder)
	}

	amount, err := a.cap.FromExternal(ciphertext, proof, fhe.Binding{
		Bidder:   bidder,
		Contract: a.contractID,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	ticket := uint64(len(a.bidderIndex)) + 1
	encryptedTicket, err := a.cap.Lift(ticket)
	if err != nil {
		return fmt.Errorf("lift ticket value: %w", err)
	}

	highestBid, winningTicket, err := a.resolve(amount, encryptedTicket)
	if err != nil {
		return fmt.Errorf("resolve winner: %w", err)
	}

	a.bidderIndex = append(a.bidderIndex, bidder)
	a.bids[bidder] = &Bid{
		Bidder:          bidder,
		EncryptedAmount: amount,
		EncryptedTicket: encryptedTicket,
		Ticket:          ticket,
		SubmittedAt:     now,
	}
	a.highestBid = highestBid
	a.winningTicket = winningTicket

	log.Printf("INFO: Bid accepted: bidder=%s ticket=%d total_bidders=%d", bidder, ticket, len(a.bidderIndex))
	a.events.Emit(Event{Kind: EventBidPlaced, Bidder: bidder, At: now})
	return nil
}

// BidderCount returns the number of admitted bids.
func (a *Auction) BidderCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bidderIndex)
}

// BidOf returns the recorded bid for an address, if any.
func (a *Auction) BidOf(bidder string) (Bid, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bid, ok := a.bids[bidder]
	if !ok {
		return Bid{}, false
	}
	return *bid, true
}
