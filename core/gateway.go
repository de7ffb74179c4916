package core

import (
	"fmt"
	"log"
)

// RequestDecryption submits the winning ticket for decryption and records
// the correlation id for callback validation. It is legal exactly once: a
// second call fails with ErrDuplicateRequest, preventing duplicate oracle
// calls. A call while bidding is still open fails with ErrInvalidPhase; if
// the end time has passed and nobody called EndAuction yet, the transition
// is folded in here.
func (a *Auction) RequestDecryption() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.maybeEndLocked()

	switch a.state {
	case StateOpen:
		return "", fmt.Errorf("%w: auction is still open", ErrInvalidPhase)
	case StateDecryptionRequested, StateFinalized:
		return "", ErrDuplicateRequest
	}

	requestID, err := a.cap.RequestDecrypt(a.winningTicket)
	if err != nil {
		return "", fmt.Errorf("request winning ticket decryption: %w", err)
	}

	a.pendingRequestID = requestID
	a.state = StateDecryptionRequested

	log.Printf("INFO: Winning ticket decryption requested: request_id=%s", requestID)
	a.events.Emit(Event{Kind: EventDecryptionRequested, RequestID: requestID, At: a.now()})
	return requestID, nil
}

// DecryptionCallback accepts the oracle's reveal of the winning ticket. The
// call is open to anyone able to relay the oracle's message: authenticity
// comes from the correlation id and the correctness proof, not from caller
// identity. A mismatched id fails with ErrStaleCallback and an invalid proof
// with ErrInvalidProof, in both cases with no state change.
func (a *Auction) DecryptionCallback(requestID string, plaintext uint64, proof []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateDecryptionRequested {
		return fmt.Errorf("%w: no decryption request outstanding", ErrInvalidPhase)
	}
	if requestID != a.pendingRequestID {
		return fmt.Errorf("%w: got %s, outstanding %s", ErrStaleCallback, requestID, a.pendingRequestID)
	}
	if err := a.verifier.Verify(requestID, plaintext, proof); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	ticket := plaintext
	a.decryptedWinningTicket = &ticket
	a.pendingRequestID = ""
	a.state = StateFinalized

	log.Printf("INFO: Auction finalized: winning_ticket=%d", ticket)
	a.events.Emit(Event{Kind: EventFinalized, Ticket: ticket, At: a.now()})
	return nil
}

// DecryptedWinningTicket returns the revealed winning ticket value, and
// whether the reveal has happened. Ticket 0 means no bid beat the floor.
func (a *Auction) DecryptedWinningTicket() (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.decryptedWinningTicket == nil {
		return 0, false
	}
	return *a.decryptedWinningTicket, true
}
