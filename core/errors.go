package core

import "errors"

// Failure taxonomy for the auction entry points. Every failure is scoped to
// the call that produced it; committed state is never rolled back or
// partially mutated.
var (
	// ErrInvalidPhase is returned when a call is made outside its legal
	// lifecycle state.
	ErrInvalidPhase = errors.New("operation not legal in current auction phase")

	// ErrDuplicateBid is returned when an address that already bid submits
	// again. Bids are single-shot: revision would leak bidder intent.
	ErrDuplicateBid = errors.New("bidder has already placed a bid")

	// ErrInvalidProof is returned when a ciphertext input proof or a reveal
	// proof fails verification.
	ErrInvalidProof = errors.New("proof verification failed")

	// ErrDuplicateRequest is returned when decryption of the winning ticket
	// has already been requested.
	ErrDuplicateRequest = errors.New("decryption already requested")

	// ErrStaleCallback is returned when a decryption callback carries a
	// request id that does not match the outstanding request.
	ErrStaleCallback = errors.New("callback request id does not match outstanding request")

	// ErrNotWinner is returned when claim is attempted by a registered
	// bidder who did not win.
	ErrNotWinner = errors.New("caller is not the auction winner")

	// ErrAlreadyClaimed is returned when the asset has already been claimed.
	ErrAlreadyClaimed = errors.New("asset already claimed")

	// ErrUnauthorized is returned when the caller lacks the required
	// relation to the auction record.
	ErrUnauthorized = errors.New("caller is not a registered bidder")
)
