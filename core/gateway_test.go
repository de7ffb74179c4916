package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
)

func TestRequestDecryption_WhileOpen(t *testing.T) {
	ta := newTestAuction(t, 0)

	_, err := ta.auction.RequestDecryption()
	check.True(t, errors.Is(err, ErrInvalidPhase))
	check.Equal(t, StateOpen, ta.auction.State())
}

func TestRequestDecryption_FoldsEndTransition(t *testing.T) {
	ta := newTestAuction(t, 0)
	check.NoError(t, ta.submit(t, "alice", 10))

	// Nobody called EndAuction; the request folds the transition itself.
	ta.clock.Set(ta.end.Add(time.Second))
	requestID, err := ta.auction.RequestDecryption()
	check.NoError(t, err)
	check.NotEqual(t, "", requestID)
	check.Equal(t, StateDecryptionRequested, ta.auction.State())
}

func TestRequestDecryption_Duplicate(t *testing.T) {
	ta := newTestAuction(t, 0)
	check.NoError(t, ta.submit(t, "alice", 10))
	ta.clock.Set(ta.end.Add(time.Second))
	check.NoError(t, ta.auction.EndAuction())

	_, err := ta.auction.RequestDecryption()
	check.NoError(t, err)

	_, err = ta.auction.RequestDecryption()
	check.True(t, errors.Is(err, ErrDuplicateRequest))
}

func TestDecryptionCallback_Finalizes(t *testing.T) {
	ta := newTestAuction(t, 0)
	check.NoError(t, ta.submit(t, "alice", 10))
	check.NoError(t, ta.submit(t, "bob", 30))

	ticket := ta.finalize(t)
	check.Equal(t, uint64(2), ticket)
	check.Equal(t, StateFinalized, ta.auction.State())

	revealed, ok := ta.auction.DecryptedWinningTicket()
	check.True(t, ok)
	check.Equal(t, uint64(2), revealed)
	check.Equal(t, []EventKind{
		EventBidPlaced, EventBidPlaced, EventAuctionEnded,
		EventDecryptionRequested, EventFinalized,
	}, ta.sink.kinds())
}

func TestDecryptionCallback_WithoutRequest(t *testing.T) {
	ta := newTestAuction(t, 0)
	ta.clock.Set(ta.end.Add(time.Second))
	check.NoError(t, ta.auction.EndAuction())

	err := ta.auction.DecryptionCallback(uuid.NewString(), 1, []byte("proof"))
	check.True(t, errors.Is(err, ErrInvalidPhase))
}

func TestDecryptionCallback_StaleRequestID(t *testing.T) {
	ta := newTestAuction(t, 0)
	check.NoError(t, ta.submit(t, "alice", 10))
	ta.clock.Set(ta.end.Add(time.Second))

	requestID, err := ta.auction.RequestDecryption()
	check.NoError(t, err)

	reveal, err := ta.oracle.Resolve(requestID)
	check.NoError(t, err)

	// A well-formed reveal under the wrong correlation id is rejected.
	err = ta.auction.DecryptionCallback(uuid.NewString(), reveal.Plaintext, reveal.Proof)
	check.True(t, errors.Is(err, ErrStaleCallback))
	check.Equal(t, StateDecryptionRequested, ta.auction.State())

	_, ok := ta.auction.DecryptedWinningTicket()
	check.False(t, ok)

	// The genuine reveal still goes through afterwards.
	check.NoError(t, ta.auction.DecryptionCallback(reveal.RequestID, reveal.Plaintext, reveal.Proof))
	check.Equal(t, StateFinalized, ta.auction.State())
}

func TestDecryptionCallback_TamperedPlaintext(t *testing.T) {
	ta := newTestAuction(t, 0)
	check.NoError(t, ta.submit(t, "alice", 10))
	ta.clock.Set(ta.end.Add(time.Second))

	requestID, err := ta.auction.RequestDecryption()
	check.NoError(t, err)

	reveal, err := ta.oracle.Resolve(requestID)
	check.NoError(t, err)

	err = ta.auction.DecryptionCallback(reveal.RequestID, reveal.Plaintext+1, reveal.Proof)
	check.True(t, errors.Is(err, ErrInvalidProof))
	check.Equal(t, StateDecryptionRequested, ta.auction.State())

	// Replaying the untampered reveal succeeds: the request stays
	// outstanding until a valid callback lands.
	check.NoError(t, ta.auction.DecryptionCallback(reveal.RequestID, reveal.Plaintext, reveal.Proof))
}

func TestDecryptionCallback_AfterFinalized(t *testing.T) {
	ta := newTestAuction(t, 0)
	check.NoError(t, ta.submit(t, "alice", 10))
	ticket := ta.finalize(t)
	check.Equal(t, uint64(1), ticket)

	err := ta.auction.DecryptionCallback(uuid.NewString(), ticket, []byte("proof"))
	check.True(t, errors.Is(err, ErrInvalidPhase))
}
