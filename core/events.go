package core

import (
	"log"
	"time"
)

// EventKind identifies an observable auction event for off-host indexing.
type EventKind string

const (
	EventBidPlaced           EventKind = "bid_placed"
	EventAuctionEnded        EventKind = "auction_ended"
	EventDecryptionRequested EventKind = "decryption_requested"
	EventFinalized           EventKind = "finalized"
	EventClaimed             EventKind = "claimed"
)

// Event is one observable state change. Only the fields relevant to the kind
// are populated.
type Event struct {
	Kind      EventKind `json:"kind"`
	Bidder    string    `json:"bidder,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Ticket    uint64    `json:"ticket,omitempty"`
	At        time.Time `json:"at"`
}

// EventSink receives auction events. Emit is called while the auction's
// internal state is already committed, so sinks observe effects in order.
type EventSink interface {
	Emit(e Event)
}

// logSink is the default sink: it writes events to the process log.
type logSink struct{}

func (logSink) Emit(e Event) {
	switch e.Kind {
	case EventBidPlaced:
		log.Printf("INFO: Event %s: bidder=%s", e.Kind, e.Bidder)
	case EventDecryptionRequested:
		log.Printf("INFO: Event %s: request_id=%s", e.Kind, e.RequestID)
	case EventFinalized:
		log.Printf("INFO: Event %s: winning_ticket=%d", e.Kind, e.Ticket)
	case EventClaimed:
		log.Printf("INFO: Event %s: winner=%s", e.Kind, e.Bidder)
	default:
		log.Printf("INFO: Event %s", e.Kind)
	}
}
