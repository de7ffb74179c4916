package core

import (
	"time"

	"github.com/cloudx-io/sealedbid/fhe"
)

// State is the auction lifecycle phase. Claimed is a side flag on
// StateFinalized, not a separate terminal state: the auction record itself
// stays Finalized forever.
type State int

const (
	// StateOpen accepts bids within [StartTime, EndTime).
	StateOpen State = iota
	// StateEnded means bidding is closed and decryption may be requested.
	StateEnded
	// StateDecryptionRequested means the winning ticket is at the oracle.
	StateDecryptionRequested
	// StateFinalized means the winning ticket plaintext has been revealed.
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateEnded:
		return "ended"
	case StateDecryptionRequested:
		return "decryption_requested"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// AssetRef identifies the auctioned item: a collection identity plus an item
// identity within it.
type AssetRef struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
}

// Bid is one bidder's sealed bid. The amount stays an opaque handle forever;
// the ticket plaintext is retained because it derives from public submission
// order and is needed for winner claim matching.
type Bid struct {
	Bidder          string
	EncryptedAmount fhe.Value
	EncryptedTicket fhe.Value
	Ticket          uint64
	SubmittedAt     time.Time
}

// AuctionInfo is the public read surface of the auction record.
type AuctionInfo struct {
	Seller      string    `json:"seller"`
	Asset       AssetRef  `json:"asset"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MinBid      uint64    `json:"min_bid"`
	BidderCount int       `json:"bidder_count"`
	State       string    `json:"state"`
}

// AssetTransferor releases the auctioned asset to the winner. Custody
// mechanics beyond success or failure are outside the auction core.
type AssetTransferor interface {
	Transfer(winner string, asset AssetRef) error
}
