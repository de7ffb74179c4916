package main

import (
	"encoding/base64"
	"fmt"
	"log"

	"github.com/cloudx-io/sealedbid/auctionapi"
	"github.com/cloudx-io/sealedbid/core"
	"github.com/cloudx-io/sealedbid/fhe"
)

// AuctionService wires one auction contract to its encrypted-value engine
// and reveal oracle. Everything sensitive (engine plaintexts, reveal signing
// key) stays inside the enclave boundary.
type AuctionService struct {
	auction    *core.Auction
	engine     *fhe.SecureEngine
	oracle     *fhe.RevealOracle
	contractID string
}

// custodyBridge signals asset release. Actual custody and transfer mechanics
// live outside the enclave; the auction core only needs the success signal.
type custodyBridge struct{}

func (custodyBridge) Transfer(winner string, asset core.AssetRef) error {
	log.Printf("INFO: Asset release signaled: winner=%s collection=%s token=%s", winner, asset.Collection, asset.TokenID)
	return nil
}

// NewAuctionService builds the contract, engine and oracle for one auction
// instance from its configuration and key material.
func NewAuctionService(cfg *auctionConfig, keyManager *KeyManager) (*AuctionService, error) {
	engine := fhe.NewSecureEngineFromKey(keyManager.encryptionKey)
	oracle := fhe.NewRevealOracle(engine, keyManager.revealKey)

	auction, err := core.NewAuction(core.Config{
		Seller:     cfg.Seller,
		Asset:      cfg.Asset,
		StartTime:  cfg.StartTime,
		EndTime:    cfg.EndTime,
		MinBid:     cfg.MinBid,
		ContractID: cfg.ContractID,
		Capability: engine,
		Verifier:   fhe.NewCoseRevealVerifier(oracle.VerificationKey()),
		Transferor: custodyBridge{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	return &AuctionService{
		auction:    auction,
		engine:     engine,
		oracle:     oracle,
		contractID: cfg.ContractID,
	}, nil
}

func statusResponse(responseType string, err error) auctionapi.StatusResponse {
	if err != nil {
		return auctionapi.StatusResponse{Type: responseType, Success: false, Message: err.Error()}
	}
	return auctionapi.StatusResponse{Type: responseType, Success: true}
}

func (s *AuctionService) handleBid(req auctionapi.BidRequest) auctionapi.StatusResponse {
	if req.EncryptedAmount == nil {
		return auctionapi.StatusResponse{Type: "bid_response", Success: false, Message: "encrypted amount is required"}
	}

	ctBytes, err := req.EncryptedAmount.Marshal()
	if err != nil {
		return auctionapi.StatusResponse{Type: "bid_response", Success: false, Message: err.Error()}
	}

	proof, err := req.DecodeProof()
	if err != nil {
		return auctionapi.StatusResponse{Type: "bid_response", Success: false, Message: err.Error()}
	}

	err = s.auction.SubmitBid(req.Bidder, ctBytes, proof)
	if err != nil {
		log.Printf("INFO: Bid rejected: bidder=%s reason=%v", req.Bidder, err)
	}
	return statusResponse("bid_response", err)
}

func (s *AuctionService) handleEndAuction() auctionapi.StatusResponse {
	return statusResponse("end_auction_response", s.auction.EndAuction())
}

func (s *AuctionService) handleRequestDecryption() auctionapi.DecryptionRequestResponse {
	requestID, err := s.auction.RequestDecryption()
	if err != nil {
		return auctionapi.DecryptionRequestResponse{
			Type:    "request_decryption_response",
			Success: false,
			Message: err.Error(),
		}
	}
	return auctionapi.DecryptionRequestResponse{
		Type:      "request_decryption_response",
		Success:   true,
		RequestID: requestID,
	}
}

func (s *AuctionService) handleFetchReveal(req auctionapi.FetchRevealRequest) auctionapi.RevealResponse {
	reveal, err := s.oracle.Resolve(req.RequestID)
	if err != nil {
		return auctionapi.RevealResponse{
			Type:    "reveal_response",
			Success: false,
			Message: err.Error(),
		}
	}
	return auctionapi.RevealResponse{
		Type:            "reveal_response",
		Success:         true,
		RequestID:       reveal.RequestID,
		Plaintext:       reveal.Plaintext,
		ProofCOSEBase64: base64.StdEncoding.EncodeToString(reveal.Proof),
	}
}

func (s *AuctionService) handleDecryptionCallback(req auctionapi.DecryptionCallbackRequest) auctionapi.StatusResponse {
	proof, err := base64.StdEncoding.DecodeString(req.ProofCOSEBase64)
	if err != nil {
		return auctionapi.StatusResponse{
			Type:    "decryption_callback_response",
			Success: false,
			Message: fmt.Sprintf("decode reveal proof: %v", err),
		}
	}

	err = s.auction.DecryptionCallback(req.RequestID, req.Plaintext, proof)
	if err != nil {
		log.Printf("INFO: Decryption callback rejected: request_id=%s reason=%v", req.RequestID, err)
	}
	return statusResponse("decryption_callback_response", err)
}

func (s *AuctionService) handleClaim(req auctionapi.ClaimRequest) auctionapi.StatusResponse {
	err := s.auction.Claim(req.Bidder)
	if err != nil {
		log.Printf("INFO: Claim rejected: bidder=%s reason=%v", req.Bidder, err)
	}
	return statusResponse("claim_response", err)
}

func (s *AuctionService) handleAuctionInfo() auctionapi.AuctionInfoResponse {
	info := s.auction.Info()
	return auctionapi.AuctionInfoResponse{
		Type:        "auction_info_response",
		Seller:      info.Seller,
		Collection:  info.Asset.Collection,
		TokenID:     info.Asset.TokenID,
		StartTime:   info.StartTime,
		EndTime:     info.EndTime,
		MinBid:      info.MinBid,
		BidderCount: info.BidderCount,
		State:       info.State,
	}
}

func (s *AuctionService) handleTimeRemaining() auctionapi.TimeRemainingResponse {
	return auctionapi.TimeRemainingResponse{
		Type:             "time_remaining_response",
		SecondsRemaining: int64(s.auction.TimeRemaining().Seconds()),
	}
}
