package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/mdlayher/vsock"

	"github.com/cloudx-io/sealedbid/auctionapi"
)

// EnclaveServer hosts one sealed-bid auction behind a vsock listener. Each
// connection carries one JSON request dispatched by its type tag.
type EnclaveServer struct {
	port       uint32
	keyManager *KeyManager
	service    *AuctionService
	config     *auctionConfig
}

func NewEnclaveServer(port uint32) *EnclaveServer {
	return &EnclaveServer{port: port}
}

func (s *EnclaveServer) Start() error {
	cfg, err := loadAuctionConfig()
	if err != nil {
		return fmt.Errorf("failed to load auction config: %w", err)
	}
	s.config = cfg

	keyManager, err := NewKeyManager()
	if err != nil {
		return fmt.Errorf("failed to initialize key manager: %w", err)
	}
	s.keyManager = keyManager
	log.Printf("KeyManager initialized")

	service, err := NewAuctionService(cfg, keyManager)
	if err != nil {
		return fmt.Errorf("failed to initialize auction service: %w", err)
	}
	s.service = service
	log.Printf("INFO: Auction initialized: contract=%s seller=%s window=[%s, %s) min_bid=%d",
		cfg.ContractID, cfg.Seller, cfg.StartTime.Format(time.RFC3339), cfg.EndTime.Format(time.RFC3339), cfg.MinBid)

	listener, err := vsock.Listen(s.port, nil)
	if err != nil {
		return fmt.Errorf("failed to create vsock listener: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	log.Printf("INFO: Auction server listening on vsock port %d", s.port)

	semaphore := make(chan struct{}, cfg.MaxWorkers)
	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", cfg.MaxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("ERROR: Failed to accept vsock connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *EnclaveServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var buf bytes.Buffer
	_, err := io.Copy(&buf, conn)
	if err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	response := s.dispatch(buf.Bytes())

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// dispatch decodes one request and routes it to the matching entry point.
func (s *EnclaveServer) dispatch(raw []byte) any {
	var baseReq struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &baseReq); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return errorResponse(fmt.Sprintf("Failed to decode request: %v", err))
	}

	log.Printf("INFO: Received request type: %s", baseReq.Type)

	switch baseReq.Type {
	case auctionapi.TypePing:
		return map[string]any{
			"type":      "pong",
			"message":   "auction server is healthy",
			"timestamp": time.Now().Unix(),
		}

	case auctionapi.TypeKeyRequest:
		attester, err := getEnclaveAttester()
		if err != nil {
			log.Printf("ERROR: Key request failed: %v", err)
			return errorResponse(fmt.Sprintf("Failed to initialize TEE attester: %v", err))
		}
		keyResp, err := HandleKeyRequest(attester, s.keyManager, s.config.ContractID)
		if err != nil {
			log.Printf("ERROR: Key request failed: %v", err)
			return errorResponse(fmt.Sprintf("Key request failed: %v", err))
		}
		return keyResp

	case auctionapi.TypeBid:
		var req auctionapi.BidRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorResponse(fmt.Sprintf("Failed to decode bid request: %v", err))
		}
		return s.service.handleBid(req)

	case auctionapi.TypeEndAuction:
		return s.service.handleEndAuction()

	case auctionapi.TypeRequestDecryption:
		return s.service.handleRequestDecryption()

	case auctionapi.TypeFetchReveal:
		var req auctionapi.FetchRevealRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorResponse(fmt.Sprintf("Failed to decode fetch reveal request: %v", err))
		}
		return s.service.handleFetchReveal(req)

	case auctionapi.TypeDecryptionCallback:
		var req auctionapi.DecryptionCallbackRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorResponse(fmt.Sprintf("Failed to decode decryption callback: %v", err))
		}
		return s.service.handleDecryptionCallback(req)

	case auctionapi.TypeClaim:
		var req auctionapi.ClaimRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorResponse(fmt.Sprintf("Failed to decode claim request: %v", err))
		}
		return s.service.handleClaim(req)

	case auctionapi.TypeAuctionInfo:
		return s.service.handleAuctionInfo()

	case auctionapi.TypeTimeRemaining:
		return s.service.handleTimeRemaining()

	default:
		return errorResponse(fmt.Sprintf("Unknown request type: %s", baseReq.Type))
	}
}

func errorResponse(message string) map[string]any {
	return map[string]any{
		"type":    "error",
		"message": message,
	}
}

func main() {
	server := NewEnclaveServer(5000)
	log.Fatal(server.Start())
}
