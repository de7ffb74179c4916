package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/cloudx-io/sealedbid/core"
)

// auctionConfig is the per-instance configuration loaded from the
// environment when the enclave starts. One enclave process hosts one
// auction; running several auctions means running several instances.
type auctionConfig struct {
	Seller     string
	Asset      core.AssetRef
	StartTime  time.Time
	EndTime    time.Time
	MinBid     uint64
	ContractID string
	MaxWorkers int
}

func loadAuctionConfig() (*auctionConfig, error) {
	seller, err := getRequiredEnv("AUCTION_SELLER")
	if err != nil {
		return nil, err
	}
	collection, err := getRequiredEnv("AUCTION_COLLECTION")
	if err != nil {
		return nil, err
	}
	tokenID, err := getRequiredEnv("AUCTION_TOKEN_ID")
	if err != nil {
		return nil, err
	}
	contractID, err := getRequiredEnv("AUCTION_CONTRACT_ID")
	if err != nil {
		return nil, err
	}

	startUnix, err := getRequiredEnvInt("AUCTION_START_UNIX")
	if err != nil {
		return nil, err
	}
	endUnix, err := getRequiredEnvInt("AUCTION_END_UNIX")
	if err != nil {
		return nil, err
	}
	if endUnix <= startUnix {
		return nil, fmt.Errorf("AUCTION_END_UNIX (%d) must be after AUCTION_START_UNIX (%d)", endUnix, startUnix)
	}

	minBid, err := getRequiredEnvUint64("AUCTION_MIN_BID")
	if err != nil {
		return nil, err
	}

	maxWorkers, err := getRequiredEnvInt("ENCLAVE_MAX_WORKERS")
	if err != nil {
		return nil, err
	}

	return &auctionConfig{
		Seller:     seller,
		Asset:      core.AssetRef{Collection: collection, TokenID: tokenID},
		StartTime:  time.Unix(int64(startUnix), 0),
		EndTime:    time.Unix(int64(endUnix), 0),
		MinBid:     minBid,
		ContractID: contractID,
		MaxWorkers: maxWorkers,
	}, nil
}

func getRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

// Helper function for required environment variable parsing
func getRequiredEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("required environment variable %s is not set", key)
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", key, value)
	}

	log.Printf("INFO: Using %s=%d from environment", key, intValue)
	return intValue, nil
}

func getRequiredEnvUint64(key string) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("required environment variable %s is not set", key)
	}

	uintValue, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a non-negative integer)", key, value)
	}

	log.Printf("INFO: Using %s=%d from environment", key, uintValue)
	return uintValue, nil
}
