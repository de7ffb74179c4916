package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cloudx-io/sealedbid/fhe"
	"github.com/cloudx-io/sealedbid/validation"
)

// revealFile is the on-disk form of a reveal, as relayed from the enclave's
// fetch_reveal response.
type revealFile struct {
	RequestID       string `json:"request_id"`
	Plaintext       uint64 `json:"plaintext"`
	ProofCOSEBase64 string `json:"proof_cose_base64"`
}

func main() {
	var (
		revealPath = flag.String("reveal", "", "Path to reveal JSON file (required)")
		keyPath    = flag.String("verification-key", "", "Path to reveal verification key PEM file (required)")
		help       = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	if *help || *revealPath == "" || *keyPath == "" {
		showUsage()
		if *revealPath == "" || *keyPath == "" {
			os.Exit(1)
		}
		os.Exit(0)
	}

	reveal, err := readReveal(*revealPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading reveal: %v\n", err)
		os.Exit(2)
	}

	keyPEM, err := os.ReadFile(*keyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading verification key: %v\n", err)
		os.Exit(2)
	}

	result, err := validation.ValidateReveal(*reveal, string(keyPEM))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	for _, detail := range result.ValidationDetails {
		fmt.Println(detail)
	}

	if !result.IsValid() {
		fmt.Println("VALIDATION: FAILED")
		os.Exit(1)
	}
	fmt.Println("VALIDATION: PASSED")
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Auction Reveal Validator")
	fmt.Println("")
	fmt.Println("Verifies a winning-ticket reveal against the oracle's verification key:")
	fmt.Println("the COSE signature must verify and the signed payload must match the")
	fmt.Println("claimed request id and plaintext.")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  reveal-validator --reveal <path> --verification-key <pem> [options]")
	fmt.Println("")
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readReveal(path string) (*fhe.Reveal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file revealFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	proof, err := base64.StdEncoding.DecodeString(file.ProofCOSEBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode proof: %w", err)
	}

	return &fhe.Reveal{
		RequestID: file.RequestID,
		Plaintext: file.Plaintext,
		Proof:     proof,
	}, nil
}
