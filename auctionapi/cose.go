package auctionapi

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudx-io/sealedbid/auctionapi/parsing"
)

// AttestationCOSE holds raw COSE_Sign1 attestation bytes as produced by the
// NSM.
type AttestationCOSE []byte

// AttestationCOSEBase64 is the base64 transport encoding of AttestationCOSE.
type AttestationCOSEBase64 string

// EncodeBase64 encodes raw COSE bytes for JSON transport.
func (a AttestationCOSE) EncodeBase64() AttestationCOSEBase64 {
	return AttestationCOSEBase64(base64.StdEncoding.EncodeToString(a))
}

// Decode decodes the base64 transport encoding back to raw COSE bytes.
func (a AttestationCOSEBase64) Decode() (AttestationCOSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(a))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return AttestationCOSE(data), nil
}

// String returns the base64 string form.
func (a AttestationCOSEBase64) String() string {
	return string(a)
}

// ParseAttestationDoc extracts the COSE_Sign1 payload, parses the nested
// CBOR attestation document and returns the structured document plus the
// embedded user data bytes for type-specific parsing.
func (a AttestationCOSE) ParseAttestationDoc() (AttestationDoc, []byte, error) {
	payload, err := parsing.ExtractCOSEPayload(a)
	if err != nil {
		return AttestationDoc{}, nil, fmt.Errorf("extract COSE payload: %w", err)
	}

	var raw parsing.NitroAttestationDocument
	if err := cbor.Unmarshal(payload, &raw); err != nil {
		return AttestationDoc{}, nil, fmt.Errorf("parse attestation document CBOR: %w", err)
	}

	doc := AttestationDoc{
		ModuleID:        raw.ModuleID,
		Timestamp:       time.UnixMilli(int64(raw.Timestamp)),
		DigestAlgorithm: raw.Digest,
		PCRs:            extractPCRs(raw.PCRs),
		Certificate:     base64.StdEncoding.EncodeToString(raw.Certificate),
		CABundle:        parsing.EncodeCertificateBundle(raw.CABundle),
		PublicKey:       base64.StdEncoding.EncodeToString(raw.PublicKey),
		Nonce:           string(raw.Nonce),
	}

	return doc, raw.UserData, nil
}

// extractPCRs maps the raw CBOR PCR registers into the structured form.
func extractPCRs(rawPCRs map[uint64][]byte) PCRs {
	return PCRs{
		ImageFileHash:   parsing.FormatPCR(rawPCRs[0]),
		KernelHash:      parsing.FormatPCR(rawPCRs[1]),
		ApplicationHash: parsing.FormatPCR(rawPCRs[2]),
		IAMRoleHash:     parsing.FormatPCR(rawPCRs[3]),
		InstanceIDHash:  parsing.FormatPCR(rawPCRs[4]),
		SigningCertHash: parsing.FormatPCR(rawPCRs[8]),
	}
}
