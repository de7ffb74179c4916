package main

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestKeyManager_PEMExports(t *testing.T) {
	keyManager, err := NewKeyManager()
	assert.NoError(t, err)

	encryptionPEM, err := keyManager.EncryptionKeyPEM()
	assert.NoError(t, err)
	block, _ := pem.Decode([]byte(encryptionPEM))
	assert.NotNil(t, block)
	check.Equal(t, "PUBLIC KEY", block.Type)

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	assert.NoError(t, err)
	rsaKey, ok := parsed.(*rsa.PublicKey)
	assert.True(t, ok)
	check.True(t, rsaKey.Equal(&keyManager.encryptionKey.PublicKey))
	check.Equal(t, 2048, rsaKey.N.BitLen())

	revealPEM, err := keyManager.RevealVerificationKeyPEM()
	assert.NoError(t, err)
	block, _ = pem.Decode([]byte(revealPEM))
	assert.NotNil(t, block)

	parsed, err = x509.ParsePKIXPublicKey(block.Bytes)
	assert.NoError(t, err)
	ecdsaKey, ok := parsed.(*ecdsa.PublicKey)
	assert.True(t, ok)
	check.True(t, ecdsaKey.Equal(&keyManager.revealKey.PublicKey))
}

func TestKeyManager_FreshKeysPerInstance(t *testing.T) {
	first, err := NewKeyManager()
	assert.NoError(t, err)
	second, err := NewKeyManager()
	assert.NoError(t, err)

	check.False(t, first.encryptionKey.PublicKey.Equal(&second.encryptionKey.PublicKey))
	check.False(t, first.revealKey.PublicKey.Equal(&second.revealKey.PublicKey))
}
