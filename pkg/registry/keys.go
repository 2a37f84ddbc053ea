package registry

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/base64"
	"math/big"
	"time"

	"github.com/pkg/errors"
)

const signingScheme = "ecdsa-sha2-nistp256"

// Key is one registry signing key. The key set is fetched once per process
// and shared read-only by every signature and attestation verification.
type Key struct {
	KeyID   string  `json:"keyid"`
	KeyType string  `json:"keytype"`
	Scheme  string  `json:"scheme"`
	Key     string  `json:"key"`
	Expires *string `json:"expires"`
}

// KeySet is the registry's signing key collection.
type KeySet []Key

type keysResponse struct {
	Keys KeySet `json:"keys"`
}

// Find returns the key with the given keyid, or nil.
func (ks KeySet) Find(keyid string) *Key {
	for i := range ks {
		if ks[i].KeyID == keyid {
			return &ks[i]
		}
	}
	return nil
}

// ExpiredBefore reports whether the key's validity window closed before the
// given instant, and the expiry itself. Keys without an expiry never expire.
func (k *Key) ExpiredBefore(instant time.Time) (time.Time, bool) {
	if k.Expires == nil || *k.Expires == "" {
		return time.Time{}, false
	}

	expiry, err := time.Parse(time.RFC3339, *k.Expires)
	if err != nil {
		// An unparseable expiry is treated as closed: the window
		// cannot be shown to cover the material.
		return time.Time{}, true
	}

	return expiry, expiry.Before(instant)
}

// PublicKey parses the key material into an ECDSA public key.
func (k *Key) PublicKey() (*ecdsa.PublicKey, error) {
	if k.Scheme != "" && k.Scheme != signingScheme {
		return nil, errors.Errorf("unsupported signing scheme: %s", k.Scheme)
	}

	keyBytes, err := base64.StdEncoding.DecodeString(k.Key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64 public key")
	}

	genericPublicKey, err := x509.ParsePKIXPublicKey(keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse PKIX public key")
	}

	publicKey, ok := genericPublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not of type ECDSA")
	}

	return publicKey, nil
}

type ecdsaSignature struct {
	R, S *big.Int
}

// verifyECDSA verifies a Base64 encoded ASN.1 DER signature against a
// message using the given ECDSA public key.
func verifyECDSA(publicKey *ecdsa.PublicKey, signatureBase64 string, message []byte) error {
	sigBytes, err := base64.StdEncoding.DecodeString(signatureBase64)
	if err != nil {
		return errors.Wrap(err, "failed to decode base64 signature")
	}

	var sig ecdsaSignature
	if _, err := asn1.Unmarshal(sigBytes, &sig); err != nil {
		return errors.Wrap(err, "failed to unmarshal ASN.1 signature")
	}

	hash := sha256.Sum256(message)
	if !ecdsa.Verify(publicKey, hash[:], sig.R, sig.S) {
		return errors.New("invalid signature")
	}

	return nil
}
