package registry

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
)

// AttestationCollection is the bundle collection the registry serves for one
// concrete package version.
type AttestationCollection struct {
	Attestations []Attestation `json:"attestations"`
}

// Attestation is a DSSE envelope plus verification material asserting
// provenance about a built artifact.
type Attestation struct {
	PredicateType string `json:"predicateType"`
	Bundle        Bundle `json:"bundle"`
}

// Bundle is the sigstore-style carrier for one attestation.
type Bundle struct {
	MediaType            string               `json:"mediaType,omitempty"`
	VerificationMaterial VerificationMaterial `json:"verificationMaterial"`
	DSSEEnvelope         Envelope             `json:"dsseEnvelope"`
}

// VerificationMaterial carries the signing certificate and transparency-log
// entries backing a bundle.
type VerificationMaterial struct {
	Certificate *RawCertificate `json:"certificate,omitempty"`

	X509CertificateChain *struct {
		Certificates []RawCertificate `json:"certificates"`
	} `json:"x509CertificateChain,omitempty"`

	TlogEntries []TlogEntry `json:"tlogEntries,omitempty"`
}

// RawCertificate is a base64 DER certificate.
type RawCertificate struct {
	RawBytes string `json:"rawBytes"`
}

// TlogEntry is a transparency-log inclusion record. Protobuf-flavored JSON
// renders the integration time as a decimal string.
type TlogEntry struct {
	IntegratedTime string `json:"integratedTime"`
}

// Envelope is a DSSE signed statement wrapper.
type Envelope struct {
	Payload     string              `json:"payload"`
	PayloadType string              `json:"payloadType"`
	Signatures  []EnvelopeSignature `json:"signatures"`
}

// EnvelopeSignature is one signature over the envelope's encoded body.
type EnvelopeSignature struct {
	KeyID string `json:"keyid,omitempty"`
	Sig   string `json:"sig"`
}

// Statement is the decoded in-toto statement inside a DSSE payload.
type Statement struct {
	Type          string    `json:"_type"`
	PredicateType string    `json:"predicateType"`
	Subject       []Subject `json:"subject"`
}

// Subject identifies the artifact a statement speaks about.
type Subject struct {
	Name   string            `json:"name"`
	Digest map[string]string `json:"digest"`
}

// Statement decodes the envelope's base64 JSON payload.
func (a *Attestation) Statement() (*Statement, error) {
	raw, err := base64.StdEncoding.DecodeString(a.Bundle.DSSEEnvelope.Payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode DSSE payload")
	}

	var stmt Statement
	if err := json.Unmarshal(raw, &stmt); err != nil {
		return nil, errors.Wrap(err, "failed to parse in-toto statement")
	}

	return &stmt, nil
}

// KeyID returns the keyid of the envelope's first signature, empty when the
// bundle relies on its signing certificate instead of a delegatable key.
func (a *Attestation) KeyID() string {
	if len(a.Bundle.DSSEEnvelope.Signatures) == 0 {
		return ""
	}
	return a.Bundle.DSSEEnvelope.Signatures[0].KeyID
}

// IntegratedTime returns the bundle's transparency-log integration time, or
// the zero time when no tlog entry is present.
func (a *Attestation) IntegratedTime() time.Time {
	for _, e := range a.Bundle.VerificationMaterial.TlogEntries {
		if e.IntegratedTime == "" {
			continue
		}
		secs, err := strconv.ParseInt(e.IntegratedTime, 10, 64)
		if err != nil {
			continue
		}
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}

// Verifier is the cryptographic proof primitive attestation verification
// delegates to. key is a selector hint: non-nil when the envelope's keyid
// matched a registry key, nil on the certificate-based path.
type Verifier interface {
	Verify(ctx context.Context, att *Attestation, key *Key) error
}

// DSSEVerifier verifies DSSE envelopes with ECDSA P-256 over the DSSE
// pre-authentication encoding. It is the default Verifier.
type DSSEVerifier struct{}

// Verify checks the envelope's first signature. With a key hint the key
// material is used directly; without one the public key is lifted from the
// bundle's signing certificate, preserving the keyid-less acceptance path.
func (DSSEVerifier) Verify(_ context.Context, att *Attestation, key *Key) error {
	env := att.Bundle.DSSEEnvelope
	if len(env.Signatures) == 0 {
		return errors.New("envelope carries no signatures")
	}

	payload, err := base64.StdEncoding.DecodeString(env.Payload)
	if err != nil {
		return errors.Wrap(err, "failed to decode DSSE payload")
	}

	var publicKey *ecdsa.PublicKey
	if key != nil {
		publicKey, err = key.PublicKey()
	} else {
		publicKey, err = att.certificateKey()
	}
	if err != nil {
		return err
	}

	return verifyECDSA(publicKey, env.Signatures[0].Sig, pae(env.PayloadType, payload))
}

// certificateKey extracts the ECDSA public key from the bundle's signing
// certificate.
func (a *Attestation) certificateKey() (*ecdsa.PublicKey, error) {
	var raw string
	switch {
	case a.Bundle.VerificationMaterial.Certificate != nil:
		raw = a.Bundle.VerificationMaterial.Certificate.RawBytes
	case a.Bundle.VerificationMaterial.X509CertificateChain != nil &&
		len(a.Bundle.VerificationMaterial.X509CertificateChain.Certificates) > 0:
		raw = a.Bundle.VerificationMaterial.X509CertificateChain.Certificates[0].RawBytes
	default:
		return nil, errors.New("bundle carries neither a keyid nor a signing certificate")
	}

	der, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode signing certificate")
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse signing certificate")
	}

	publicKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("signing certificate key is not of type ECDSA")
	}

	return publicKey, nil
}

// pae computes the DSSE v1 pre-authentication encoding.
func pae(payloadType string, payload []byte) []byte {
	return fmt.Appendf(nil, "DSSEv1 %d %s %d %s", len(payloadType), payloadType, len(payload), payload)
}

// VerifyAttestations checks every bundle in the collection against the
// manifest and key set. The statement subject must match the package's purl
// and the tarball integrity digest before the cryptographic proof is even
// consulted. Any failure for any bundle fails the whole collection, carrying
// the predicate type and keyid for diagnostics.
func VerifyAttestations(ctx context.Context, m *Manifest, coll *AttestationCollection, keys KeySet, verifier Verifier) error {
	if verifier == nil {
		verifier = DSSEVerifier{}
	}

	integrity, err := m.IntegrityDigest()
	if err != nil {
		return &VerificationError{PackageID: m.ID(), Err: err}
	}

	for i := range coll.Attestations {
		att := &coll.Attestations[i]

		stmt, err := att.Statement()
		if err != nil {
			return &VerificationError{PackageID: m.ID(), PredicateType: att.PredicateType, KeyID: att.KeyID(), Err: err}
		}

		var keyHint *Key
		if keyid := att.KeyID(); keyid != "" {
			keyHint = keys.Find(keyid)
			if keyHint == nil {
				return &MissingKeyError{PackageID: m.ID(), KeyID: keyid, PredicateType: att.PredicateType}
			}

			effective := publishTimeCutoff
			if it := att.IntegratedTime(); !it.IsZero() {
				effective = it
			}
			if expiry, expired := keyHint.ExpiredBefore(effective); expired {
				return &ExpiredKeyError{PackageID: m.ID(), KeyID: keyid, Expired: expiry, Effective: effective}
			}
		}

		if err := matchSubject(m, att, stmt, integrity); err != nil {
			return err
		}

		if err := verifier.Verify(ctx, att, keyHint); err != nil {
			return &VerificationError{PackageID: m.ID(), PredicateType: att.PredicateType, KeyID: att.KeyID(), Err: err}
		}
	}

	return nil
}

func matchSubject(m *Manifest, att *Attestation, stmt *Statement, integrity digest.Digest) error {
	if len(stmt.Subject) == 0 {
		return &SubjectMismatchError{PackageID: m.ID(), PredicateType: att.PredicateType, Detail: "statement has no subject"}
	}

	subject := stmt.Subject[0]
	if subject.Name != m.Purl() {
		return &SubjectMismatchError{
			PackageID:     m.ID(),
			PredicateType: att.PredicateType,
			Detail:        fmt.Sprintf("subject %q does not identify %q", subject.Name, m.Purl()),
		}
	}

	if subject.Digest["sha512"] != integrity.Encoded() {
		return &SubjectMismatchError{
			PackageID:     m.ID(),
			PredicateType: att.PredicateType,
			Detail:        "subject sha512 digest does not match tarball integrity",
		}
	}

	return nil
}
