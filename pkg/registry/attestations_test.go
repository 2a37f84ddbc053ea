package registry

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const predicateProvenance = "https://slsa.dev/provenance/v1"

func attestedManifest(t *testing.T) *Manifest {
	t.Helper()

	sum := sha512.Sum512([]byte("tarball-bytes"))

	return &Manifest{
		Name:    "pkg",
		Version: "1.0.0",
		Meta: VersionMeta{
			Version: "1.0.0",
			Dist:    Dist{Integrity: "sha512-" + base64.StdEncoding.EncodeToString(sum[:])},
		},
	}
}

func statementFor(t *testing.T, m *Manifest, subjectName, digestHex string) []byte {
	t.Helper()

	stmt := Statement{
		Type:          "https://in-toto.io/Statement/v1",
		PredicateType: predicateProvenance,
		Subject: []Subject{{
			Name:   subjectName,
			Digest: map[string]string{"sha512": digestHex},
		}},
	}

	raw, err := json.Marshal(stmt)
	require.NoError(t, err)
	return raw
}

func bundleFor(t *testing.T, priv *ecdsa.PrivateKey, keyID string, payload []byte) Attestation {
	t.Helper()

	const payloadType = "application/vnd.in-toto+json"
	encoded := base64.StdEncoding.EncodeToString(payload)

	att := Attestation{
		PredicateType: predicateProvenance,
		Bundle: Bundle{
			DSSEEnvelope: Envelope{
				Payload:     encoded,
				PayloadType: payloadType,
				Signatures: []EnvelopeSignature{{
					KeyID: keyID,
					Sig:   signMessage(t, priv, pae(payloadType, payload)),
				}},
			},
			VerificationMaterial: VerificationMaterial{
				TlogEntries: []TlogEntry{{IntegratedTime: "1700000000"}},
			},
		},
	}

	return att
}

func goodDigestHex(m *Manifest) string {
	sum := sha512.Sum512([]byte("tarball-bytes"))
	return hex.EncodeToString(sum[:])
}

func TestVerifyAttestations(t *testing.T) {
	key, priv := genKey(t, "k1", nil)
	m := attestedManifest(t)

	payload := statementFor(t, m, m.Purl(), goodDigestHex(m))
	coll := &AttestationCollection{Attestations: []Attestation{bundleFor(t, priv, "k1", payload)}}

	err := VerifyAttestations(context.Background(), m, coll, KeySet{key}, nil)
	require.NoError(t, err)
}

func TestVerifyAttestationsSubjectNameMismatch(t *testing.T) {
	key, priv := genKey(t, "k1", nil)
	m := attestedManifest(t)

	// The proof is valid over the statement, but the statement talks
	// about a different package. Subject matching must win.
	payload := statementFor(t, m, "pkg:npm/other@1.0.0", goodDigestHex(m))
	coll := &AttestationCollection{Attestations: []Attestation{bundleFor(t, priv, "k1", payload)}}

	err := VerifyAttestations(context.Background(), m, coll, KeySet{key}, nil)

	var mismatch *SubjectMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, predicateProvenance, mismatch.PredicateType)
}

func TestVerifyAttestationsSubjectDigestMismatch(t *testing.T) {
	key, priv := genKey(t, "k1", nil)
	m := attestedManifest(t)

	other := sha512.Sum512([]byte("different-tarball"))
	payload := statementFor(t, m, m.Purl(), hex.EncodeToString(other[:]))
	coll := &AttestationCollection{Attestations: []Attestation{bundleFor(t, priv, "k1", payload)}}

	err := VerifyAttestations(context.Background(), m, coll, KeySet{key}, nil)

	var mismatch *SubjectMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestVerifyAttestationsMissingKey(t *testing.T) {
	_, priv := genKey(t, "k1", nil)
	m := attestedManifest(t)

	payload := statementFor(t, m, m.Purl(), goodDigestHex(m))
	coll := &AttestationCollection{Attestations: []Attestation{bundleFor(t, priv, "k1", payload)}}

	err := VerifyAttestations(context.Background(), m, coll, KeySet{}, nil)

	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, predicateProvenance, missing.PredicateType)
}

func TestVerifyAttestationsExpiredKeyAtIntegrationTime(t *testing.T) {
	// Key expired before the bundle's tlog integration time.
	expires := "2020-01-01T00:00:00.000Z"
	key, priv := genKey(t, "k1", &expires)
	m := attestedManifest(t)

	payload := statementFor(t, m, m.Purl(), goodDigestHex(m))
	coll := &AttestationCollection{Attestations: []Attestation{bundleFor(t, priv, "k1", payload)}}

	err := VerifyAttestations(context.Background(), m, coll, KeySet{key}, nil)

	var expired *ExpiredKeyError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), expired.Effective)
}

func TestVerifyAttestationsTamperedSignature(t *testing.T) {
	key, priv := genKey(t, "k1", nil)
	m := attestedManifest(t)

	payload := statementFor(t, m, m.Purl(), goodDigestHex(m))
	att := bundleFor(t, priv, "k1", payload)

	raw, err := base64.StdEncoding.DecodeString(att.Bundle.DSSEEnvelope.Signatures[0].Sig)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	att.Bundle.DSSEEnvelope.Signatures[0].Sig = base64.StdEncoding.EncodeToString(raw)

	err = VerifyAttestations(context.Background(), m, &AttestationCollection{Attestations: []Attestation{att}}, KeySet{key}, nil)

	var verification *VerificationError
	require.ErrorAs(t, err, &verification)
	assert.Equal(t, "k1", verification.KeyID)
}

func TestVerifyAttestationsCertificatePath(t *testing.T) {
	// A bundle without a keyid is accepted on the strength of its
	// signing certificate.
	_, priv := genKey(t, "", nil)
	m := attestedManifest(t)

	payload := statementFor(t, m, m.Purl(), goodDigestHex(m))
	att := bundleFor(t, priv, "", payload)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "build-signer"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	require.NoError(t, err)

	att.Bundle.VerificationMaterial.Certificate = &RawCertificate{
		RawBytes: base64.StdEncoding.EncodeToString(der),
	}

	err = VerifyAttestations(context.Background(), m, &AttestationCollection{Attestations: []Attestation{att}}, KeySet{}, nil)
	require.NoError(t, err)
}

func TestVerifyAttestationsNoKeyNoCertificate(t *testing.T) {
	_, priv := genKey(t, "", nil)
	m := attestedManifest(t)

	payload := statementFor(t, m, m.Purl(), goodDigestHex(m))
	att := bundleFor(t, priv, "", payload)

	err := VerifyAttestations(context.Background(), m, &AttestationCollection{Attestations: []Attestation{att}}, KeySet{}, nil)

	var verification *VerificationError
	require.ErrorAs(t, err, &verification)
}
