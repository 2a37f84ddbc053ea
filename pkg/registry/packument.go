package registry

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
)

// Packument is the registry metadata document for one package, covering all
// published versions.
type Packument struct {
	Name        string                 `json:"name"`
	DistTags    map[string]string      `json:"dist-tags"`
	Versions    map[string]VersionMeta `json:"versions"`
	Time        map[string]string      `json:"time"`
	Author      *Person                `json:"author,omitempty"`
	Maintainers []Person               `json:"maintainers,omitempty"`
	Repository  *Repository            `json:"repository,omitempty"`
	Readme      string                 `json:"readme,omitempty"`
}

// VersionMeta is the metadata block for a single published version.
type VersionMeta struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	Deprecated Deprecation       `json:"deprecated,omitempty"`
	Scripts    map[string]string `json:"scripts,omitempty"`
	Dist       Dist              `json:"dist"`
}

// Dist describes the distributable artifact of a version.
type Dist struct {
	Integrity    string           `json:"integrity,omitempty"`
	Tarball      string           `json:"tarball,omitempty"`
	Signatures   []Signature      `json:"signatures,omitempty"`
	Attestations *AttestationsRef `json:"attestations,omitempty"`
}

// Signature is a registry signature over "{name}@{version}:{integrity}".
type Signature struct {
	KeyID string `json:"keyid"`
	Sig   string `json:"sig"`
}

// AttestationsRef points at the attestation bundle collection for a version.
type AttestationsRef struct {
	URL        string `json:"url,omitempty"`
	Provenance *struct {
		PredicateType string `json:"predicateType"`
	} `json:"provenance,omitempty"`
}

// Deprecation is the registry deprecation marker. Legacy documents carry a
// bool, current ones a message string; both decode into this type.
type Deprecation struct {
	Deprecated bool
	Message    string
}

func (d *Deprecation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Deprecated = s != ""
		d.Message = s
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		d.Deprecated = b
		return nil
	}

	return errors.Errorf("unexpected deprecated field: %s", string(data))
}

// Person is an author or maintainer entry. Registries serve both the object
// form and a bare display string.
type Person struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

func (p *Person) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Name = s
		return nil
	}

	type person Person
	var obj person
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = Person(obj)
	return nil
}

// Repository is a version-control pointer, either an object or a bare URL
// string.
type Repository struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

func (r *Repository) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URL = s
		return nil
	}

	type repository Repository
	var obj repository
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = Repository(obj)
	return nil
}

// Manifest is a packument narrowed to one resolved, concrete version. All
// trust checks operate on a Manifest so range specifiers can never leak into
// request paths or signed messages.
type Manifest struct {
	Name    string
	Version string
	Meta    VersionMeta

	// PublishTime is nil when the packument's time map lacks the version.
	PublishTime *time.Time

	// Created is the package's first-publish time, when known.
	Created *time.Time

	// VerifiedSignatures is populated by VerifySignatures on success.
	VerifiedSignatures []Signature
}

// ID returns the canonical "{name}@{version}" package identifier.
func (m *Manifest) ID() string {
	return m.Name + "@" + m.Version
}

// Purl returns the package URL attestation subjects are matched against.
func (m *Manifest) Purl() string {
	name := m.Name
	if strings.HasPrefix(name, "@") {
		name = "%40" + strings.TrimPrefix(name, "@")
	}
	return "pkg:npm/" + name + "@" + m.Version
}

// IntegrityDigest converts the dist integrity value ("sha512-<base64>") to
// its canonical hex-encoded digest form.
func (m *Manifest) IntegrityDigest() (digest.Digest, error) {
	alg, b64, ok := strings.Cut(m.Meta.Dist.Integrity, "-")
	if !ok || alg != "sha512" {
		return "", errors.Errorf("unsupported integrity value %q", m.Meta.Dist.Integrity)
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode integrity digest")
	}

	return digest.NewDigestFromEncoded(digest.SHA512, hex.EncodeToString(raw)), nil
}

// EscapeName escapes a package name for use in a registry request path.
// Scoped names keep the leading "@" but escape the scope separator.
func EscapeName(name string) string {
	if strings.HasPrefix(name, "@") {
		return strings.Replace(name, "/", "%2F", 1)
	}
	return url.PathEscape(name)
}

func parseISOTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid registry timestamp %q", s)
	}
	return &t, nil
}
