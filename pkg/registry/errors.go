package registry

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoAttestations reports that a version has no published attestation
// bundles. Checks decide per their own policy how this degrades.
var ErrNoAttestations = errors.New("no attestations published for this version")

// NotFoundError reports a package, dist-tag, or version that the registry
// does not know about.
type NotFoundError struct {
	Package   string
	Specifier string
}

func (e *NotFoundError) Error() string {
	if e.Specifier == "" {
		return fmt.Sprintf("package %s not found in registry", e.Package)
	}
	return fmt.Sprintf("no version of %s satisfies %q", e.Package, e.Specifier)
}

// MissingKeyError reports a signature or attestation referencing a keyid the
// registry's key set does not contain.
type MissingKeyError struct {
	PackageID     string
	KeyID         string
	PredicateType string
}

func (e *MissingKeyError) Error() string {
	if e.PredicateType != "" {
		return fmt.Sprintf("%s: attestation %s references unknown keyid %q", e.PackageID, e.PredicateType, e.KeyID)
	}
	return fmt.Sprintf("%s: signature references unknown keyid %q", e.PackageID, e.KeyID)
}

// ExpiredKeyError reports a key that expired before the timestamp relevant
// to the material it signed: the publish time for registry signatures, the
// transparency-log integration time for attestations.
type ExpiredKeyError struct {
	PackageID string
	KeyID     string
	Expired   time.Time
	Effective time.Time
}

func (e *ExpiredKeyError) Error() string {
	return fmt.Sprintf("%s: key %q expired %s, before %s", e.PackageID, e.KeyID,
		e.Expired.Format(time.RFC3339), e.Effective.Format(time.RFC3339))
}

// InvalidSignatureError reports a cryptographic mismatch between a signature
// and the message it claims to cover.
type InvalidSignatureError struct {
	PackageID string
	KeyID     string
	Reason    string
}

func (e *InvalidSignatureError) Error() string {
	msg := fmt.Sprintf("%s: invalid registry signature with keyid %q", e.PackageID, e.KeyID)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// SubjectMismatchError reports an attestation whose statement subject does
// not describe the package under audit. A valid proof over the wrong subject
// is not evidence of anything, so this is checked before proof verification.
type SubjectMismatchError struct {
	PackageID     string
	PredicateType string
	Detail        string
}

func (e *SubjectMismatchError) Error() string {
	return fmt.Sprintf("%s: attestation %s subject mismatch: %s", e.PackageID, e.PredicateType, e.Detail)
}

// VerificationError reports that the underlying cryptographic proof check
// rejected an attestation bundle.
type VerificationError struct {
	PackageID     string
	PredicateType string
	KeyID         string
	Err           error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: attestation %s (keyid %q) failed verification: %v",
		e.PackageID, e.PredicateType, e.KeyID, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }
