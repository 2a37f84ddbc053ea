// Package marshalls ships the built-in audit checks. Checks that need
// registry data go through the trust client, and hence the shared throttle.
//
// Missing-data policy is deliberately per-check: deprecation and scripts
// treat absent registry data as Pass, while age, signatures, and provenance
// degrade to Warning. Each check documents its own policy.
package marshalls

import (
	"errors"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

// All returns every built-in check, wired to the given trust client. corpus
// is the well-known package name list the typosquat check compares against;
// pass nil for the built-in popular-package corpus.
func All(client registry.Client, corpus []string) []audit.Marshall {
	if corpus == nil {
		corpus = PopularPackages
	}

	return []audit.Marshall{
		&ageMarshall{client: client},
		&maturityMarshall{client: client},
		&deprecationMarshall{client: client},
		&scriptsMarshall{client: client},
		&authorMarshall{client: client},
		&readmeMarshall{client: client},
		&repoMarshall{client: client},
		&downloadsMarshall{client: client},
		&typosquatMarshall{client: client, corpus: corpus},
		&signaturesMarshall{client: client},
		&provenanceMarshall{client: client},
		&vulnerabilitiesMarshall{client: client},
	}
}

// isTrustFailure reports whether err is a typed verification verdict rather
// than an infrastructure failure. Verdicts block; infrastructure failures
// fail open with a warning so a verification outage cannot silently block
// all installs.
func isTrustFailure(err error) bool {
	var (
		missingKey       *registry.MissingKeyError
		expiredKey       *registry.ExpiredKeyError
		invalidSignature *registry.InvalidSignatureError
		subjectMismatch  *registry.SubjectMismatchError
		verification     *registry.VerificationError
	)

	return errors.As(err, &missingKey) ||
		errors.As(err, &expiredKey) ||
		errors.As(err, &invalidSignature) ||
		errors.As(err, &subjectMismatch) ||
		errors.As(err, &verification)
}
