package registry

import (
	"github.com/Masterminds/semver/v3"
)

// ResolveVersion resolves a version specifier against a packument. Dist-tags
// win over semver interpretation; anything that is not a known dist-tag is
// treated as a semver constraint and resolved to the maximum satisfying
// published version. The result is always a concrete version present in the
// packument's versions map, so callers can never put a range on the wire.
func ResolveVersion(pac *Packument, specifier string) (string, error) {
	if specifier == "" || specifier == "*" {
		specifier = "latest"
	}

	if tagged, ok := pac.DistTags[specifier]; ok {
		if _, ok := pac.Versions[tagged]; !ok {
			return "", &NotFoundError{Package: pac.Name, Specifier: specifier}
		}
		return tagged, nil
	}

	constraint, err := semver.NewConstraint(specifier)
	if err != nil {
		// Neither a dist-tag nor a parseable range.
		return "", &NotFoundError{Package: pac.Name, Specifier: specifier}
	}

	var best *semver.Version
	bestRaw := ""
	for raw := range pac.Versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if constraint.Check(v) && (best == nil || v.GreaterThan(best)) {
			best = v
			bestRaw = raw
		}
	}

	if best == nil {
		return "", &NotFoundError{Package: pac.Name, Specifier: specifier}
	}

	return bestRaw, nil
}
