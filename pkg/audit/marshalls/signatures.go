package marshalls

import (
	"context"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

// signaturesMarshall verifies the registry's signatures over the resolved
// version. A cryptographic verdict (bad signature, unknown or expired key)
// blocks; an unreachable key endpoint fails open with a Warning so a
// verification-infrastructure outage cannot silently block all installs,
// while still telling the user verification did not occur.
type signaturesMarshall struct {
	client registry.Client
}

func (*signaturesMarshall) Name() string { return "signatures" }

func (*signaturesMarshall) Category() audit.Category { return audit.CategorySupplyChainSecurity }

func (*signaturesMarshall) Title() string { return "Verifying registry signatures" }

func (s *signaturesMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	m, err := s.client.Manifest(ctx, pkg.Name, pkg.Specifier)
	if err != nil {
		return audit.Result{}, err
	}

	if len(m.Meta.Dist.Signatures) == 0 {
		return audit.Warningf("%s carries no registry signatures", m.ID()), nil
	}

	if _, err := s.client.VerifyManifestSignatures(ctx, m); err != nil {
		if isTrustFailure(err) {
			return audit.Errorf("%s", err.Error()), nil
		}
		return audit.Warningf("could not verify signatures for %s: %v", m.ID(), err), nil
	}

	return audit.Pass(), nil
}
