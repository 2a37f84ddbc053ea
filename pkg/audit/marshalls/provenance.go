package marshalls

import (
	"context"
	"errors"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

// provenanceMarshall verifies the build attestations published for the
// resolved version. No attestations is a Warning (most packages still ship
// without provenance); a verification verdict blocks; an unreachable
// endpoint fails open with a Warning.
type provenanceMarshall struct {
	client registry.Client
}

func (*provenanceMarshall) Name() string { return "provenance" }

func (*provenanceMarshall) Category() audit.Category { return audit.CategorySupplyChainSecurity }

func (*provenanceMarshall) Title() string { return "Verifying build attestations" }

func (p *provenanceMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	m, err := p.client.Manifest(ctx, pkg.Name, pkg.Specifier)
	if err != nil {
		return audit.Result{}, err
	}

	if err := p.client.VerifyManifestAttestations(ctx, m); err != nil {
		switch {
		case errors.Is(err, registry.ErrNoAttestations):
			return audit.Warningf("%s has no build attestations", m.ID()), nil
		case isTrustFailure(err):
			return audit.Errorf("%s", err.Error()), nil
		default:
			return audit.Warningf("could not verify attestations for %s: %v", m.ID(), err), nil
		}
	}

	return audit.Pass(), nil
}
