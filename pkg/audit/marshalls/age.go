package marshalls

import (
	"context"
	"time"

	"preflight/pkg/audit"
	"preflight/pkg/registry"

	units "github.com/docker/go-units"
)

const (
	// Packages younger than this are flagged: throwaway typosquats and
	// malicious uploads are overwhelmingly fresh.
	packageAgeThreshold = 22 * 24 * time.Hour

	// Versions younger than this are flagged so a hijacked release gets
	// a chance to be yanked before it spreads.
	versionMaturityThreshold = 7 * 24 * time.Hour
)

// ageMarshall warns on recently created packages. Missing time data
// degrades to Warning: an unverifiable age is not a verified-safe age.
type ageMarshall struct {
	client registry.Client
}

func (*ageMarshall) Name() string { return "age" }

func (*ageMarshall) Category() audit.Category { return audit.CategoryPackageHealth }

func (*ageMarshall) Title() string { return "Checking package age" }

func (a *ageMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	m, err := a.client.Manifest(ctx, pkg.Name, pkg.Specifier)
	if err != nil {
		return audit.Result{}, err
	}

	if m.Created == nil {
		return audit.Warningf("the registry has no creation time for %s", pkg.Name), nil
	}

	if age := time.Since(*m.Created); age < packageAgeThreshold {
		return audit.Warningf("%s was created only %s ago", pkg.Name, units.HumanDuration(age)), nil
	}

	return audit.Pass(), nil
}

// maturityMarshall warns on very fresh versions. Missing publish time
// degrades to Warning.
type maturityMarshall struct {
	client registry.Client
}

func (*maturityMarshall) Name() string { return "maturity" }

func (*maturityMarshall) Category() audit.Category { return audit.CategoryPackageHealth }

func (*maturityMarshall) Title() string { return "Checking version maturity" }

func (a *maturityMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	m, err := a.client.Manifest(ctx, pkg.Name, pkg.Specifier)
	if err != nil {
		return audit.Result{}, err
	}

	if m.PublishTime == nil {
		return audit.Warningf("the registry has no publish time for %s", m.ID()), nil
	}

	if age := time.Since(*m.PublishTime); age < versionMaturityThreshold {
		return audit.Warningf("%s was published only %s ago", m.ID(), units.HumanDuration(age)), nil
	}

	return audit.Pass(), nil
}
