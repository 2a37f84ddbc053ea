package marshalls

import (
	"context"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

// readmePlaceholder is what the registry serves when a package was published
// without any README.
const readmePlaceholder = "ERROR: No README data found!"

// readmeMarshall warns on packages without documentation.
type readmeMarshall struct {
	client registry.Client
}

func (*readmeMarshall) Name() string { return "readme" }

func (*readmeMarshall) Category() audit.Category { return audit.CategoryPackageHealth }

func (*readmeMarshall) Title() string { return "Checking for a README" }

func (r *readmeMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	pac, err := r.client.Packument(ctx, pkg.Name)
	if err != nil {
		return audit.Result{}, err
	}

	if pac.Readme == "" || pac.Readme == readmePlaceholder {
		return audit.Warningf("%s has no README", pkg.Name), nil
	}

	return audit.Pass(), nil
}
