package marshalls

import (
	"context"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

// authorMarshall warns when a package declares neither an author nor any
// maintainers. An anonymous package has nobody accountable for it.
type authorMarshall struct {
	client registry.Client
}

func (*authorMarshall) Name() string { return "author" }

func (*authorMarshall) Category() audit.Category { return audit.CategoryPackageHealth }

func (*authorMarshall) Title() string { return "Checking author and maintainers" }

func (a *authorMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	pac, err := a.client.Packument(ctx, pkg.Name)
	if err != nil {
		return audit.Result{}, err
	}

	if (pac.Author == nil || pac.Author.Name == "") && len(pac.Maintainers) == 0 {
		return audit.Warningf("%s declares no author or maintainers", pkg.Name), nil
	}

	return audit.Pass(), nil
}
