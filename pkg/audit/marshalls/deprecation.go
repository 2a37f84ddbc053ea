package marshalls

import (
	"context"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

// deprecationMarshall errors on versions the registry explicitly marks
// deprecated. Absent deprecation data is a Pass: deprecation only exists as
// explicit registry evidence.
type deprecationMarshall struct {
	client registry.Client
}

func (*deprecationMarshall) Name() string { return "deprecation" }

func (*deprecationMarshall) Category() audit.Category { return audit.CategoryPackageHealth }

func (*deprecationMarshall) Title() string { return "Checking for deprecation notices" }

func (d *deprecationMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	m, err := d.client.Manifest(ctx, pkg.Name, pkg.Specifier)
	if err != nil {
		return audit.Result{}, err
	}

	if m.Meta.Deprecated.Deprecated {
		if m.Meta.Deprecated.Message != "" {
			return audit.Errorf("%s is deprecated: %s", m.ID(), m.Meta.Deprecated.Message), nil
		}
		return audit.Errorf("%s is deprecated", m.ID()), nil
	}

	return audit.Pass(), nil
}
