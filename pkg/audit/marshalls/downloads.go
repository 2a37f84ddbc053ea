package marshalls

import (
	"context"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

const (
	downloadsAPI = "https://api.npmjs.org/downloads/point/last-month/"

	// Below this monthly volume a package has essentially no users
	// vouching for it.
	downloadsThreshold = 20
)

// downloadsMarshall warns on packages with negligible download volume.
// A failed lookup degrades to Warning.
type downloadsMarshall struct {
	client registry.Client
}

func (*downloadsMarshall) Name() string { return "downloads" }

func (*downloadsMarshall) Category() audit.Category { return audit.CategoryPackageHealth }

func (*downloadsMarshall) Title() string { return "Checking download volume" }

func (d *downloadsMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	var point struct {
		Downloads int `json:"downloads"`
	}
	if err := d.client.Get(ctx, downloadsAPI+registry.EscapeName(pkg.Name), &point); err != nil {
		return audit.Warningf("could not fetch download counts for %s: %v", pkg.Name, err), nil
	}

	if point.Downloads < downloadsThreshold {
		return audit.Warningf("%s had only %d downloads last month", pkg.Name, point.Downloads), nil
	}

	return audit.Pass(), nil
}
