package marshalls

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

const osvQueryURL = "https://api.osv.dev/v1/query"

// vulnerabilitiesMarshall queries the OSV advisory database for the resolved
// version. Known advisories block; a failed lookup degrades to Warning.
type vulnerabilitiesMarshall struct {
	client registry.Client
}

func (*vulnerabilitiesMarshall) Name() string { return "vulnerabilities" }

func (*vulnerabilitiesMarshall) Category() audit.Category {
	return audit.CategorySupplyChainSecurity
}

func (*vulnerabilitiesMarshall) Title() string { return "Checking known vulnerabilities" }

type osvQuery struct {
	Version string `json:"version"`
	Package struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	} `json:"package"`
}

type osvResponse struct {
	Vulns []struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
	} `json:"vulns"`
}

func (v *vulnerabilitiesMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	m, err := v.client.Manifest(ctx, pkg.Name, pkg.Specifier)
	if err != nil {
		return audit.Result{}, err
	}

	query := osvQuery{Version: m.Version}
	query.Package.Name = m.Name
	query.Package.Ecosystem = "npm"

	body, err := json.Marshal(query)
	if err != nil {
		return audit.Result{}, err
	}

	var resp osvResponse
	if err := v.client.Post(ctx, osvQueryURL, bytes.NewReader(body), &resp); err != nil {
		return audit.Warningf("could not query advisories for %s: %v", m.ID(), err), nil
	}

	if len(resp.Vulns) > 0 {
		ids := make([]string, 0, len(resp.Vulns))
		for _, vuln := range resp.Vulns {
			ids = append(ids, vuln.ID)
		}
		return audit.Errorf("%s has known vulnerabilities: %s", m.ID(), strings.Join(ids, ", ")), nil
	}

	return audit.Pass(), nil
}
