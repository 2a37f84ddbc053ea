package marshalls

import (
	"context"
	"strings"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
	"preflight/pkg/similarity"
)

// typosquatDistance is the maximum edit distance at which a requested name
// is considered a near match of a well-known package.
const typosquatDistance = 2

// typosquatMarshall compares the requested name against a corpus of
// well-known package names and warns on near matches. Needs no registry
// data; it follows the same contract so the runner stays uniform.
type typosquatMarshall struct {
	client registry.Client
	corpus []string
}

func (*typosquatMarshall) Name() string { return "typosquat" }

func (*typosquatMarshall) Category() audit.Category { return audit.CategorySupplyChainSecurity }

func (*typosquatMarshall) Title() string { return "Checking for typosquatting" }

func (t *typosquatMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	name := pkg.Name

	var near []string
	for _, known := range t.corpus {
		if known == name {
			// The requested package IS the well-known one.
			return audit.Pass(), nil
		}

		// Early termination: a distance at or past the threshold+1
		// bound can never come back under it.
		if d := similarity.Distance(name, known, typosquatDistance+1); d <= typosquatDistance {
			near = append(near, known)
		}
	}

	if len(near) > 0 {
		return audit.Warningf("%s is suspiciously close to the well-known package(s): %s",
			name, strings.Join(near, ", ")), nil
	}

	return audit.Pass(), nil
}
