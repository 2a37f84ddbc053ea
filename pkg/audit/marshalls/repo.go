package marshalls

import (
	"context"
	"regexp"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

const githubAPI = "https://api.github.com/repos/"

var githubRepoRE = regexp.MustCompile(`github\.com[/:]([^/]+)/([^/#?]+?)(?:\.git)?$`)

// repoMarshall checks the declared source repository. No repository is a
// Warning; a GitHub repository the API reports archived is an Error (the
// package is abandoned upstream); a failed lookup degrades to Warning.
type repoMarshall struct {
	client registry.Client
}

func (*repoMarshall) Name() string { return "repo" }

func (*repoMarshall) Category() audit.Category { return audit.CategoryPackageHealth }

func (*repoMarshall) Title() string { return "Checking source repository" }

func (r *repoMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	pac, err := r.client.Packument(ctx, pkg.Name)
	if err != nil {
		return audit.Result{}, err
	}

	if pac.Repository == nil || pac.Repository.URL == "" {
		return audit.Warningf("%s declares no source repository", pkg.Name), nil
	}

	match := githubRepoRE.FindStringSubmatch(pac.Repository.URL)
	if match == nil {
		// Archived-status lookup is only wired for GitHub.
		return audit.Pass(), nil
	}

	var repo struct {
		Archived bool `json:"archived"`
	}
	if err := r.client.Get(ctx, githubAPI+match[1]+"/"+match[2], &repo); err != nil {
		return audit.Warningf("could not check repository status for %s: %v", pkg.Name, err), nil
	}

	if repo.Archived {
		return audit.Errorf("the source repository of %s is archived on GitHub", pkg.Name), nil
	}

	return audit.Pass(), nil
}
