package marshalls

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"preflight/pkg/audit"
	"preflight/pkg/registry"
)

var installHooks = []string{"preinstall", "install", "postinstall"}

// dangerousScriptRE matches install-hook commands that download or evaluate
// remote code, the staple of install-time payloads.
var dangerousScriptRE = regexp.MustCompile(`(?i)(\bcurl\b|\bwget\b|\bnc\b|node\s+-e|\beval\b|base64\s+(-d|--decode)|/dev/tcp/)`)

// scriptsMarshall inspects install lifecycle hooks. A version with no
// scripts data passes: hooks only run when the registry says they exist.
type scriptsMarshall struct {
	client registry.Client
}

func (*scriptsMarshall) Name() string { return "scripts" }

func (*scriptsMarshall) Category() audit.Category { return audit.CategorySupplyChainSecurity }

func (*scriptsMarshall) Title() string { return "Checking install lifecycle scripts" }

func (s *scriptsMarshall) Validate(ctx context.Context, pkg *audit.Package) (audit.Result, error) {
	m, err := s.client.Manifest(ctx, pkg.Name, pkg.Specifier)
	if err != nil {
		return audit.Result{}, err
	}

	var hooks []string
	for _, hook := range installHooks {
		cmd, ok := m.Meta.Scripts[hook]
		if !ok || cmd == "" {
			continue
		}

		if dangerousScriptRE.MatchString(cmd) {
			return audit.Errorf("%s runs a suspicious %s hook: %s", m.ID(), hook, cmd), nil
		}

		hooks = append(hooks, hook)
	}

	if len(hooks) > 0 {
		sort.Strings(hooks)
		return audit.Warningf("%s runs install-time hooks: %s", m.ID(), strings.Join(hooks, ", ")), nil
	}

	return audit.Pass(), nil
}
