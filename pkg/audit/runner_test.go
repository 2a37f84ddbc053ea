package audit

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarshall struct {
	name     string
	category Category
	validate func(ctx context.Context, pkg *Package) (Result, error)
}

func (f *fakeMarshall) Name() string       { return f.name }
func (f *fakeMarshall) Category() Category { return f.category }
func (f *fakeMarshall) Title() string      { return "Checking " + f.name }

func (f *fakeMarshall) Validate(ctx context.Context, pkg *Package) (Result, error) {
	return f.validate(ctx, pkg)
}

func passing(name string) *fakeMarshall {
	return &fakeMarshall{
		name:     name,
		category: CategoryPackageHealth,
		validate: func(context.Context, *Package) (Result, error) {
			return Pass(), nil
		},
	}
}

func TestRunnerRunsEveryPair(t *testing.T) {
	var calls atomic.Int64
	counting := &fakeMarshall{
		name:     "counting",
		category: CategoryPackageHealth,
		validate: func(context.Context, *Package) (Result, error) {
			calls.Add(1)
			return Pass(), nil
		},
	}

	packages := []*Package{
		{Name: "a", Specifier: "latest"},
		{Name: "b", Specifier: "1.0.0"},
		{Name: "c", Specifier: "^2.0.0"},
	}

	runner := NewRunner([]Marshall{counting, passing("other")})
	report := runner.Run(context.Background(), packages, nil)

	assert.EqualValues(t, 3, calls.Load())
	assert.Len(t, report.Checks(), 2)
	assert.False(t, report.HasErrors())
	assert.False(t, report.HasWarnings())
}

func TestRunnerEmptyPackageList(t *testing.T) {
	called := false
	m := &fakeMarshall{
		name:     "never",
		category: CategoryPackageHealth,
		validate: func(context.Context, *Package) (Result, error) {
			called = true
			return Pass(), nil
		},
	}

	report := NewRunner([]Marshall{m}).Run(context.Background(), nil, nil)

	assert.False(t, called)
	assert.Empty(t, report.Checks())
}

func TestRunnerIsolatesFailures(t *testing.T) {
	failing := &fakeMarshall{
		name:     "failing",
		category: CategorySupplyChainSecurity,
		validate: func(context.Context, *Package) (Result, error) {
			return Result{}, errors.New("registry exploded")
		},
	}

	packages := []*Package{{Name: "a", Specifier: "latest"}}
	report := NewRunner([]Marshall{failing, passing("healthy")}).Run(context.Background(), packages, nil)

	require.Len(t, report.Checks(), 2)

	failed := report.Checks()["failing"]
	require.NotNil(t, failed)
	assert.Equal(t, StatusError, failed.Status)
	require.Len(t, failed.Errors, 1)
	assert.Equal(t, "registry exploded", failed.Errors[0].Message)
	assert.Equal(t, "a@latest", failed.Errors[0].Package)

	healthy := report.Checks()["healthy"]
	require.NotNil(t, healthy)
	assert.Equal(t, StatusPass, healthy.Status)
}

func TestRunnerSkipsDisabledChecks(t *testing.T) {
	t.Setenv("MARSHALL_DISABLE_SLOW_CHECK", "1")

	skipped := passing("slow-check")
	packages := []*Package{{Name: "a", Specifier: "latest"}}
	report := NewRunner([]Marshall{skipped, passing("kept")}).Run(context.Background(), packages, nil)

	// Disabled checks leave no trace in the report.
	assert.Nil(t, report.Checks()["slow-check"])
	assert.NotNil(t, report.Checks()["kept"])
}

func TestRunnerProgressObservesEachOutcome(t *testing.T) {
	var seen atomic.Int64
	packages := []*Package{
		{Name: "a", Specifier: "latest"},
		{Name: "b", Specifier: "latest"},
	}

	NewRunner([]Marshall{passing("one"), passing("two")}).Run(context.Background(), packages,
		func(Marshall, *Package, Result) { seen.Add(1) })

	assert.EqualValues(t, 4, seen.Load())
}

func TestReportWorstStatusWins(t *testing.T) {
	m := passing("mixed")
	report := NewReport()

	report.record(m, &Package{Name: "a", Specifier: "latest"}, Warningf("stale"))
	report.record(m, &Package{Name: "b", Specifier: "latest"}, Errorf("deprecated"))
	report.record(m, &Package{Name: "c", Specifier: "latest"}, Pass())

	summary := report.Checks()["mixed"]
	require.NotNil(t, summary)
	assert.Equal(t, StatusError, summary.Status)
	assert.Len(t, summary.Warnings, 1)
	assert.Len(t, summary.Errors, 1)
	assert.True(t, report.HasErrors())
	assert.True(t, report.HasWarnings())
}

func TestDisabled(t *testing.T) {
	assert.False(t, Disabled("typosquat"))

	t.Setenv("MARSHALL_DISABLE_TYPOSQUAT", "true")
	assert.True(t, Disabled("typosquat"))

	t.Setenv("MARSHALL_DISABLE_INSTALL_SCRIPTS", "1")
	assert.True(t, Disabled("install-scripts"))
}

func TestParsePackage(t *testing.T) {
	tests := []struct {
		arg       string
		name      string
		specifier string
	}{
		{"left-pad", "left-pad", "latest"},
		{"left-pad@1.3.0", "left-pad", "1.3.0"},
		{"left-pad@^1.0.0", "left-pad", "^1.0.0"},
		{"@types/node", "@types/node", "latest"},
		{"@types/node@20.1.0", "@types/node", "20.1.0"},
		{"express@beta", "express", "beta"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			pkg, err := ParsePackage(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.name, pkg.Name)
			assert.Equal(t, tt.specifier, pkg.Specifier)
		})
	}
}

func TestParsePackageInvalid(t *testing.T) {
	for _, arg := range []string{
		"",
		"UPPER",
		".leading-dot",
		"name with spaces",
		"@/missing-scope",
	} {
		t.Run(arg, func(t *testing.T) {
			_, err := ParsePackage(arg)
			assert.Error(t, err)
		})
	}
}
