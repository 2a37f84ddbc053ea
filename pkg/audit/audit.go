// Package audit defines the check contract and the concurrent orchestration
// engine that runs every enabled check against every requested package
// before an install is allowed to proceed.
package audit

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Status classifies the outcome of one (check, package) pair.
type Status int

const (
	StatusPass Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "pass"
	}
}

// Result is the tagged outcome of one check for one package. Exactly one
// outcome exists per (check, package) pair; warnings are informational while
// errors require explicit confirmation before an install proceeds.
type Result struct {
	Status  Status
	Message string
}

// Pass returns a passing result.
func Pass() Result {
	return Result{Status: StatusPass}
}

// Warningf returns a non-blocking result carrying a notice for the user.
func Warningf(format string, args ...any) Result {
	return Result{Status: StatusWarning, Message: fmt.Sprintf(format, args...)}
}

// Errorf returns a blocking result.
func Errorf(format string, args ...any) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Category groups checks in the rendered report.
type Category string

const (
	CategoryPackageHealth       Category = "Package health"
	CategorySupplyChainSecurity Category = "Supply chain security"
)

// Marshall is the contract every check implements. Checks decide their own
// missing-data policy: some return Pass when the registry has no evidence
// either way (deprecation, scripts), others degrade to Warning (age,
// signatures). That asymmetry is deliberate; do not unify it.
type Marshall interface {
	// Name is the stable identifier, also used to derive the
	// MARSHALL_DISABLE_<NAME> toggle.
	Name() string

	// Category groups the check in the report.
	Category() Category

	// Title is the human-readable activity description.
	Title() string

	// Validate audits one package. The returned Result is authoritative;
	// a non-nil error is classified as a blocking Error by the runner.
	Validate(ctx context.Context, pkg *Package) (Result, error)
}

// Package is one immutable package-install request.
type Package struct {
	Name      string `validate:"required,max=214,pkgname"`
	Specifier string `validate:"required"`
}

func (p *Package) String() string {
	return p.Name + "@" + p.Specifier
}

var (
	pkgNameRE = regexp.MustCompile(`^(@[a-z0-9][a-z0-9-_.]*/)?[a-z0-9][a-z0-9-_.]*$`)

	validate = newValidator()
)

func newValidator() *goValidator.Validate {
	v := goValidator.New(goValidator.WithRequiredStructEnabled())
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("pkgname", func(fl goValidator.FieldLevel) bool {
		return pkgNameRE.MatchString(fl.Field().String())
	})
	return v
}

// ParsePackage parses a "name[@specifier]" argument. The specifier defaults
// to "latest". Scoped names keep their leading "@".
func ParsePackage(arg string) (*Package, error) {
	name, specifier := arg, "latest"

	if at := strings.LastIndex(arg, "@"); at > 0 {
		name, specifier = arg[:at], arg[at+1:]
	}

	pkg := &Package{Name: name, Specifier: specifier}
	if err := validate.Struct(pkg); err != nil {
		return nil, errors.Errorf("invalid package argument %q", arg)
	}

	return pkg, nil
}
