package audit

import "sync"

// PackageMessage attributes one warning or error message to a package.
type PackageMessage struct {
	Package string
	Message string
}

// CheckSummary aggregates one check's outcomes across all audited packages.
type CheckSummary struct {
	Name     string
	Title    string
	Category Category
	Status   Status
	Errors   []PackageMessage
	Warnings []PackageMessage
}

// Report maps check names to their aggregated outcomes. It is built
// incrementally while checks run and must only be read after the runner
// returns.
type Report struct {
	mu     sync.Mutex
	checks map[string]*CheckSummary
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{checks: make(map[string]*CheckSummary)}
}

func (r *Report) record(m Marshall, pkg *Package, res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary, ok := r.checks[m.Name()]
	if !ok {
		summary = &CheckSummary{
			Name:     m.Name(),
			Title:    m.Title(),
			Category: m.Category(),
		}
		r.checks[m.Name()] = summary
	}

	entry := PackageMessage{Package: pkg.String(), Message: res.Message}

	switch res.Status {
	case StatusError:
		summary.Errors = append(summary.Errors, entry)
	case StatusWarning:
		summary.Warnings = append(summary.Warnings, entry)
	}

	if res.Status > summary.Status {
		summary.Status = res.Status
	}
}

// Checks returns the per-check summaries.
func (r *Report) Checks() map[string]*CheckSummary {
	return r.checks
}

// HasErrors reports whether any check produced a blocking error.
func (r *Report) HasErrors() bool {
	for _, summary := range r.checks {
		if summary.Status == StatusError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any check produced a warning.
func (r *Report) HasWarnings() bool {
	for _, summary := range r.checks {
		if len(summary.Warnings) > 0 {
			return true
		}
	}
	return false
}
