package scene

import "fmt"

// Severity indicates whether a validation finding blocks use of the scene
// or is merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks use
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding describes a single validation result.
type Finding struct {
	ID       ID       // which patch has the problem (zero if scene-level)
	Name     string   // patch name
	Message  string   // human-readable description
	Severity Severity // error or warning
}

func (f Finding) Error() string {
	if f.ID.IsZero() {
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("[%s] patch %q (%s): %s", f.Severity, f.Name, f.ID.Short(), f.Message)
}

// Validate checks every patch in the scene and returns its findings. It
// never mutates the scene.
func Validate[N any](s *Scene[N]) []Finding {
	var out []Finding
	out = append(out, validateConstructed(s)...)
	out = append(out, validateDegenerate(s)...)
	out = append(out, validateDuplicates(s)...)
	return out
}

// Errors returns the blocking findings.
func Errors(findings []Finding) []Finding {
	return filter(findings, SeverityError)
}

// Warnings returns the advisory findings.
func Warnings(findings []Finding) []Finding {
	return filter(findings, SeverityWarning)
}

func filter(findings []Finding, sev Severity) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

// validateConstructed reports entries holding a zero patch.
func validateConstructed[N any](s *Scene[N]) []Finding {
	var out []Finding
	for _, e := range s.entries {
		if !e.Patch.Valid() {
			out = append(out, Finding{
				ID:       e.ID,
				Name:     e.Name,
				Message:  "patch was not constructed through a kernel",
				Severity: SeverityError,
			})
		}
	}
	return out
}

// validateDegenerate warns about patches whose vertices are collinear; they
// sweep no area.
func validateDegenerate[N any](s *Scene[N]) []Finding {
	var out []Finding
	for _, e := range s.entries {
		if !e.Patch.Valid() {
			continue
		}
		if e.Patch.IsDegenerate() {
			out = append(out, Finding{
				ID:       e.ID,
				Name:     e.Name,
				Message:  "degenerate patch: vertices are collinear",
				Severity: SeverityWarning,
			})
		}
	}
	return out
}

// validateDuplicates warns when a patch equals an earlier one up to
// rotation, or covers it with the reflected vertex order.
func validateDuplicates[N any](s *Scene[N]) []Finding {
	var out []Finding
	for i, e := range s.entries {
		if !e.Patch.Valid() {
			continue
		}
		for _, prev := range s.entries[:i] {
			if !prev.Patch.Valid() {
				continue
			}
			if e.Patch.Equal(prev.Patch) {
				out = append(out, Finding{
					ID:       e.ID,
					Name:     e.Name,
					Message:  fmt.Sprintf("duplicate patch: equal to %q up to rotation", prev.Name),
					Severity: SeverityWarning,
				})
				break
			}
			if e.Patch.Reverse().Equal(prev.Patch) {
				out = append(out, Finding{
					ID:       e.ID,
					Name:     e.Name,
					Message:  fmt.Sprintf("patch %q covers the same surface with reversed orientation", prev.Name),
					Severity: SeverityWarning,
				})
				break
			}
		}
	}
	return out
}
