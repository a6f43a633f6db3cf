package tracer

import "fmt"

// maxDiagnostics bounds the diagnostics kept per pass; the rest are counted.
const maxDiagnostics = 256

// Diagnostic is a data-integrity defect found during synthesis, with the
// object, particle and step it affected. Particle and Step are -1 when the
// defect is not tied to one.
type Diagnostic struct {
	Object   string
	Particle int
	Step     int
	Wrapped  error
}

func (d *Diagnostic) Error() string {
	switch {
	case d.Particle >= 0 && d.Step >= 0:
		return fmt.Sprintf("%s particle %d step %d: %v", d.Object, d.Particle, d.Step, d.Wrapped)
	case d.Object != "" && d.Step >= 0:
		return fmt.Sprintf("%s step %d: %v", d.Object, d.Step, d.Wrapped)
	case d.Object != "":
		return fmt.Sprintf("%s: %v", d.Object, d.Wrapped)
	}
	return d.Wrapped.Error()
}

func (d *Diagnostic) Unwrap() error {
	return d.Wrapped
}
