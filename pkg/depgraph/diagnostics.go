package depgraph

import "fmt"

// DiagnosticKind classifies non-fatal build events.
type DiagnosticKind int

const (
	// ParseWarning: a file could not be parsed and contributes no imports.
	ParseWarning DiagnosticKind = iota
	// ResolutionMiss: a relative or aliased specifier found no file.
	// Only emitted when Options.ReportMisses is set.
	ResolutionMiss
	// ReadWarning: a resolved file could not be read.
	ReadWarning
	// CycleDetected: an import closed a cycle. Target is the file that was
	// still in progress.
	CycleDetected
)

var kindNames = [...]string{
	ParseWarning:   "parse",
	ResolutionMiss: "unresolved",
	ReadWarning:    "read",
	CycleDetected:  "cycle",
}

func (k DiagnosticKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

// Diagnostic is one non-fatal event observed during a build.
type Diagnostic struct {
	Kind DiagnosticKind

	// File is the file being processed.
	File FileID

	// Specifier is the import text involved, if any.
	Specifier string

	// Target is the other end of a cycle.
	Target FileID

	// Err is the underlying read or parse error, if any.
	Err error
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case CycleDetected:
		return fmt.Sprintf("%s: import cycle via %q back to %s", d.File, d.Specifier, d.Target)
	case ResolutionMiss:
		return fmt.Sprintf("%s: cannot resolve %q", d.File, d.Specifier)
	default:
		if d.Err != nil {
			return fmt.Sprintf("%s: %s warning: %v", d.File, d.Kind, d.Err)
		}
		return fmt.Sprintf("%s: %s warning", d.File, d.Kind)
	}
}
