package bundler

// FilterDiagnostics removes wrapper diagnostics of KindModuleBuild. The
// engine emits these as redundant envelopes around an underlying loader
// diagnostic that appears separately in the list, so each real problem
// survives exactly once. Order of the remaining diagnostics is preserved.
// Pure function; the input slice is not modified.
func FilterDiagnostics(in []Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(in))
	for _, d := range in {
		if d.Kind == KindModuleBuild {
			continue
		}
		out = append(out, d)
	}
	return out
}
