package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPresence   = "presence"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyLine       = "line"
	KeyColumn     = "column"
	KeyKind       = "kind"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyRevision   = "revision"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Presence(name string) slog.Attr  { return slog.String(KeyPresence, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Line(n int) slog.Attr            { return slog.Int(KeyLine, n) }
func Column(n int) slog.Attr          { return slog.Int(KeyColumn, n) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
