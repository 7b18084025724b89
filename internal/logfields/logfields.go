package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySession      = "session_id"
	KeyGenderFilter = "gender_filter"
	KeyParticipant  = "participant"
	KeyPickedCount  = "picked_count"
	KeyAvailable    = "available"
	KeyReasons      = "reasons"
	KeyRetryCount   = "retry_count"
	KeyPath         = "path"
	KeyDurationMS   = "duration_ms"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Session(id string) slog.Attr        { return slog.String(KeySession, id) }
func GenderFilter(g string) slog.Attr    { return slog.String(KeyGenderFilter, g) }
func Participant(name string) slog.Attr  { return slog.String(KeyParticipant, name) }
func PickedCount(n int) slog.Attr        { return slog.Int(KeyPickedCount, n) }
func Available(n int) slog.Attr          { return slog.Int(KeyAvailable, n) }
func Reasons(rs []string) slog.Attr      { return slog.Any(KeyReasons, rs) }
func RetryCount(n int) slog.Attr         { return slog.Int(KeyRetryCount, n) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
