package enums

import "fmt"

// LogSeverity maps to the log_severity enum in Postgres.
type LogSeverity string

const (
	LogSeverityInfo    LogSeverity = "info"
	LogSeverityWarning LogSeverity = "warning"
	LogSeverityError   LogSeverity = "error"
)

var validLogSeverities = []LogSeverity{
	LogSeverityInfo,
	LogSeverityWarning,
	LogSeverityError,
}

// IsValid reports whether the value matches the canonical log_severity enum.
func (l LogSeverity) IsValid() bool {
	for _, candidate := range validLogSeverities {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLogSeverity converts raw input into LogSeverity.
func ParseLogSeverity(value string) (LogSeverity, error) {
	for _, candidate := range validLogSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid log severity %q", value)
}
