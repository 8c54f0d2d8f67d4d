// Package logrec defines the structured log record exchanged through the
// pipeline and the formatter that turns a raw message into one.
package logrec

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Severity classifies a log record. Ordered by increasing severity.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// ErrInvalidSeverity is returned when parsing an unknown severity name.
var ErrInvalidSeverity = errors.New("invalid severity")

// IsValid returns true if the severity is one of the known levels.
func (s Severity) IsValid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityError
}

// ParseSeverity converts a severity name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	s := Severity(name)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, name)
	}
	return s, nil
}

// Record is the structured form of a single log message.
// It serializes to one self-contained JSON object per line.
type Record struct {
	Timestamp  string   `json:"timestamp"`
	Level      Severity `json:"level"`
	ProducerID int      `json:"producer_id"`
	Message    string   `json:"message"`
}

// timestampLayout is ISO-8601 UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Format renders message as a single-line JSON record stamped with the
// current wall-clock time. JSON marshaling escapes quotes, backslashes
// and control characters, so any raw message yields a valid record.
func Format(message string, sev Severity, producerID int) (string, error) {
	return FormatAt(time.Now(), message, sev, producerID)
}

// FormatAt is Format with an explicit timestamp, for deterministic tests.
func FormatAt(ts time.Time, message string, sev Severity, producerID int) (string, error) {
	if !sev.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, string(sev))
	}

	rec := Record{
		Timestamp:  ts.UTC().Format(timestampLayout),
		Level:      sev,
		ProducerID: producerID,
		Message:    message,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	return string(data), nil
}
