package dto

import (
	"encoding/json"
	"strings"
	"time"

	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
)

const dateOnly = "2006-01-02"

// DueDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates (midnight UTC).
type DueDate struct {
	time.Time
}

// ParseDueDate parses an RFC3339 timestamp or a YYYY-MM-DD date into UTC.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, apierrors.NewValidationError("due_date", "must be an RFC3339 timestamp or a YYYY-MM-DD date")
	}
	return t.UTC(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DueDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return apierrors.NewValidationError("due_date", "must be a string")
	}
	t, err := ParseDueDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Ptr returns the wrapped time, or nil for a nil DueDate.
func (d *DueDate) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
