package device

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/voocel/toolbridge/schema"
)

var knownSensors = []string{SensorAccelerometer, SensorGyroscope, SensorMagnetometer, SensorBarometer, SensorLight}

func (r *SensorsRequest) Validate() error {
	for _, s := range r.Sensors {
		if !lo.Contains(knownSensors, s) {
			return schema.NewValidationError("sensors", s, "unknown sensor")
		}
	}
	r.Sensors = lo.Uniq(r.Sensors)
	return nil
}

func (r *SMSRequest) Validate() error {
	r.To = strings.TrimSpace(r.To)
	if r.To == "" {
		return schema.NewValidationError("to", r.To, "recipient is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return schema.NewValidationError("message", r.Message, "message is required")
	}
	return nil
}

func (r *LocationRequest) Validate() error {
	switch r.Accuracy {
	case "":
		r.Accuracy = "balanced"
	case "low", "balanced", "high":
	default:
		return schema.NewValidationError("accuracy", r.Accuracy, "must be low, balanced or high")
	}
	return nil
}

func (r *ContactQuery) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return schema.NewValidationError("query", r.Query, "query is required")
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	return nil
}

// Range resolves the query bounds relative to now.
func (r *CalendarQuery) Range(now time.Time) (time.Time, time.Time, error) {
	from := now
	if r.From != "" {
		t, err := time.Parse(time.RFC3339, r.From)
		if err != nil {
			return time.Time{}, time.Time{}, schema.NewValidationError("from", r.From, "must be RFC 3339")
		}
		from = t
	}
	to := from.Add(7 * 24 * time.Hour)
	if r.To != "" {
		t, err := time.Parse(time.RFC3339, r.To)
		if err != nil {
			return time.Time{}, time.Time{}, schema.NewValidationError("to", r.To, "must be RFC 3339")
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, schema.NewValidationError("to", r.To, "must not be before from")
	}
	return from, to, nil
}

func (r *CalendarQuery) Validate() error {
	if _, _, err := r.Range(time.Now()); err != nil {
		return err
	}
	if r.Limit <= 0 {
		r.Limit = 50
	}
	if r.Limit > 200 {
		r.Limit = 200
	}
	return nil
}

func (r *AlarmRequest) Validate() error {
	if r.Hour < 0 || r.Hour > 23 {
		return schema.NewValidationError("hour", r.Hour, "must be between 0 and 23")
	}
	if r.Minute < 0 || r.Minute > 59 {
		return schema.NewValidationError("minute", r.Minute, "must be between 0 and 59")
	}
	return nil
}

// NextOccurrence returns the first time at or after now matching the alarm.
func (r AlarmRequest) NextOccurrence(now time.Time) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), r.Hour, r.Minute, 0, 0, now.Location())
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}
