// Package device exposes local device capabilities as tools. The capability
// calls themselves sit behind Provider; this package only maps a tool name
// and its arguments onto a Provider method and renders the answer.
package device

import (
	"context"
	"time"
)

// Provider is the black box that talks to the operating system.
type Provider interface {
	Status(ctx context.Context) (*Status, error)
	ReadSensors(ctx context.Context, req SensorsRequest) (*SensorReadings, error)
	SendSMS(ctx context.Context, req SMSRequest) (*SMSReceipt, error)
	Location(ctx context.Context, req LocationRequest) (*Location, error)
	SearchContacts(ctx context.Context, req ContactQuery) ([]Contact, error)
	CalendarEvents(ctx context.Context, req CalendarQuery) ([]CalendarEvent, error)
	SetAlarm(ctx context.Context, req AlarmRequest) (*Alarm, error)
	Info(ctx context.Context) (*Info, error)
}

// Status is a point-in-time snapshot of the device.
type Status struct {
	BatteryLevel   *int      `json:"battery_level,omitempty"`
	Charging       *bool     `json:"charging,omitempty"`
	Network        string    `json:"network,omitempty"`
	Uptime         string    `json:"uptime,omitempty"`
	Goroutines     int       `json:"goroutines,omitempty"`
	HeapAllocBytes uint64    `json:"heap_alloc_bytes,omitempty"`
	Time           time.Time `json:"time"`
}

// Sensor names accepted by read_sensors.
const (
	SensorAccelerometer = "accelerometer"
	SensorGyroscope     = "gyroscope"
	SensorMagnetometer  = "magnetometer"
	SensorBarometer     = "barometer"
	SensorLight         = "light"
)

// SensorsRequest selects sensors; empty means all available.
type SensorsRequest struct {
	Sensors []string `json:"sensors,omitempty" jsonschema:"description=Sensors to read; omit for all available,enum=accelerometer,enum=gyroscope,enum=magnetometer,enum=barometer,enum=light"`
}

// SensorReadings maps a sensor name to its latest values.
type SensorReadings struct {
	Readings map[string][]float64 `json:"readings"`
	Time     time.Time            `json:"time"`
}

// SMSRequest is one outgoing text message.
type SMSRequest struct {
	To      string `json:"to" jsonschema:"description=Recipient phone number"`
	Message string `json:"message" jsonschema:"description=Message body"`
}

// SMSReceipt confirms that a message left the device.
type SMSReceipt struct {
	To     string    `json:"to"`
	Status string    `json:"status"`
	SentAt time.Time `json:"sent_at"`
}

// LocationRequest tunes the location fix.
type LocationRequest struct {
	Accuracy string `json:"accuracy,omitempty" jsonschema:"description=Desired accuracy,enum=low,enum=balanced,enum=high"`
}

// Location is a position fix.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy_meters,omitempty"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Time      time.Time `json:"time"`
}

// ContactQuery searches the address book.
type ContactQuery struct {
	Query string `json:"query" jsonschema:"description=Fragment of a contact name or phone number or email address"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of contacts to return,minimum=1,maximum=100"`
}

// Contact is one address-book entry.
type Contact struct {
	Name   string   `json:"name"`
	Phones []string `json:"phones,omitempty"`
	Emails []string `json:"emails,omitempty"`
}

// CalendarQuery bounds a calendar listing. Dates are RFC 3339.
type CalendarQuery struct {
	From  string `json:"from,omitempty" jsonschema:"description=Start of the range (RFC 3339); defaults to now"`
	To    string `json:"to,omitempty" jsonschema:"description=End of the range (RFC 3339); defaults to seven days after from"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of events to return,minimum=1,maximum=200"`
}

// CalendarEvent is one calendar entry.
type CalendarEvent struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
	AllDay   bool      `json:"all_day,omitempty"`
}

// AlarmRequest schedules an alarm at a wall-clock time.
type AlarmRequest struct {
	Hour   int    `json:"hour" jsonschema:"description=Hour of day (0-23),minimum=0,maximum=23"`
	Minute int    `json:"minute" jsonschema:"description=Minute (0-59),minimum=0,maximum=59"`
	Label  string `json:"label,omitempty" jsonschema:"description=Optional alarm label"`
}

// Alarm is a scheduled alarm.
type Alarm struct {
	ID     string    `json:"id"`
	Label  string    `json:"label,omitempty"`
	FireAt time.Time `json:"fire_at"`
}

// Info describes the device itself.
type Info struct {
	Hostname  string `json:"hostname,omitempty"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUs      int    `json:"cpus"`
	Runtime   string `json:"runtime,omitempty"`
	Model     string `json:"model,omitempty"`
	OSVersion string `json:"os_version,omitempty"`
}
