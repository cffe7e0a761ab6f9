package device

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voocel/toolbridge/schema"
)

// HostProvider answers for the machine the bridge runs on. Phone-only
// capabilities report schema.ErrUnsupported. Alarms are kept in memory for
// the life of the provider.
type HostProvider struct {
	started time.Time
	now     func() time.Time

	mu     sync.Mutex
	alarms map[string]Alarm
}

// NewHostProvider creates a host provider.
func NewHostProvider() *HostProvider {
	return &HostProvider{
		started: time.Now(),
		now:     time.Now,
		alarms:  make(map[string]Alarm),
	}
}

func (h *HostProvider) Status(ctx context.Context) (*Status, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return &Status{
		Network:        "unknown",
		Uptime:         h.now().Sub(h.started).Round(time.Second).String(),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		Time:           h.now(),
	}, nil
}

func (h *HostProvider) ReadSensors(ctx context.Context, req SensorsRequest) (*SensorReadings, error) {
	return nil, schema.ErrUnsupported
}

func (h *HostProvider) SendSMS(ctx context.Context, req SMSRequest) (*SMSReceipt, error) {
	return nil, schema.ErrUnsupported
}

func (h *HostProvider) Location(ctx context.Context, req LocationRequest) (*Location, error) {
	return nil, schema.ErrUnsupported
}

func (h *HostProvider) SearchContacts(ctx context.Context, req ContactQuery) ([]Contact, error) {
	return nil, schema.ErrUnsupported
}

func (h *HostProvider) CalendarEvents(ctx context.Context, req CalendarQuery) ([]CalendarEvent, error) {
	return nil, schema.ErrUnsupported
}

func (h *HostProvider) SetAlarm(ctx context.Context, req AlarmRequest) (*Alarm, error) {
	alarm := Alarm{
		ID:     uuid.NewString(),
		Label:  req.Label,
		FireAt: req.NextOccurrence(h.now()),
	}
	h.mu.Lock()
	h.alarms[alarm.ID] = alarm
	h.mu.Unlock()
	return &alarm, nil
}

// Alarms returns the alarms set so far, soonest first.
func (h *HostProvider) Alarms() []Alarm {
	h.mu.Lock()
	out := make([]Alarm, 0, len(h.alarms))
	for _, a := range h.alarms {
		out = append(out, a)
	}
	h.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

func (h *HostProvider) Info(ctx context.Context) (*Info, error) {
	hostname, _ := os.Hostname()
	return &Info{
		Hostname: hostname,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUs:     runtime.NumCPU(),
		Runtime:  runtime.Version(),
	}, nil
}
