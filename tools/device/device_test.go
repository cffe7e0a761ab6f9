package device

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/tools"
)

// phone is a Provider with canned answers.
type phone struct {
	*HostProvider
	sent []SMSRequest
}

func (p *phone) SendSMS(ctx context.Context, req SMSRequest) (*SMSReceipt, error) {
	p.sent = append(p.sent, req)
	return &SMSReceipt{To: req.To, Status: "sent"}, nil
}

func (p *phone) SearchContacts(ctx context.Context, req ContactQuery) ([]Contact, error) {
	all := []Contact{{Name: "Ada Lovelace", Phones: []string{"+100"}}, {Name: "Alan Turing"}}
	var out []Contact
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(req.Query)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func registry(t *testing.T, p Provider) *tools.Registry {
	t.Helper()
	r, err := NewRegistry(p)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func call(t *testing.T, r *tools.Registry, name string, args map[string]any) *tools.CallResult {
	t.Helper()
	tool, ok := r.Get(name)
	if !ok {
		t.Fatalf("tool %s not registered", name)
	}
	res, err := tool.Invoke(context.Background(), args)
	if err != nil {
		t.Fatalf("invoke %s: %v", name, err)
	}
	return res
}

func TestRegistryNames(t *testing.T) {
	r := registry(t, NewHostProvider())
	want := []string{ToolStatus, ToolSensors, ToolSendSMS, ToolLocation, ToolContacts, ToolCalendar, ToolSetAlarm, ToolInfo}
	if got := strings.Join(r.Names(), ","); got != strings.Join(want, ",") {
		t.Fatalf("unexpected names: %s", got)
	}
}

func TestSchemasAreReflected(t *testing.T) {
	r := registry(t, NewHostProvider())

	sms, _ := r.Get(ToolSendSMS)
	s := sms.Schema()
	if s.Type != "object" {
		t.Fatalf("expected object schema, got %q", s.Type)
	}
	if _, ok := s.Properties["to"]; !ok {
		t.Fatalf("expected a 'to' property, got %v", s.Properties)
	}
	if strings.Join(s.Required, ",") != "to,message" {
		t.Fatalf("unexpected required list: %v", s.Required)
	}

	status, _ := r.Get(ToolStatus)
	if len(status.Schema().Properties) != 0 {
		t.Fatalf("expected no properties for status, got %v", status.Schema().Properties)
	}
}

func TestHostProviderReportsUnsupported(t *testing.T) {
	r := registry(t, NewHostProvider())

	res := call(t, r, ToolLocation, map[string]any{})
	if !res.IsError || !strings.Contains(res.Text(), "not supported") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDeviceInfo(t *testing.T) {
	r := registry(t, NewHostProvider())

	res := call(t, r, ToolInfo, nil)
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Text())
	}
	var info Info
	if err := json.Unmarshal([]byte(res.Text()), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.OS == "" || info.CPUs == 0 {
		t.Fatalf("incomplete info: %+v", info)
	}
}

func TestSendSMSValidatesArguments(t *testing.T) {
	p := &phone{HostProvider: NewHostProvider()}
	r := registry(t, p)

	res := call(t, r, ToolSendSMS, map[string]any{"to": " ", "message": "hi"})
	if !res.IsError {
		t.Fatalf("expected validation error")
	}
	res = call(t, r, ToolSendSMS, map[string]any{"to": "+100", "message": 5})
	if !res.IsError {
		t.Fatalf("expected type error")
	}
	if len(p.sent) != 0 {
		t.Fatalf("provider must not be called with invalid arguments")
	}

	res = call(t, r, ToolSendSMS, map[string]any{"to": "+100", "message": "hi"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Text())
	}
	if len(p.sent) != 1 || p.sent[0].To != "+100" {
		t.Fatalf("unexpected sent messages: %+v", p.sent)
	}
}

func TestSearchContacts(t *testing.T) {
	r := registry(t, &phone{HostProvider: NewHostProvider()})

	res := call(t, r, ToolContacts, map[string]any{"query": "ada"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Text())
	}
	var contacts []Contact
	if err := json.Unmarshal([]byte(res.Text()), &contacts); err != nil {
		t.Fatalf("decode contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Name != "Ada Lovelace" {
		t.Fatalf("unexpected contacts: %+v", contacts)
	}
}

func TestSetAlarm(t *testing.T) {
	host := NewHostProvider()
	host.now = func() time.Time { return time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC) }
	r := registry(t, host)

	res := call(t, r, ToolSetAlarm, map[string]any{"hour": 9, "minute": 30, "label": "standup"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Text())
	}
	var alarm Alarm
	if err := json.Unmarshal([]byte(res.Text()), &alarm); err != nil {
		t.Fatalf("decode alarm: %v", err)
	}
	want := time.Date(2026, 1, 3, 9, 30, 0, 0, time.UTC)
	if !alarm.FireAt.Equal(want) || alarm.ID == "" {
		t.Fatalf("unexpected alarm: %+v", alarm)
	}
	if got := host.Alarms(); len(got) != 1 || got[0].ID != alarm.ID {
		t.Fatalf("alarm not recorded: %+v", got)
	}

	res = call(t, r, ToolSetAlarm, map[string]any{"hour": 24, "minute": 0})
	if !res.IsError {
		t.Fatalf("expected validation error for hour 24")
	}
}

func TestCalendarQueryRange(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := CalendarQuery{}
	from, to, err := q.Range(now)
	if err != nil || !from.Equal(now) || !to.Equal(now.Add(7*24*time.Hour)) {
		t.Fatalf("unexpected default range: %v %v %v", from, to, err)
	}

	q = CalendarQuery{From: "2026-01-02T00:00:00Z", To: "2026-01-01T00:00:00Z"}
	if _, _, err := q.Range(now); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}
