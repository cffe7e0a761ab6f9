package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/pkg/logger"
	"github.com/voocel/toolbridge/schema"
	"github.com/voocel/toolbridge/tools"
)

// Tool names.
const (
	ToolStatus   = "get_device_status"
	ToolSensors  = "read_sensors"
	ToolSendSMS  = "send_sms"
	ToolLocation = "get_location"
	ToolContacts = "search_contacts"
	ToolCalendar = "list_calendar_events"
	ToolSetAlarm = "set_alarm"
	ToolInfo     = "get_device_info"
)

type validator interface {
	Validate() error
}

// noArgs is the argument struct of tools that take none.
type noArgs struct{}

// capabilityTool adapts one Provider call to the tools.Tool interface.
type capabilityTool[A any, R any] struct {
	*tools.BaseTool
	call func(ctx context.Context, args A) (R, error)
}

func newTool[A any, R any](name, description string, caps []tools.Capability, call func(context.Context, A) (R, error)) *capabilityTool[A, R] {
	var zero A
	base := tools.NewBaseTool(name, description, reflectSchema(description, zero)).
		WithCapabilities(caps...)
	return &capabilityTool[A, R]{BaseTool: base, call: call}
}

func (t *capabilityTool[A, R]) Invoke(ctx context.Context, args map[string]any) (*tools.CallResult, error) {
	var in A
	if err := tools.DecodeArgs(args, &in); err != nil {
		return tools.Errorf("Invalid arguments for %s: %v", t.Name(), err), nil
	}
	if v, ok := any(&in).(validator); ok {
		if err := v.Validate(); err != nil {
			return tools.Errorf("Invalid arguments for %s: %v", t.Name(), err), nil
		}
	}

	out, err := t.call(ctx, in)
	if err != nil {
		logger.Debug("[DEVICE] %s failed: %v", t.Name(), err)
		if errors.Is(err, schema.ErrUnsupported) {
			return tools.Errorf("%s is not supported on this device", t.Name()), nil
		}
		return tools.Errorf("%s failed: %v", t.Name(), err), nil
	}

	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", t.Name(), err)
	}
	return tools.TextResult(string(text)), nil
}

var reflector = &jsonschema.Reflector{
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: true,
	Anonymous:                 true,
}

// reflectSchema derives the input schema from the argument struct.
func reflectSchema(description string, v any) *tools.ToolSchema {
	out := tools.CreateToolSchema(description, nil, nil)
	data, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return out
	}
	var reflected struct {
		Properties map[string]interface{} `json:"properties"`
		Required   []string               `json:"required"`
	}
	if err := json.Unmarshal(data, &reflected); err != nil {
		return out
	}
	if reflected.Properties != nil {
		out.Properties = reflected.Properties
	}
	out.Required = reflected.Required
	return out
}

// Tools returns the device tool family bound to p, in listing order.
func Tools(p Provider) []tools.Tool {
	device := []tools.Capability{tools.CapabilityDevice}
	private := []tools.Capability{tools.CapabilityDevice, tools.CapabilityPrivacy}

	return []tools.Tool{
		newTool(ToolStatus, "Get the current device status (battery, network, uptime)", device,
			func(ctx context.Context, _ noArgs) (*Status, error) { return p.Status(ctx) }),
		newTool(ToolSensors, "Read the latest values from the device motion and environment sensors", device,
			p.ReadSensors),
		newTool(ToolSendSMS, "Send an SMS text message to a phone number", private,
			p.SendSMS),
		newTool(ToolLocation, "Get the current geographic location of the device", private,
			p.Location),
		newTool(ToolContacts, "Search the device address book", private,
			p.SearchContacts),
		newTool(ToolCalendar, "List calendar events in a time range", private,
			p.CalendarEvents),
		newTool(ToolSetAlarm, "Set an alarm at the given time of day", device,
			p.SetAlarm),
		newTool(ToolInfo, "Get static information about the device (model, OS, CPU)", device,
			func(ctx context.Context, _ noArgs) (*Info, error) { return p.Info(ctx) }),
	}
}

// NewRegistry builds the local server's registry.
func NewRegistry(p Provider) (*tools.Registry, error) {
	return tools.NewRegistry(Tools(p)...)
}
