package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

// ServerOptions configures the engines the bridge serves.
type ServerOptions struct {
	Name         string        `json:"name"          mapstructure:"name"`
	Version      string        `json:"version"       mapstructure:"version"`
	Instructions string        `json:"instructions"  mapstructure:"instructions"`
	CallTimeout  time.Duration `json:"call-timeout"  mapstructure:"call-timeout"`
	Device       bool          `json:"device"        mapstructure:"device"`
}

// NewServerOptions creates a default ServerOptions instance.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		Name:        "toolbridge",
		Version:     "0.1.0",
		CallTimeout: 2 * time.Minute,
		Device:      true,
	}
}

func (o *ServerOptions) Validate() []error {
	var errs []error
	if o.Name == "" {
		errs = append(errs, errors.New("server name is required"))
	}
	if o.CallTimeout < 0 {
		errs = append(errs, errors.New("server call-timeout cannot be negative"))
	}
	return errs
}

func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Name, "server.name", o.Name, "Server name reported by initialize.")
	fs.StringVar(&o.Version, "server.version", o.Version, "Server version reported by initialize.")
	fs.StringVar(&o.Instructions, "server.instructions", o.Instructions, "Optional instructions returned by initialize.")
	fs.DurationVar(&o.CallTimeout, "server.call-timeout", o.CallTimeout, "Upper bound for a single tools/call, 0 disables it.")
	fs.BoolVar(&o.Device, "server.device", o.Device, "Serve the device-capability tools.")
}
