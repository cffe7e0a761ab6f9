package options

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/voocel/toolbridge/pkg/logger"
)

// LogOptions configures the process logger.
type LogOptions struct {
	Level  string `json:"level"  mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
	Output string `json:"output" mapstructure:"output"`
}

// NewLogOptions creates a default LogOptions instance.
func NewLogOptions() *LogOptions {
	return &LogOptions{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}
}

func (o *LogOptions) Validate() []error {
	var errs []error
	switch o.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", o.Level))
	}
	if o.Format != "text" && o.Format != "json" {
		errs = append(errs, fmt.Errorf("invalid log format %q, must be 'text' or 'json'", o.Format))
	}
	return errs
}

func (o *LogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Log level: debug, info, warn or error.")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log format: 'text' or 'json'.")
	fs.StringVar(&o.Output, "log.output", o.Output, "Log destination: stdout, stderr or a file path.")
}

// Logger converts the options for logger.Init.
func (o *LogOptions) Logger() logger.Options {
	return logger.Options{Level: o.Level, Format: o.Format, Output: o.Output}
}
