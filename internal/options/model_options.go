package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/voocel/toolbridge/llm"
)

// ModelOptions configures the model used by the chat command.
type ModelOptions struct {
	Model            string        `json:"model"              mapstructure:"model"`
	APIKey           string        `json:"api-key"            mapstructure:"api-key"`
	BaseURL          string        `json:"base-url"           mapstructure:"base-url"`
	Temperature      float64       `json:"temperature"        mapstructure:"temperature"`
	MaxTokens        int           `json:"max-tokens"         mapstructure:"max-tokens"`
	Timeout          time.Duration `json:"timeout"            mapstructure:"timeout"`
	MaxTurns         int           `json:"max-turns"          mapstructure:"max-turns"`
	SystemPrompt     string        `json:"system-prompt"      mapstructure:"system-prompt"`
	LenientToolNames bool          `json:"lenient-tool-names" mapstructure:"lenient-tool-names"`
}

// NewModelOptions creates a default ModelOptions instance.
func NewModelOptions() *ModelOptions {
	d := llm.DefaultProviderConfig()
	return &ModelOptions{
		Model:       d.Model,
		Temperature: d.Temperature,
		MaxTokens:   d.MaxTokens,
		Timeout:     d.Timeout,
		MaxTurns:    8,
	}
}

// Validate checks the options. The API key is only checked when a model
// is actually needed, see Provider.
func (o *ModelOptions) Validate() []error {
	var errs []error
	if o.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("invalid temperature %v, must be within [0, 2]", o.Temperature))
	}
	if o.MaxTurns <= 0 {
		errs = append(errs, errors.New("model max-turns must be positive"))
	}
	return errs
}

func (o *ModelOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Model, "model.model", o.Model, "Model name, e.g. gpt-4.1-mini or claude-sonnet-4.")
	fs.StringVar(&o.APIKey, "model.api-key", o.APIKey, "API key of the model provider.")
	fs.StringVar(&o.BaseURL, "model.base-url", o.BaseURL, "Override of the provider base URL.")
	fs.Float64Var(&o.Temperature, "model.temperature", o.Temperature, "Sampling temperature.")
	fs.IntVar(&o.MaxTokens, "model.max-tokens", o.MaxTokens, "Maximum completion tokens.")
	fs.DurationVar(&o.Timeout, "model.timeout", o.Timeout, "Timeout of a single model request.")
	fs.IntVar(&o.MaxTurns, "model.max-turns", o.MaxTurns, "Maximum model turns per chat message.")
	fs.StringVar(&o.SystemPrompt, "model.system-prompt", o.SystemPrompt, "System prompt for chat.")
	fs.BoolVar(&o.LenientToolNames, "model.lenient-tool-names", o.LenientToolNames,
		"Pair tool messages without a call id with any open call, not only one of the same name.")
}

// Provider converts the options for llm.NewProviderWithConfig.
func (o *ModelOptions) Provider() llm.ProviderConfig {
	return llm.ProviderConfig{
		APIKey:           o.APIKey,
		BaseURL:          o.BaseURL,
		Model:            o.Model,
		Temperature:      o.Temperature,
		MaxTokens:        o.MaxTokens,
		Timeout:          o.Timeout,
		LenientToolNames: o.LenientToolNames,
	}
}
