// Package options holds the bridge configuration: defaults, flags,
// validation and loading from file, environment and .env.
package options

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/pkg/logger"
)

// EnvPrefix prefixes every environment override, e.g. TOOLBRIDGE_LOG_LEVEL.
const EnvPrefix = "TOOLBRIDGE"

// FlagConfig names the config file flag.
const FlagConfig = "config"

type Options struct {
	Log    *LogOptions    `json:"log"    mapstructure:"log"`
	Fetch  *FetchOptions  `json:"fetch"  mapstructure:"fetch"`
	Server *ServerOptions `json:"server" mapstructure:"server"`
	Model  *ModelOptions  `json:"model"  mapstructure:"model"`
}

func NewOptions() *Options {
	return &Options{
		Log:    NewLogOptions(),
		Fetch:  NewFetchOptions(),
		Server: NewServerOptions(),
		Model:  NewModelOptions(),
	}
}

// AddFlags registers every option on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.Fetch.AddFlags(fs)
	o.Server.AddFlags(fs)
	o.Model.AddFlags(fs)
}

// Validate returns every problem found, joined.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.Log.Validate()...)
	errs = append(errs, o.Fetch.Validate()...)
	errs = append(errs, o.Server.Validate()...)
	errs = append(errs, o.Model.Validate()...)
	return errors.Join(errs...)
}

func (o *Options) String() string {
	redacted := *o
	model := *o.Model
	if model.APIKey != "" {
		model.APIKey = "******"
	}
	redacted.Model = &model
	data, _ := json.Marshal(redacted)
	return string(data)
}

// Loader resolves options from, in increasing priority: defaults, the
// config file, the environment (including .env) and explicitly set flags.
type Loader struct {
	v      *viper.Viper
	flags  *pflag.FlagSet
	dotenv string
}

// NewLoader binds flags to a fresh viper instance. dotenv may be empty to
// skip loading a .env file.
func NewLoader(flags *pflag.FlagSet, dotenv string) (*Loader, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}
	return &Loader{v: v, flags: flags, dotenv: dotenv}, nil
}

// Load reads configFile, or toolbridge.{yaml,json,...} from the working
// directory and $HOME/.toolbridge when configFile is empty. A missing
// default config file is not an error.
func (l *Loader) Load(configFile string) (*Options, error) {
	if err := loadDotEnv(l.dotenv); err != nil {
		return nil, err
	}

	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName("toolbridge")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("$HOME/.toolbridge")
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	opts, err := l.decode()
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// ConfigFileUsed returns the config file read by Load, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch calls onChange with freshly decoded options whenever the config
// file changes. Invalid updates are logged and skipped.
func (l *Loader) Watch(onChange func(*Options)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		opts, err := l.decode()
		if err != nil {
			logger.Warn("[CONFIG] ignoring reload of %s: %v", e.Name, err)
			return
		}
		logger.Info("[CONFIG] reloaded %s", e.Name)
		onChange(opts)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Options, error) {
	opts := NewOptions()
	if err := l.v.Unmarshal(opts); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
