// Package config loads dxcwatch settings with Viper from a YAML file,
// DXCWATCH_ environment variables and command-line flags.
//
// Example .dxcwatch.yml:
//
//	watch:
//	  poll_interval: 250ms
//	  backend: fsnotify
//	compiler:
//	  executable: dxc
//	  shader_model: 5
//	  debug: false
//	  defines: [USE_BINDLESS]
//	  include_dirs: [include]
//	  outputs: [dxil, spirv]
//	  timeout: 1m
//	notify:
//	  addr: 127.0.0.1:9630
//	  allowed_origins: [localhost]
//	log:
//	  level: info
//	  format: text
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the complete dxcwatch configuration.
type Config struct {
	Watch    WatchConfig    `mapstructure:"watch"`
	Compiler CompilerConfig `mapstructure:"compiler"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

type WatchConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Backend      string        `mapstructure:"backend"`
}

type CompilerConfig struct {
	Executable  string        `mapstructure:"executable"`
	ShaderModel int           `mapstructure:"shader_model"`
	Debug       bool          `mapstructure:"debug"`
	Defines     []string      `mapstructure:"defines"`
	IncludeDirs []string      `mapstructure:"include_dirs"`
	Outputs     []string      `mapstructure:"outputs"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// NotifyConfig configures the WebSocket feed. An empty Addr disables it.
type NotifyConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("watch.poll_interval", 250*time.Millisecond)
	v.SetDefault("watch.backend", "fsnotify")

	v.SetDefault("compiler.executable", "dxc")
	v.SetDefault("compiler.shader_model", 5)
	v.SetDefault("compiler.debug", false)
	v.SetDefault("compiler.defines", []string{})
	v.SetDefault("compiler.include_dirs", []string{})
	v.SetDefault("compiler.outputs", []string{"dxil", "spirv"})
	v.SetDefault("compiler.timeout", time.Minute)

	v.SetDefault("notify.addr", "")
	v.SetDefault("notify.allowed_origins", []string{"localhost", "127.0.0.1"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Environment overrides arrive as a single whitespace separated string.
	config.Compiler.Defines = v.GetStringSlice("compiler.defines")
	config.Compiler.IncludeDirs = v.GetStringSlice("compiler.include_dirs")
	config.Compiler.Outputs = v.GetStringSlice("compiler.outputs")
	config.Notify.AllowedOrigins = v.GetStringSlice("notify.allowed_origins")

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
