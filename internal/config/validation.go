package config

import (
	"fmt"
	"time"

	"github.com/conneroisu/dxcwatch/internal/compiler"
	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/conneroisu/dxcwatch/internal/filewatch"
	"github.com/conneroisu/dxcwatch/internal/logging"
	"github.com/conneroisu/dxcwatch/internal/validation"
)

const (
	minPollInterval = 10 * time.Millisecond
	maxPollInterval = time.Minute
)

func invalid(format string, args ...interface{}) error {
	return errors.NewConfigError(errors.CodeConfigInvalid, "invalid configuration: "+fmt.Sprintf(format, args...))
}

// validateConfig validates configuration values
func validateConfig(config *Config) error {
	if err := validateWatchConfig(&config.Watch); err != nil {
		return err
	}
	if err := validateCompilerConfig(&config.Compiler); err != nil {
		return err
	}
	if err := validateNotifyConfig(&config.Notify); err != nil {
		return err
	}
	return validateLogConfig(&config.Log)
}

func validateWatchConfig(c *WatchConfig) error {
	if c.PollInterval < minPollInterval || c.PollInterval > maxPollInterval {
		return invalid("watch.poll_interval %s must be between %s and %s", c.PollInterval, minPollInterval, maxPollInterval)
	}
	if _, err := filewatch.BackendByName(c.Backend); err != nil {
		return err
	}
	return nil
}

func validateCompilerConfig(c *CompilerConfig) error {
	if c.ShaderModel < compiler.MinShaderModel || c.ShaderModel > compiler.MaxShaderModel {
		return invalid("compiler.shader_model 6.%d is not supported", c.ShaderModel)
	}
	if len(c.Outputs) == 0 {
		return invalid("compiler.outputs must name at least one format")
	}
	seen := make(map[compiler.Output]bool, len(c.Outputs))
	for _, name := range c.Outputs {
		out, err := compiler.ParseOutput(name)
		if err != nil {
			return err
		}
		if seen[out] {
			return invalid("compiler.outputs lists %s twice", out)
		}
		seen[out] = true
	}
	for _, define := range c.Defines {
		if err := validation.ValidateDefine(define); err != nil {
			return invalid("compiler.defines: %v", err)
		}
	}
	for _, dir := range c.IncludeDirs {
		if err := validation.ValidatePath(dir); err != nil {
			return invalid("compiler.include_dirs: %v", err)
		}
	}
	if c.Timeout < 0 {
		return invalid("compiler.timeout cannot be negative")
	}
	return nil
}

func validateNotifyConfig(c *NotifyConfig) error {
	if c.Addr == "" {
		return nil
	}
	if err := validation.ValidateListenAddr(c.Addr); err != nil {
		return invalid("notify.addr: %v", err)
	}
	return nil
}

func validateLogConfig(c *LogConfig) error {
	if _, err := logging.ParseLevel(c.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	if c.Format != "text" && c.Format != "json" {
		return invalid("log.format %q must be text or json", c.Format)
	}
	return nil
}

// CompilerOptions converts the compiler section into compiler options.
// The include directories are not part of it; they are also used for
// include scanning and are handed to the rebuild session.
func (c *Config) CompilerOptions(logger logging.Logger) (compiler.Options, error) {
	outputs := make([]compiler.Output, 0, len(c.Compiler.Outputs))
	for _, name := range c.Compiler.Outputs {
		out, err := compiler.ParseOutput(name)
		if err != nil {
			return compiler.Options{}, err
		}
		outputs = append(outputs, out)
	}
	return compiler.Options{
		Executable:  c.Compiler.Executable,
		ShaderModel: c.Compiler.ShaderModel,
		Debug:       c.Compiler.Debug,
		Defines:     c.Compiler.Defines,
		Outputs:     outputs,
		Timeout:     c.Compiler.Timeout,
		Logger:      logger,
	}, nil
}

// LoggerConfig converts the log section into logger options.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.Log.Format
	return cfg
}
