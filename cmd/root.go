// Package cmd provides the dxcwatch command-line interface.
//
// Configuration is read, from highest to lowest priority, from:
//
//  1. command-line flags (--log-level, --include, ...)
//  2. DXCWATCH_<SECTION>_<KEY> environment variables
//  3. the file named by --config or DXCWATCH_CONFIG_FILE
//  4. .dxcwatch.yml in the current directory
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/dxcwatch/internal/compiler"
	"github.com/conneroisu/dxcwatch/internal/config"
	"github.com/conneroisu/dxcwatch/internal/logging"
)

var cfgFile string

// newDXC builds the compiler used by every command.
var newDXC = compiler.NewDXC

var rootCmd = &cobra.Command{
	Use:   "dxcwatch",
	Short: "Recompile HLSL shaders with DXC whenever their sources change",
	Long: `dxcwatch watches a shaderlist, every shader source it names and every
file those sources include, and recompiles the affected shaders with the
DirectX Shader Compiler (dxc) as soon as something changes.

Quick Start:
  dxcwatch watch shaders/shaderlist.txt     Watch and rebuild until interrupted
  dxcwatch build shaders/shaderlist.txt     Build everything once
  dxcwatch compile lit.hlsl main ps out/lit Compile a single shader`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .dxcwatch.yml, can also use DXCWATCH_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.StringSliceP("include", "I", nil, "additional include directory (repeatable)")
	flags.StringSliceP("define", "D", nil, "preprocessor define NAME or NAME=VALUE (repeatable)")
	flags.Int("shader-model", 5, "minor version of shader model 6")
	flags.Bool("debug", false, "embed debug information")
	flags.String("dxc", "dxc", "path of the dxc executable")

	bind(flags, map[string]string{
		"log.level":             "log-level",
		"log.format":            "log-format",
		"compiler.include_dirs": "include",
		"compiler.defines":      "define",
		"compiler.shader_model": "shader-model",
		"compiler.debug":        "debug",
		"compiler.executable":   "dxc",
	})
}

// bind binds flags of the set to viper keys.
func bind(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// initConfig selects the config file and enables environment overrides.
// A missing config file is not an error; a malformed one is reported when
// the configuration is loaded.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("DXCWATCH_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".dxcwatch")
	}

	viper.SetEnvPrefix("DXCWATCH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// setup reads the config file, then loads and validates the configuration
// and builds the logger it describes.
func setup() (*config.Config, logging.Logger, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.NewLogger(cfg.LoggerConfig())
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug(context.Background(), "Using config file", "path", used)
	}
	return cfg, logger, nil
}
