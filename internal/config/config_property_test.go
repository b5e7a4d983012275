//go:build property

package config

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/viper"
)

func TestConfigValidationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("poll intervals load iff within bounds", prop.ForAll(
		func(ms int64) bool {
			interval := time.Duration(ms) * time.Millisecond
			v := viper.New()
			v.Set("watch.poll_interval", interval)
			_, err := LoadFrom(v)
			inRange := interval >= minPollInterval && interval <= maxPollInterval
			return (err == nil) == inRange
		},
		gen.Int64Range(0, 2*int64(maxPollInterval/time.Millisecond)),
	))

	properties.Property("shader models load iff supported", prop.ForAll(
		func(minor int) bool {
			v := viper.New()
			v.Set("compiler.shader_model", minor)
			_, err := LoadFrom(v)
			return (err == nil) == (minor >= 0 && minor <= 8)
		},
		gen.IntRange(-4, 12),
	))

	properties.TestingRun(t)
}
