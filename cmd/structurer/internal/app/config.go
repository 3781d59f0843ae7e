// Package app holds the structurer CLI's subcommands, split out of main so
// the config-loading and structuring glue can be unit tested without
// invoking cobra itself.
package app

import (
	"github.com/spf13/viper"
)

// Config is the structurer CLI's tunable knobs, loadable from a YAML file
// via --config or left at their defaults. IndentUnit is passed to the
// plain-text writer; LabelPrefix is read but not applied, and emitted
// labels always use the "L" prefix.
type Config struct {
	IndentUnit string `mapstructure:"indent_unit"`
	LabelPrefix string `mapstructure:"label_prefix"`
}

func defaultConfig() Config {
	return Config{IndentUnit: "    ", LabelPrefix: "L"}
}

// loadConfig reads path (if non-empty) via viper and merges it over the
// defaults; a missing or empty path just returns the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
