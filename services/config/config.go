// Package config resolves the feature flags a bring-up runs with: embedded
// per-board defaults first, then overrides taken from the environment.
package config

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/vrischmann/envconfig"

	"bringup-go/bus"
	"bringup-go/errcode"
	"bringup-go/types"
)

const (
	configPrefix = "config"

	DefaultBoard    = "smdk6410"
	DefaultLogLevel = "info"
	DefaultGPIO     = "host"
)

// EmbeddedConfigLookup allows overriding how board defaults are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

// Env is the runner's environment.
type Env struct {
	Board    string `envconfig:"BRINGUP_BOARD"`
	Features string `envconfig:"BRINGUP_FEATURES"` // e.g. "wm1190_ev1 -sd_ch0 sd_ch1=true"
	LogLevel string `envconfig:"BRINGUP_LOG_LEVEL"`
	GPIO     string `envconfig:"BRINGUP_GPIO"` // "host" or "periph"
}

// LoadEnv reads Env. Unset variables take their defaults.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.InitWithOptions(&e, envconfig.Options{AllOptional: true}); err != nil {
		return Env{}, errcode.New(errcode.ConfigurationDefect, "load_env", "", "", err)
	}
	if e.Board == "" {
		e.Board = DefaultBoard
	}
	if e.LogLevel == "" {
		e.LogLevel = DefaultLogLevel
	}
	if e.GPIO == "" {
		e.GPIO = DefaultGPIO
	}
	return e, nil
}

type boardDefaults struct {
	Features map[string]bool `json:"features"`
}

// Load builds the configuration for board. Defaults come from the embedded
// table (a board without one starts with every feature off) and overrides
// are applied on top. A flag not in known is a ConfigurationDefect.
func Load(board string, known []types.Feature, overrides string) (types.BoardConfiguration, error) {
	isKnown := make(map[types.Feature]bool, len(known))
	for _, f := range known {
		isKnown[f] = true
	}
	flags := make(map[types.Feature]bool)

	if raw, ok := EmbeddedConfigLookup(board); ok && len(raw) > 0 {
		var d boardDefaults
		if err := json.Unmarshal(raw, &d); err != nil {
			return types.BoardConfiguration{}, errcode.New(errcode.ConfigurationDefect, "load_config", board, "embedded defaults", err)
		}
		for name, on := range d.Features {
			flags[types.Feature(name)] = on
		}
	}

	over, err := ParseFeatures(overrides)
	if err != nil {
		return types.BoardConfiguration{}, err
	}
	for f, on := range over {
		flags[f] = on
	}

	for f := range flags {
		if !isKnown[f] {
			return types.BoardConfiguration{}, errcode.New(errcode.ConfigurationDefect, "load_config", string(f), "unknown feature for "+board, errcode.InvalidParams)
		}
	}
	return types.NewBoardConfiguration(flags), nil
}

// ParseFeatures parses an override string. Tokens are shell-split and may
// also be comma separated: "name" enables, "-name" disables and
// "name=<bool>" sets explicitly. Later tokens win.
func ParseFeatures(s string) (map[types.Feature]bool, error) {
	words, err := shlex.Split(s)
	if err != nil {
		return nil, errcode.New(errcode.ConfigurationDefect, "parse_features", s, "", err)
	}
	out := make(map[types.Feature]bool)
	for _, w := range words {
		for _, tok := range strings.Split(w, ",") {
			if tok == "" {
				continue
			}
			name, on := tok, true
			switch {
			case strings.HasPrefix(tok, "-"):
				name, on = tok[1:], false
			case strings.Contains(tok, "="):
				var v string
				name, v, _ = strings.Cut(tok, "=")
				b, err := strconv.ParseBool(v)
				if err != nil {
					return nil, errcode.New(errcode.ConfigurationDefect, "parse_features", tok, "bad value", errcode.InvalidParams)
				}
				on = b
			}
			if name == "" {
				return nil, errcode.New(errcode.ConfigurationDefect, "parse_features", tok, "empty name", errcode.InvalidParams)
			}
			out[types.Feature(name)] = on
		}
	}
	return out, nil
}

// Publish announces every known flag as a retained config/<board>/<flag>
// message.
func Publish(conn *bus.Connection, board string, known []types.Feature, cfg types.BoardConfiguration) {
	for _, f := range known {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, board, string(f)), cfg.Enabled(f), true))
	}
}
