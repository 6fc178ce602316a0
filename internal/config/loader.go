package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadFromFile reads and parses a TOML configuration file at path. It returns
// a fully decoded *Config on success. Unknown TOML keys produce slog warnings
// (not errors) to maintain forward compatibility with future schema additions.
// Invalid TOML syntax causes an error that includes the file path and line
// information from the TOML decoder.
func LoadFromFile(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := rejectUnknownProfileKeys(meta, path); err != nil {
		return nil, err
	}
	warnUndecodedKeys(meta, path)

	return &cfg, nil
}

// LoadFromString parses TOML configuration from an in-memory string. It
// behaves identically to LoadFromFile except the source is a string rather
// than a file. The name parameter is used in log messages and error output.
func LoadFromString(data, name string) (*Config, error) {
	var cfg Config
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}

	if err := rejectUnknownProfileKeys(meta, name); err != nil {
		return nil, err
	}
	warnUndecodedKeys(meta, name)

	return &cfg, nil
}

// rejectUnknownProfileKeys returns a *ConfigError for any undecoded TOML key
// that falls under a [profile.<name>] table. Per spec.md §6, a profile
// document's own fields are a closed schema and an unrecognized one is a
// hard error; unrecognized keys elsewhere in the config file (reserved for
// future top-level sections) only warn, handled by warnUndecodedKeys.
func rejectUnknownProfileKeys(meta toml.MetaData, source string) error {
	var bad []string
	for _, k := range meta.Undecoded() {
		path := k.String()
		if strings.HasPrefix(path, "profile.") {
			bad = append(bad, path)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return fmt.Errorf("parse config %s: unknown profile key(s): %s", source, strings.Join(bad, ", "))
}

// warnUndecodedKeys logs a warning for each key in the TOML document that did
// not map to any field in the Config struct. This allows users to add new
// fields to their config files without breaking older versions of copytree.
func warnUndecodedKeys(meta toml.MetaData, source string) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}

	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}

	slog.Warn("unknown config keys will be ignored",
		"source", source,
		"keys", strings.Join(keys, ", "),
	)
}
