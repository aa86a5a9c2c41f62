package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/naoina/toml"

	"github.com/Easy-Infra-Ltd/easy-input-guard/src/sanitizer"
)

// ErrUnknownTablesFormat is returned for tables files that are neither
// JSON nor TOML.
var ErrUnknownTablesFormat = errors.New("tables file must end in .json or .toml")

// Tables returns the denylists the sanitizer should use: the built-in
// tables with any fields from the configured tables file applied on top.
// Config therefore satisfies sanitizer.TablesProvider.
func (c Config) Tables() (sanitizer.Tables, error) {
	base := sanitizer.DefaultTables()
	if c.Sanitizer.TablesFile == "" {
		return base, nil
	}

	override, err := LoadTables(c.Sanitizer.TablesFile)
	if err != nil {
		return sanitizer.Tables{}, err
	}
	return MergeTables(base, override), nil
}

// LoadTables reads a tables file. The format is chosen by extension:
// .json is decoded with encoding/json and .toml with naoina/toml.
func LoadTables(path string) (sanitizer.Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sanitizer.Tables{}, fmt.Errorf("reading tables %s: %w", path, err)
	}

	var t sanitizer.Tables
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &t)
	case ".toml":
		err = toml.Unmarshal(data, &t)
	default:
		return sanitizer.Tables{}, fmt.Errorf("%s: %w", path, ErrUnknownTablesFormat)
	}
	if err != nil {
		return sanitizer.Tables{}, fmt.Errorf("parsing tables %s: %w", path, err)
	}
	return t, nil
}

// MergeTables returns base with every field that is set in override
// replaced. A list that is present but empty in override clears the
// corresponding base list.
func MergeTables(base, override sanitizer.Tables) sanitizer.Tables {
	merged := base

	if override.Version != "" {
		merged.Version = override.Version
	}
	if override.NeverAllowed != nil {
		merged.NeverAllowed = override.NeverAllowed
	}
	if override.NeverAllowedPatterns != nil {
		merged.NeverAllowedPatterns = override.NeverAllowedPatterns
	}
	if override.NaughtyTags != nil {
		merged.NaughtyTags = override.NaughtyTags
	}
	if override.EvilAttributes != nil {
		merged.EvilAttributes = override.EvilAttributes
	}
	if override.Keywords != nil {
		merged.Keywords = override.Keywords
	}
	if override.Functions != nil {
		merged.Functions = override.Functions
	}

	return merged
}
