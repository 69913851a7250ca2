package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type teamAliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadTeamAliases reads a YAML file of the form
//
//	aliases:
//	  Man City: Manchester City
//
// An empty path returns a nil map.
func LoadTeamAliases(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read team aliases file: %w", err)
	}

	var file teamAliasFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode team aliases file: %w", err)
	}

	out := make(map[string]string, len(file.Aliases))
	for alias, canonical := range file.Aliases {
		alias = strings.TrimSpace(alias)
		canonical = strings.TrimSpace(canonical)
		if alias == "" || canonical == "" {
			return nil, fmt.Errorf("team aliases file has empty entry %q: %q", alias, canonical)
		}
		out[alias] = canonical
	}
	return out, nil
}
