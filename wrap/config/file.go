/*
NAME
  file.go

DESCRIPTION
  file.go provides loading of configuration variables from a TOML file.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LoadFile decodes the TOML file at path into a map of variable names to
// values, suitable for Config.Update. Top level keys name variables; arrays
// are joined with commas.
func LoadFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var raw map[string]interface{}
	err = toml.NewDecoder(f).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := tomlString(v)
		if err != nil {
			return nil, fmt.Errorf("config key %s: %w", k, err)
		}
		vars[k] = s
	}
	return vars, nil
}

// tomlString formats a decoded TOML value the way it would be given on the
// command line.
func tomlString(v interface{}) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case bool, int64, float64:
		return fmt.Sprint(v), nil
	case []interface{}:
		parts := make([]string, len(v))
		for i, e := range v {
			s, err := tomlString(e)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
