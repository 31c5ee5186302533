// Package settings loads the optional tool configuration file. Absent
// file and absent keys fall back to the built-in defaults; command line
// flags override whatever the file provides.
package settings

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/ni/nilrt-snac/internal/brand"
)

// Settings are the tunables an operator can persist on the target.
type Settings struct {
	LogDir     string `yaml:"log_dir"`
	DataDir    string `yaml:"data_dir"`
	AuditGroup string `yaml:"audit_group"`
	AuditEmail string `yaml:"audit_email"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		LogDir:     brand.GetLogDir(),
		DataDir:    brand.GetDataDir(),
		AuditGroup: brand.AuditGroup,
	}
}

// Load reads settings from path, layered over the defaults. A missing
// file is not an error.
func Load(path string) (Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return s, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	if file.LogDir != "" {
		s.LogDir = file.LogDir
	}
	if file.DataDir != "" {
		s.DataDir = file.DataDir
	}
	if file.AuditGroup != "" {
		s.AuditGroup = file.AuditGroup
	}
	if file.AuditEmail != "" {
		s.AuditEmail = file.AuditEmail
	}
	return s, nil
}
