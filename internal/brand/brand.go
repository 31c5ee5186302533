// Package brand provides centralized branding constants for the tool.
// The identity is loaded from brand.json at compile time via go:embed so
// that packaging scripts and docs generators can read the same file.
package brand

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information.
type Brand struct {
	Name             string `json:"name"`
	LowerName        string `json:"lowerName"`
	Vendor           string `json:"vendor"`
	Description      string `json:"description"`
	BinaryName       string `json:"binaryName"`
	DefaultLogDir    string `json:"defaultLogDir"`
	DefaultDataDir   string `json:"defaultDataDir"`
	DefaultConfigDir string `json:"defaultConfigDir"`
	ConfigFileName   string `json:"configFileName"`
	ShareDir         string `json:"shareDir"`
	AuditGroup       string `json:"auditGroup"`
	ConfigEnvPrefix  string `json:"configEnvPrefix"`
	License          string `json:"license"`
}

var b Brand

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	Name = b.Name
	LowerName = b.LowerName
	Vendor = b.Vendor
	Description = b.Description
	BinaryName = b.BinaryName
	DefaultLogDir = b.DefaultLogDir
	DefaultDataDir = b.DefaultDataDir
	DefaultConfigDir = b.DefaultConfigDir
	ConfigFileName = b.ConfigFileName
	ShareDir = b.ShareDir
	AuditGroup = b.AuditGroup
	ConfigEnvPrefix = b.ConfigEnvPrefix
	License = b.License
}

// Exported variables for convenience.
var (
	Name             string
	LowerName        string
	Vendor           string
	Description      string
	BinaryName       string
	DefaultLogDir    string
	DefaultDataDir   string
	DefaultConfigDir string
	ConfigFileName   string
	ShareDir         string
	AuditGroup       string
	ConfigEnvPrefix  string
	License          string

	// Version is set at build time via -ldflags
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Get returns the full Brand struct.
func Get() Brand {
	return b
}

// GetLogDir returns the log directory, checking env vars first.
// Priority: NILRT_SNAC_LOG_DIR > DefaultLogDir
func GetLogDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_LOG_DIR"); dir != "" {
		return dir
	}
	return DefaultLogDir
}

// GetDataDir returns the data directory, checking env vars first.
func GetDataDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_DATA_DIR"); dir != "" {
		return dir
	}
	return DefaultDataDir
}

// ConfigFilePath returns the full path of the optional tool settings file.
func ConfigFilePath() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, ConfigFileName)
	}
	return filepath.Join(DefaultConfigDir, ConfigFileName)
}
