package brand

import (
	"os"
	"testing"
)

func TestGet(t *testing.T) {
	b := Get()
	if b.Name == "" {
		t.Error("Brand name should not be empty")
	}
	if Version == "" {
		t.Error("Global Version should be initialized (to dev default)")
	}
	if Name == "" {
		t.Error("Global Name should be initialized")
	}
	if AuditGroup == "" {
		t.Error("Audit group should be initialized")
	}
}

func TestGetDirectories(t *testing.T) {
	cleanEnv := func() {
		os.Unsetenv(ConfigEnvPrefix + "_LOG_DIR")
		os.Unsetenv(ConfigEnvPrefix + "_DATA_DIR")
		os.Unsetenv(ConfigEnvPrefix + "_CONFIG_DIR")
	}
	cleanEnv()
	defer cleanEnv()

	if GetLogDir() != DefaultLogDir {
		t.Errorf("GetLogDir default mismatch: %s", GetLogDir())
	}

	os.Setenv(ConfigEnvPrefix+"_LOG_DIR", "/tmp/logs")
	if GetLogDir() != "/tmp/logs" {
		t.Errorf("GetLogDir env override failed: %s", GetLogDir())
	}

	os.Setenv(ConfigEnvPrefix+"_DATA_DIR", "/tmp/data")
	if GetDataDir() != "/tmp/data" {
		t.Errorf("GetDataDir env override failed: %s", GetDataDir())
	}
}
