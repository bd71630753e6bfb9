package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPolicy_OverridesKeepDefaults(t *testing.T) {
	path := writePolicy(t, `
attendance:
  max_distance_meters: 250
leave:
  privilege_per_month: 3
`)

	policy, err := LoadPolicy(path)

	require.NoError(t, err)
	assert.Equal(t, 250.0, policy.Attendance.MaxDistanceMeters)
	assert.Equal(t, 100.0, policy.Attendance.MaxAccuracyMeters)
	assert.Equal(t, int64(5<<20), policy.Attendance.MaxPhotoSizeBytes)
	assert.Equal(t, 3, policy.Leave.PrivilegePerMonth)
	assert.Equal(t, 1, policy.Leave.EmergencyPerMonth)
}

func TestLoadPolicy_Errors(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadPolicy(writePolicy(t, "attendance: [not, a, map"))
	assert.Error(t, err)
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.Attendance.MaxDistanceMeters = 0
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.Attendance.AllowedContentTypes = nil
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.Leave.EmergencyPerMonth = -1
	assert.Error(t, p.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", DriverMemory)
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POLICY_FILE", writePolicy(t, "attendance:\n  max_accuracy_meters: 50\n"))

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 50.0, cfg.Policy.Attendance.MaxAccuracyMeters)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestValidate_RequiresSecrets(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: DriverPostgres},
		JWT:      JWTConfig{Secret: "secret"},
		Storage:  StorageConfig{Type: "memory"},
		Policy:   DefaultPolicy(),
	}
	assert.ErrorContains(t, cfg.Validate(), "DB_PASSWORD")

	cfg.Database.Driver = DriverMemory
	cfg.JWT.Secret = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET_KEY")

	cfg.JWT.Secret = "secret"
	cfg.Database.Driver = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "DB_DRIVER")
}
