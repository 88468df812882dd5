package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 30, cfg.Compliance.CDLWarningDays)
	assert.Equal(t, 30, cfg.Compliance.InspectionWarningDays)
	assert.Equal(t, StorageLocal, cfg.Reports.StorageBackend)
	assert.Equal(t, 24*time.Hour, cfg.Notifier.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestOverridesFromEnvironment(t *testing.T) {
	t.Setenv("COMPLIANCE_MEDICAL_WARNING_DAYS", "45")
	t.Setenv("REPORTS_STORAGE_BACKEND", "S3")
	t.Setenv("NOTIFIER_INTERVAL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://ops.example.com, ,https://fleet.example.com")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, 45, cfg.Compliance.MedicalWarningDays)
	assert.Equal(t, StorageS3, cfg.Reports.StorageBackend)
	assert.Equal(t, 24*time.Hour, cfg.Notifier.Interval)
	assert.Equal(t, []string{"https://ops.example.com", "https://fleet.example.com"}, cfg.CORS.AllowedOrigins)
}
