package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	c := FromViper(newViper())

	assert.Equal(t, "8080", c.APIPort)
	assert.Equal(t, 72*time.Hour, c.JWTExp)
	assert.Equal(t, 10*time.Second, c.ExecutorTimeout)
	assert.Equal(t, time.UTC, c.Timezone)
	assert.Equal(t, "payment_reconcile_queue", c.ReconcileQueueName)
	assert.True(t, c.DBAutoMigrate)
	assert.True(t, c.ReconcileInProcess)
	assert.Equal(t, 4, c.JudgeConcurrency)
	assert.Contains(t, c.DBConnStr, "dbname=codeapt")
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("EXECUTOR_TIMEOUT_SECONDS", "3")
	t.Setenv("APP_TIMEZONE", "Asia/Kolkata")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	c := FromViper(newViper())

	assert.Equal(t, "9090", c.APIPort)
	assert.Equal(t, 3*time.Second, c.ExecutorTimeout)
	require.NotNil(t, c.Timezone)
	assert.Equal(t, "Asia/Kolkata", c.Timezone.String())
	assert.False(t, c.DBAutoMigrate)
}

func TestFromViper_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

	c := FromViper(newViper())

	assert.Equal(t, time.UTC, c.Timezone)
}
