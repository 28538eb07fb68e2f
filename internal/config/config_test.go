package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "PAGE_SIZE", "REQUEST_TIMEOUT", "LOG_LEVEL", "COOKIE_SECURE", "MAX_OPEN_VIEWS"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 10, cfg.LookupBatchSize)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 500, cfg.MaxOpenViews)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("VIEW_IDLE_TIMEOUT", "2m")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("MAX_OPEN_VIEWS", "8")

	cfg := FromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 2*time.Minute, cfg.ViewIdleTimeout)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 8, cfg.MaxOpenViews)
}
