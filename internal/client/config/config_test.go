package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080/api", c.APIBaseURL)
	assert.Equal(t, "ws://127.0.0.1:8080/ws", c.StreamURL)
	assert.Equal(t, 20, c.PageSize)
	assert.Equal(t, 20, c.IncrementalWindow)
	assert.Equal(t, 5, c.ReconnectAttempts)
	assert.Equal(t, time.Second, c.ReconnectBackoff)
	assert.Equal(t, "chatkeeper.db", c.CacheDSN)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080/api", cfg.APIBaseURL)
	assert.Equal(t, 20, cfg.PageSize)
}
