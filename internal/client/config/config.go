package config

import "time"

// Config holds runtime settings for the ChatKeeper client.
//
// Fields:
//   - APIBaseURL: base URL of the backend REST API.
//   - StreamURL: websocket URL of the live-update channel.
//   - PageSize: number of messages per history page.
//   - IncrementalWindow: size of the recent window fetched after a live
//     activity hint.
//   - ReconnectAttempts: bounded retries after an unexpected stream close
//     (0 disables reconnection).
//   - ReconnectBackoff: initial delay between reconnect attempts.
//   - CacheDSN: DSN of the local ciphertext cache ("" disables caching).
type Config struct {
	APIBaseURL        string
	StreamURL         string
	PageSize          int
	IncrementalWindow int
	ReconnectAttempts int
	ReconnectBackoff  time.Duration
	CacheDSN          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api"
	c.StreamURL = "ws://127.0.0.1:8080/ws"
	c.PageSize = 20
	c.IncrementalWindow = 20
	c.ReconnectAttempts = 5
	c.ReconnectBackoff = time.Second
	c.CacheDSN = "chatkeeper.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
