package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/flagx"
	"github.com/dmitrijs2005/chatkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "1s" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config.
type JsonConfig struct {
	APIBaseURL        string         `json:"api_base_url"`
	StreamURL         string         `json:"stream_url"`
	PageSize          int            `json:"page_size"`
	IncrementalWindow int            `json:"incremental_window"`
	ReconnectAttempts int            `json:"reconnect_attempts"`
	ReconnectBackoff  timex.Duration `json:"reconnect_backoff"`
	CacheDSN          string         `json:"cache_dsn"`
}

// parseJson overlays Config with values loaded from a JSON file selected
// via the -c or -config flags. If no file is given the function is a
// no-op; read or unmarshal errors panic (caller may recover).
//
// Only fields present in the JSON override the current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.StreamURL != "" {
		cfg.StreamURL = jc.StreamURL
	}
	if jc.PageSize > 0 {
		cfg.PageSize = jc.PageSize
	}
	if jc.IncrementalWindow > 0 {
		cfg.IncrementalWindow = jc.IncrementalWindow
	}
	if jc.ReconnectAttempts > 0 {
		cfg.ReconnectAttempts = jc.ReconnectAttempts
	}
	if jc.ReconnectBackoff.Duration > 0 {
		cfg.ReconnectBackoff = time.Duration(jc.ReconnectBackoff.Duration)
	}
	if jc.CacheDSN != "" {
		cfg.CacheDSN = jc.CacheDSN
	}
}
