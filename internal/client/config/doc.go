// Package config loads runtime configuration for the ChatKeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend REST API
//	-w string   websocket URL of the live-update channel
//	-p int      history page size
//	-d string   local cache DSN ("" disables the cache)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be
// either strings like "1s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://chat.example.com/api",
//	  "stream_url": "wss://chat.example.com/ws",
//	  "page_size": 20,
//	  "reconnect_attempts": 5,
//	  "reconnect_backoff": "1s",
//	  "cache_dsn": "chatkeeper.db"
//	}
//
// This package does not read environment variables; use the JSON file or
// flags.
package config
