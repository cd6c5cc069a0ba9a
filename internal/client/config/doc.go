// Package config loads runtime configuration for the moodkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   server base URL
//	-f string   local session database file
//	-b string   comma separated backend priority list
//	-l string   log level
//	-t int      request timeout (seconds)
//	-z string   reference time zone
//	-i string   image file polled as the camera feed
//	-o string   log file, rotated by size (stderr when empty)
//
// # JSON schema
//
// Intervals use timex.Duration, so they can be strings like "1s" or integer
// nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "backends": ["unrolled", "cpu"],
//	  "clock_interval": "1s",
//	  "face_detect_interval": "100ms"
//	}
package config
