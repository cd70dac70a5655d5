// Package config loads Explore's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/explore/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Portal: https://www.arcgis.com/
//   - Web map: 3bc3179f17da44a0ac0bfdac4ad15664
//   - Cache directory: <user cache dir>/explore
//   - Offline directory: arcgis_offline_maps (under the cache directory)
//   - Log file: <cache_dir>/explore.log at level info
//   - Thumbnail timeout: 10s; request timeout: 30s
//   - Metrics endpoint: disabled
//
// # TOML Format
//
//	portal_url = "https://www.arcgis.com/"
//	map_id = "3bc3179f17da44a0ac0bfdac4ad15664"
//	cache_dir = "~/.cache/explore"
//	offline_dir = "arcgis_offline_maps"
//	log_file = "~/.cache/explore/explore.log"
//	log_level = "debug"
//	thumbnail_timeout = "10s"
//	request_timeout = "30s"
//	metrics_addr = "127.0.0.1:9464"
//
// Durations use Go syntax. A thumbnail_timeout of "0s" disables the per-fetch
// bound, leaving thumbnail fetches limited only by request_timeout.
//
// # Path Expansion
//
// Leading ~ in cache_dir and log_file expands to the user's home directory and
// the result is made absolute. Setting cache_dir without log_file moves the
// log file along with it.
package config
