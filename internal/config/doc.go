// Package config loads livetree settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, which may pull in others with "@include"
//  3. LIVETREE_ environment variables, e.g. LIVETREE_LOG_LEVEL=debug
//
// Example file:
//
//	[log]
//	level = "debug"
//	encoding = "console"
//
//	[journal]
//	max_changes = 5000
//
//	[script]
//	timeout = "2s"
//
//	[watch]
//	debounce = "200ms"
//	extensions = [".yaml", ".yml", ".lua", ".html"]
//
//	[document]
//	default_root = "main"
package config
