// Package confloader loads configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Environment variables (SUPERTRACKER_ prefix)
//  2. Configuration file (YAML)
//  3. Default values taken from the target struct
//
// Watcher reports changes to watched configuration files so long-running
// processes can reload settings such as the log level.
package confloader
