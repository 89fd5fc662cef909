// Package config defines the SuperTracker configuration structure shared
// by supertracker-cli and supertracker-agent.
//
//   - spec.go: Config struct with koanf tags
//   - default.go: default values
//   - verify.go: validation
//   - sanitize.go: secret masking for logs and `config show`
//   - load.go: loading through confloader
package config
