// Package config provides user configuration management for inkwell.
//
// This package manages a YAML-based configuration file holding editor
// timings, the AI assistance feature flag and its advisory snooze deadline,
// service endpoints and the model picker catalogue. The file follows OS
// conventions for its location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/inkwell/config.yaml or $HOME/.config/inkwell/config.yaml
//   - macOS: $HOME/.config/inkwell/config.yaml
//   - Windows: %LOCALAPPDATA%\inkwell\config.yaml
//
// # Security
//
// API keys and bearer tokens are NEVER stored. The file only names the
// environment variables that hold them.
//
// # Editor Integration
//
// *Registry satisfies the feature flag and snooze store interfaces consumed by
// the selection tracker, so the editor receives it as injected configuration:
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts := editor.Options{Flag: registry, Snooze: registry}
//
// Writes are atomic (temporary file and rename) and guarded by a file mutex.
package config
