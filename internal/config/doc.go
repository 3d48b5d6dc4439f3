// Package config provides configuration structures for studysight.
//
// It holds two kinds of state:
//   - Config, the tool configuration assembled from defaults, the optional
//     .studysight YAML file and CLI flags
//   - Settings, the user-facing suppression settings (enabled flag and extra
//     keywords) that the reconciler replaces wholesale on every update
package config
