package config

import "os"

// ExpandEnv expands environment variables in YAML content using the
// standard library's shell-style substitution. Supports both ${VAR} and
// $VAR syntax.
//
// Missing variables expand to empty string; validation catches required
// fields left empty as a result.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
