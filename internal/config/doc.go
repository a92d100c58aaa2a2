// Package config defines the application configuration structure and the
// loading logic that populates it from environment variables and an
// optional YAML file. All tunable policy (tier limits, scheduler
// parameters, batch sizes) lives here rather than as constants in the
// code that uses it.
package config
