// Package config provides startup configuration for the session authorizer.
//
// Configuration is loaded once from a YAML file with ${VAR} and
// ${VAR:-default} environment variable substitution. There is no runtime
// reloading: the allow-list and store wiring derived from configuration
// are fixed for the life of the process, and a configuration change
// requires a restart.
package config
