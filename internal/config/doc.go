// Package config provides configuration loading and validation for the
// speech generation tool. It handles YAML-based configuration with struct
// validation covering output paths, the dependency bundle source, the
// optional HTTP API, and logging.
package config
