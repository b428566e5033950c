// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml over Default() and validated using
// struct tags. The package supports multiple feeds and allows feed selection
// by name.
package config
