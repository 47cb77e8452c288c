// Package config provides environment-based configuration for the HTTP
// service.
//
// Loads from .env file (godotenv), maps to Config struct via go-simpler/env
// struct tags and validates ranges.
package config
