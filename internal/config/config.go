// Package config loads application settings from the environment, an optional
// config file and built-in defaults.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Events   EventsConfig   `mapstructure:"events" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DatabaseConfig selects the storage backend and holds its connection settings.
// URL, when set, takes precedence over the discrete Postgres fields.
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL        string `mapstructure:"url" validate:"omitempty,url"`
	Host       string `mapstructure:"host" validate:"required_if=Driver postgres"`
	Port       string `mapstructure:"port" validate:"required_if=Driver postgres"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name" validate:"required_if=Driver postgres"`
	SSLMode    string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns   int32  `mapstructure:"max_conns" validate:"gt=0"`
	MinConns   int32  `mapstructure:"min_conns" validate:"gte=0,ltefield=MaxConns"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
}

// DSN builds a libpq-compatible connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// EventsConfig holds domain defaults for events and attendee listings.
type EventsConfig struct {
	DefaultTimezone string `mapstructure:"default_timezone" validate:"required,timezone"`
	PageSize        int    `mapstructure:"page_size" validate:"gt=0,ltefield=MaxPageSize"`
	MaxPageSize     int    `mapstructure:"max_page_size" validate:"gt=0"`
}
