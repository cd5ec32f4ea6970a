package config

import "time"

// ServerConfig holds the HTTP/WebSocket listener and the engine tick rate.
type ServerConfig struct {
	Address  string        `mapstructure:"address" validate:"required"`
	TickRate time.Duration `mapstructure:"tick_rate" validate:"min=1ms"`

	// Origins allowed to open /ws; empty allows any
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}
