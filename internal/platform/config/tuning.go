package config

import (
	"fmt"
	"runtime"
)

// Tuning profile names.
const (
	ProfileDefault = "default"
	ProfileStress  = "stress"
	ProfileLow     = "low"
)

// TuningConfig holds channel buffers, pool sizes and rate limits.
// Profile seeds every field left at zero.
type TuningConfig struct {
	Profile string `mapstructure:"profile" validate:"required,oneof=default stress low"`

	// Channel buffer sizes
	CommandBuffer    int `mapstructure:"command_buffer" validate:"min=1"`
	BroadcastBuffer  int `mapstructure:"broadcast_buffer" validate:"min=1"`
	ClientSendBuffer int `mapstructure:"client_send_buffer" validate:"min=1"`

	// Connection pools (postgres only)
	DBMaxOpenConns int `mapstructure:"db_max_open_conns" validate:"min=1"`
	DBMaxIdleConns int `mapstructure:"db_max_idle_conns" validate:"min=1"`

	// Rate limiting
	MaxMessagesPerSecond int `mapstructure:"max_messages_per_second" validate:"min=1"`
	MaxClients           int `mapstructure:"max_clients" validate:"min=1"`
}

// DefaultTuning returns sensible defaults for production.
func DefaultTuning() TuningConfig {
	numCPU := runtime.NumCPU()

	return TuningConfig{
		Profile: ProfileDefault,

		CommandBuffer:    256, // Handle bursts of drops
		BroadcastBuffer:  256,
		ClientSendBuffer: 64, // Per WebSocket

		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,

		MaxMessagesPerSecond: 20, // Per client
		MaxClients:           50,
	}
}

// StressTuning returns aggressive settings for playtester runs.
func StressTuning() TuningConfig {
	numCPU := runtime.NumCPU()

	return TuningConfig{
		Profile: ProfileStress,

		CommandBuffer:    2048,
		BroadcastBuffer:  1024,
		ClientSendBuffer: 256,

		DBMaxOpenConns: numCPU * 8,
		DBMaxIdleConns: numCPU * 4,

		MaxMessagesPerSecond: 200,
		MaxClients:           500,
	}
}

// LowResourceTuning returns minimal settings for development.
func LowResourceTuning() TuningConfig {
	return TuningConfig{
		Profile: ProfileLow,

		CommandBuffer:    32,
		BroadcastBuffer:  16,
		ClientSendBuffer: 8,

		DBMaxOpenConns: 5,
		DBMaxIdleConns: 2,

		MaxMessagesPerSecond: 10,
		MaxClients:           5,
	}
}

// TuningProfile returns the named profile.
func TuningProfile(name string) (TuningConfig, error) {
	switch name {
	case ProfileDefault, "":
		return DefaultTuning(), nil
	case ProfileStress:
		return StressTuning(), nil
	case ProfileLow:
		return LowResourceTuning(), nil
	default:
		return TuningConfig{}, fmt.Errorf("unknown tuning profile %q", name)
	}
}

// fillFrom copies every zero field from p.
func (t *TuningConfig) fillFrom(p TuningConfig) {
	if t.Profile == "" {
		t.Profile = p.Profile
	}
	if t.CommandBuffer == 0 {
		t.CommandBuffer = p.CommandBuffer
	}
	if t.BroadcastBuffer == 0 {
		t.BroadcastBuffer = p.BroadcastBuffer
	}
	if t.ClientSendBuffer == 0 {
		t.ClientSendBuffer = p.ClientSendBuffer
	}
	if t.DBMaxOpenConns == 0 {
		t.DBMaxOpenConns = p.DBMaxOpenConns
	}
	if t.DBMaxIdleConns == 0 {
		t.DBMaxIdleConns = p.DBMaxIdleConns
	}
	if t.MaxMessagesPerSecond == 0 {
		t.MaxMessagesPerSecond = p.MaxMessagesPerSecond
	}
	if t.MaxClients == 0 {
		t.MaxClients = p.MaxClients
	}
}
