// Package provider selects and constructs suggestion providers.
package provider

import (
	"fmt"

	"ghosttext/provider/beacon"
	"ghosttext/provider/static"
	"ghosttext/types"
)

// Type names a provider implementation.
type Type string

const (
	TypeBeacon Type = "beacon"
	TypeStatic Type = "static"
)

// Config carries the settings shared by provider constructors.
type Config struct {
	APIURL    string
	APIKey    string
	TimeoutMs int
	DeviceID  string

	// StaticPath is the suggestions file for the static provider.
	StaticPath string
}

// New creates a provider instance of the given type.
func New(providerType Type, config *Config) (types.Provider, error) {
	switch providerType {
	case TypeBeacon:
		return beacon.NewProvider(config.APIURL, config.APIKey, config.TimeoutMs, config.DeviceID), nil
	case TypeStatic:
		return static.NewProvider(config.StaticPath)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
