package config

import (
	"fmt"
	"net/url"
)

// defaultSTUNServer is the public STUN endpoint used when no servers are
// configured, matching what the backend's call flow assumes.
const defaultSTUNServer = "stun:stun.l.google.com:19302"

type Config struct {
	// RelayURL is the websocket endpoint of the event relay.
	RelayURL string
	// APIBaseURL is the base URL of the REST collaborator.
	APIBaseURL string
	// AuthToken is the bearer token for both the relay and the REST API.
	AuthToken string
	// STUNServers are the ICE servers handed to new peer connections.
	STUNServers []string
	// DebugAddr is the listen address of the local debug/metrics server.
	// Empty disables the debug server.
	DebugAddr string
}

func NewConfig(relayURL, apiBaseURL, authToken string, stunServers []string, debugAddr string) (*Config, error) {
	if authToken == "" {
		return nil, fmt.Errorf("auth token cannot be empty")
	}

	if err := validateURL(relayURL, "ws", "wss"); err != nil {
		return nil, fmt.Errorf("relay url: %w", err)
	}
	if err := validateURL(apiBaseURL, "http", "https"); err != nil {
		return nil, fmt.Errorf("api url: %w", err)
	}

	if len(stunServers) == 0 {
		stunServers = []string{defaultSTUNServer}
	}

	return &Config{
		RelayURL:    relayURL,
		APIBaseURL:  apiBaseURL,
		AuthToken:   authToken,
		STUNServers: stunServers,
		DebugAddr:   debugAddr,
	}, nil
}

func validateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return fmt.Errorf("cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}
