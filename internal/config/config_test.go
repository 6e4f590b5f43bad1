package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	var (
		relayURL = "ws://localhost:5000"
		apiURL   = "http://localhost:5000/api"
		token    = "some-token"
	)

	tcases := []struct {
		name     string
		relayURL string
		apiURL   string
		token    string
		err      bool
	}{
		{
			name:     "valid config",
			relayURL: relayURL,
			apiURL:   apiURL,
			token:    token,
			err:      false,
		},
		{
			name:     "empty relay url",
			relayURL: "",
			apiURL:   apiURL,
			token:    token,
			err:      true,
		},
		{
			name:     "relay url with http scheme",
			relayURL: "http://localhost:5000",
			apiURL:   apiURL,
			token:    token,
			err:      true,
		},
		{
			name:     "empty api url",
			relayURL: relayURL,
			apiURL:   "",
			token:    token,
			err:      true,
		},
		{
			name:     "empty auth token",
			relayURL: relayURL,
			apiURL:   apiURL,
			token:    "",
			err:      true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.relayURL, tc.apiURL, tc.token, nil, "")
			if tc.err {
				assert.Error(t, err, "expected error for config: %s", tc.name)
				return
			}
			assert.NoError(t, err, "expected no error for config: %s", tc.name)

			assert.Equal(t, tc.relayURL, cfg.RelayURL, "expected relay URL to match")
			assert.Equal(t, tc.apiURL, cfg.APIBaseURL, "expected API base URL to match")
			assert.Equal(t, tc.token, cfg.AuthToken, "expected auth token to match")
			assert.Equal(t, []string{defaultSTUNServer}, cfg.STUNServers,
				"expected default STUN server when none configured")
		})
	}
}

func TestNewConfig_customSTUNServers(t *testing.T) {
	servers := []string{"stun:stun.example.com:3478"}

	cfg, err := NewConfig("wss://relay.example.com", "https://api.example.com", "tok", servers, ":8001")
	assert.NoError(t, err, "expected no error for valid config")
	assert.Equal(t, servers, cfg.STUNServers, "expected configured STUN servers to be kept")
	assert.Equal(t, ":8001", cfg.DebugAddr, "expected debug address to be kept")
}
