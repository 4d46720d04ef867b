// ABOUTME: Tests for WebSocket client implementation
// ABOUTME: Tests address resolution and defaults
package client

import (
	"testing"
)

func TestNewClient(t *testing.T) {
	client := NewClient(Config{
		ServerAddr: "localhost:8927",
		Name:       "Test Listener",
	})
	if client == nil {
		t.Fatal("expected client to be created")
	}

	if client.config.ServerAddr != "localhost:8927" {
		t.Errorf("expected server addr localhost:8927, got %s", client.config.ServerAddr)
	}
	if client.config.ClientID == "" {
		t.Error("expected a generated client ID")
	}
	if client.IsConnected() {
		t.Error("new client should not be connected")
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"localhost:8927", "ws://localhost:8927/wavegen"},
		{"ws://10.0.0.2:9000/custom", "ws://10.0.0.2:9000/custom"},
		{"ws://10.0.0.2:9000", "ws://10.0.0.2:9000/wavegen"},
	}

	for _, tt := range tests {
		c := NewClient(Config{ServerAddr: tt.addr, Name: "x"})
		got, err := c.streamURL()
		if err != nil {
			t.Errorf("streamURL(%s) failed: %v", tt.addr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("streamURL(%s) = %s, want %s", tt.addr, got, tt.want)
		}
	}
}

func TestSendStateRequiresConnection(t *testing.T) {
	c := NewClient(Config{ServerAddr: "localhost:1", Name: "x"})
	if err := c.SendState("playing"); err == nil {
		t.Error("expected error when not connected")
	}
}
