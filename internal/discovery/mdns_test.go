// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager defaults and service entry parsing
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{
		ServiceName: "Test Generator",
		Port:        8927,
	})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	defer mgr.Stop()

	if mgr.config.Path != DefaultPath {
		t.Errorf("expected default path %s, got %s", DefaultPath, mgr.config.Path)
	}
}

func TestTXTRecords(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "gen", Port: 1, ServerID: "abc"})
	defer mgr.Stop()

	txt := mgr.txtRecords()
	if len(txt) != 2 || txt[0] != "path=/wavegen" || txt[1] != "server_id=abc" {
		t.Errorf("unexpected TXT records: %v", txt)
	}
}

func TestFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "Studio._wavegen._tcp.local.",
		AddrV4:     net.ParseIP("192.168.1.20"),
		Port:       8927,
		InfoFields: []string{"path=/custom", "server_id=1234", "junk"},
	}

	server := fromEntry(entry)
	if server == nil {
		t.Fatal("expected server info")
	}
	if server.Name != "Studio" {
		t.Errorf("expected name Studio, got %q", server.Name)
	}
	if server.Path != "/custom" || server.ServerID != "1234" {
		t.Errorf("unexpected TXT parse: %+v", server)
	}
	if got := server.URL(); got != "ws://192.168.1.20:8927/custom" {
		t.Errorf("unexpected URL %s", got)
	}
}

func TestFromEntryDefaults(t *testing.T) {
	server := fromEntry(&mdns.ServiceEntry{Name: "x", AddrV4: net.ParseIP("10.0.0.1"), Port: 80})
	if server.Path != DefaultPath {
		t.Errorf("expected default path, got %s", server.Path)
	}

	if fromEntry(&mdns.ServiceEntry{Name: "v6 only", Port: 80}) != nil {
		t.Error("expected nil for entry without IPv4 address")
	}
}
