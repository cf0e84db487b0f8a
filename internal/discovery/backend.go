package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Backend is an inkwell server found on the local network
type Backend struct {
	// Instance is the advertised instance name (e.g., "inkwell on studio")
	Instance string

	// Hostname is the mDNS hostname (e.g., "studio.local.")
	Hostname string

	// IP is the IPv4 address, or IPv6 when the server has none
	IP string

	// Port is the HTTP port
	Port int

	// Metadata contains the TXT record data
	// Common fields: "app=inkwell", "version=1.2.0", "api=/api"
	Metadata map[string]string

	// DiscoveredAt is when the backend was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the backend
func (b *Backend) String() string {
	if v := b.GetMetadata("version"); v != "" {
		return fmt.Sprintf("%s (%s, v%s) at %s", b.Instance, b.Hostname, v, b.hostPort())
	}
	return fmt.Sprintf("%s (%s) at %s", b.Instance, b.Hostname, b.hostPort())
}

// BaseURL returns the HTTP base URL for the backend
func (b *Backend) BaseURL() string {
	return "http://" + b.hostPort()
}

// PreviewURL returns the websocket URL of the live preview hub
func (b *Backend) PreviewURL() string {
	return "ws://" + b.hostPort() + "/ws"
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Backend) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}

func (b *Backend) hostPort() string {
	return net.JoinHostPort(b.IP, strconv.Itoa(b.Port))
}
