package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Controller is an EmPOWER controller found on the local network
type Controller struct {
	// Instance is the advertised service instance name (e.g., "empower-lab")
	Instance string

	// Hostname is the mDNS hostname (e.g., "ctl.local.")
	Hostname string

	// IP is the advertised address, IPv4 preferred
	IP string

	// Port is the REST API port (typically 8888)
	Port int

	// Metadata contains the TXT record data
	// Known fields: "tenant=<uuid>", "path=/api/v1", "version=..."
	Metadata map[string]string

	// DiscoveredAt is when the controller answered
	DiscoveredAt time.Time
}

// String returns a human-readable description of the controller
func (c *Controller) String() string {
	return fmt.Sprintf("EmPOWER controller %s (%s) at %s", c.Instance, c.Hostname, c.hostPort())
}

// BaseURL returns the HTTP base URL for the REST API
func (c *Controller) BaseURL() string {
	return "http://" + c.hostPort()
}

// Tenant returns the tenant the controller advertises, if any
func (c *Controller) Tenant() string {
	return c.GetMetadata("tenant")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (c *Controller) GetMetadata(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}

func (c *Controller) hostPort() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}
