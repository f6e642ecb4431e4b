package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/rrcmon/internal/logging"
)

// Advertisement is a registered mDNS service. Shutdown withdraws it.
type Advertisement struct {
	server *zeroconf.Server
}

// AdvertiseTXT builds the TXT records a controller advertises.
func AdvertiseTXT(tenantID, path, version string) []string {
	txt := []string{"path=" + path}
	if tenantID != "" {
		txt = append(txt, "tenant="+tenantID)
	}
	if version != "" {
		txt = append(txt, "version="+version)
	}
	return txt
}

// Advertise announces a controller on port under the given instance name.
func Advertise(instance string, port int, txt []string) (*Advertisement, error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising controller",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
		zap.Strings("txt", txt))
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the advertisement. It is safe to call more than once.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
}
