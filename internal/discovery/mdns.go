package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/rrcmon/internal/logging"
)

const (
	// ServiceType is the mDNS service type EmPOWER controllers advertise
	ServiceType = "_empower._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for controller discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default REST port of an EmPOWER controller
	DefaultPort = 8888
)

// Scanner handles mDNS controller discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan lists every controller that answers within the timeout, sorted by
// instance name.
func (s *Scanner) Scan(ctx context.Context) ([]*Controller, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		found = make(map[string]*Controller)
	)
	err := s.browse(ctx, func(c *Controller) bool {
		mu.Lock()
		found[c.Instance+"|"+c.hostPort()] = c
		mu.Unlock()
		return true
	})
	if err != nil {
		return nil, err
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	out := make([]*Controller, 0, len(found))
	for _, c := range found {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Instance != out[j].Instance {
			return out[i].Instance < out[j].Instance
		}
		return out[i].hostPort() < out[j].hostPort()
	})
	return out, nil
}

// WaitForTenant returns the first controller that advertises tenantID.
func (s *Scanner) WaitForTenant(ctx context.Context, tenantID string) (*Controller, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	hit := make(chan *Controller, 1)
	err := s.browse(ctx, func(c *Controller) bool {
		if !strings.EqualFold(c.Tenant(), tenantID) {
			return true
		}
		select {
		case hit <- c:
		default:
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	select {
	case c := <-hit:
		return c, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no controller advertising tenant %s found within %s", tenantID, s.Timeout)
	}
}

// browse feeds parsed controllers to visit until it returns false or ctx ends.
func (s *Scanner) browse(ctx context.Context, visit func(*Controller) bool) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				c := parseServiceEntry(entry)
				if c == nil {
					continue
				}
				logging.Debug("Controller answered",
					zap.String("instance", c.Instance),
					zap.String("addr", c.hostPort()))
				if !visit(c) {
					return
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// parseServiceEntry converts a zeroconf service entry to a Controller.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Controller {
	if entry == nil {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Controller{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" TXT records. A bare key maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		k, v, _ := strings.Cut(txt, "=")
		metadata[k] = v
	}
	return metadata
}

// Scan is a convenience function to scan with a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Controller, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}
