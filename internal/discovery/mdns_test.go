package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, v4 []net.IP, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = txt
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
		wantURL  string
	}{
		{
			name:     "IPv4 controller",
			entry:    entry("empower-lab", "ctl.local.", 8888, []net.IP{net.ParseIP("192.168.4.16")}, nil, "tenant=52313ecb-9d00-4b7d-b873-b55d3d9ada26"),
			wantIP:   "192.168.4.16",
			wantPort: 8888,
			wantURL:  "http://192.168.4.16:8888",
		},
		{
			name:     "no port defaults to 8888",
			entry:    entry("empower-lab", "ctl.local.", 0, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantIP:   "10.0.0.5",
			wantPort: DefaultPort,
			wantURL:  "http://10.0.0.5:8888",
		},
		{
			name:     "IPv6 only",
			entry:    entry("v6", "ctl6.local.", 9000, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantIP:   "fe80::1",
			wantPort: 9000,
			wantURL:  "http://[fe80::1]:9000",
		},
		{
			name: "IPv4 preferred over IPv6",
			entry: entry("dual", "dual.local.", 8888,
				[]net.IP{net.ParseIP("172.16.0.1")}, []net.IP{net.ParseIP("fe80::2")}),
			wantIP:   "172.16.0.1",
			wantPort: 8888,
			wantURL:  "http://172.16.0.1:8888",
		},
		{
			name:    "no address",
			entry:   entry("ghost", "ghost.local.", 8888, nil, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if c != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", c)
				}
				return
			}
			if c == nil {
				t.Fatal("parseServiceEntry() = nil, want controller")
			}
			if c.IP != tt.wantIP {
				t.Errorf("IP = %q, want %q", c.IP, tt.wantIP)
			}
			if c.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", c.Port, tt.wantPort)
			}
			if c.BaseURL() != tt.wantURL {
				t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), tt.wantURL)
			}
			if c.Instance != tt.entry.Instance {
				t.Errorf("Instance = %q, want %q", c.Instance, tt.entry.Instance)
			}
			if time.Since(c.DiscoveredAt) > time.Minute {
				t.Errorf("DiscoveredAt is not recent: %v", c.DiscoveredAt)
			}
		})
	}
}

func TestParseTXT(t *testing.T) {
	md := parseTXT([]string{"path=/api/v1", "tenant=abc", "flag", "url=http://x/?a=b"})

	want := map[string]string{
		"path":   "/api/v1",
		"tenant": "abc",
		"flag":   "",
		"url":    "http://x/?a=b",
	}
	if len(md) != len(want) {
		t.Errorf("parseTXT() has %d entries, want %d", len(md), len(want))
	}
	for k, v := range want {
		if md[k] != v {
			t.Errorf("parseTXT()[%q] = %q, want %q", k, md[k], v)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestAdvertiseTXT(t *testing.T) {
	txt := AdvertiseTXT("52313ecb-9d00-4b7d-b873-b55d3d9ada26", "/api/v1", "")
	md := parseTXT(txt)

	if md["tenant"] != "52313ecb-9d00-4b7d-b873-b55d3d9ada26" {
		t.Errorf("tenant = %q", md["tenant"])
	}
	if md["path"] != "/api/v1" {
		t.Errorf("path = %q", md["path"])
	}
	if _, ok := md["version"]; ok {
		t.Error("empty version should not be advertised")
	}
}

func TestController(t *testing.T) {
	c := &Controller{
		Instance: "empower-lab",
		Hostname: "ctl.local.",
		IP:       "10.1.2.3",
		Port:     8888,
		Metadata: map[string]string{"tenant": "t-1"},
	}

	if got := c.String(); got != "EmPOWER controller empower-lab (ctl.local.) at 10.1.2.3:8888" {
		t.Errorf("String() = %q", got)
	}
	if c.Tenant() != "t-1" {
		t.Errorf("Tenant() = %q, want t-1", c.Tenant())
	}
	if c.GetMetadata("missing") != "" {
		t.Error("GetMetadata() of a missing key should be empty")
	}

	var bare Controller
	if bare.GetMetadata("tenant") != "" {
		t.Error("GetMetadata() on nil map should be empty")
	}
}

func TestAdvertisement_ShutdownNil(t *testing.T) {
	var a *Advertisement
	a.Shutdown()
	(&Advertisement{}).Shutdown()
}

// Live mDNS browsing and registration need multicast on the test host and
// are exercised by `rrcmon-sim serve --advertise` plus `rrcmon scan`.
