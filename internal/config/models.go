package config

import (
	"sort"
	"time"
)

// Default polling settings.
const (
	DefaultListInterval        = 3 * time.Second
	DefaultMeasurementInterval = 500 * time.Millisecond
	DefaultRequestTimeout      = 5 * time.Second
	DefaultControllerURL       = "http://127.0.0.1:8888"
)

// Registry represents the entire user configuration file.
// It remembers controllers, tenants and the last selections per tenant.
type Registry struct {
	Version     int                    `yaml:"version"`
	Controllers map[string]*Controller `yaml:"controllers,omitempty"` // Keyed by a user-chosen name
	Tenants     map[string]*TenantMeta `yaml:"tenants,omitempty"`     // Keyed by tenant UUID
	Preferences *Preferences           `yaml:"preferences,omitempty"`
}

// Controller is a known EmPOWER controller.
type Controller struct {
	URL           string    `yaml:"url"`
	Username      string    `yaml:"username,omitempty"`
	DefaultTenant string    `yaml:"default_tenant,omitempty"`
	LastSeen      time.Time `yaml:"last_seen,omitempty"`
	// Password is NEVER stored in config file for security reasons
}

// TenantMeta is what rrcmon remembers about a tenant.
type TenantMeta struct {
	Label    string `yaml:"label,omitempty"`
	LastVBSP string `yaml:"last_vbsp,omitempty"`
	LastUE   string `yaml:"last_ue,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultController   string        `yaml:"default_controller,omitempty"`
	ListInterval        time.Duration `yaml:"list_interval,omitempty"`
	MeasurementInterval time.Duration `yaml:"measurement_interval,omitempty"`
	RequestTimeout      time.Duration `yaml:"request_timeout,omitempty"`
	Retries             int           `yaml:"retries,omitempty"`
	DiscoverTimeout     int           `yaml:"discover_timeout,omitempty"` // mDNS scan timeout in seconds
}

func defaultPreferences() *Preferences {
	return &Preferences{
		ListInterval:        DefaultListInterval,
		MeasurementInterval: DefaultMeasurementInterval,
		RequestTimeout:      DefaultRequestTimeout,
		DiscoverTimeout:     5,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Controllers: make(map[string]*Controller),
		Tenants:     make(map[string]*TenantMeta),
		Preferences: defaultPreferences(),
	}
}

// GetController returns a controller by name, or nil.
func (r *Registry) GetController(name string) *Controller {
	return r.Controllers[name]
}

// SetController adds or replaces a controller. The first controller added
// becomes the default.
func (r *Registry) SetController(name, url, username, defaultTenant string) *Controller {
	if r.Controllers == nil {
		r.Controllers = make(map[string]*Controller)
	}
	c := &Controller{URL: url, Username: username, DefaultTenant: defaultTenant}
	if prev, ok := r.Controllers[name]; ok {
		c.LastSeen = prev.LastSeen
	}
	r.Controllers[name] = c

	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	if r.Preferences.DefaultController == "" {
		r.Preferences.DefaultController = name
	}
	return c
}

// DefaultController returns the preferred controller and its name.
func (r *Registry) DefaultController() (string, *Controller) {
	if r.Preferences != nil && r.Preferences.DefaultController != "" {
		if c, ok := r.Controllers[r.Preferences.DefaultController]; ok {
			return r.Preferences.DefaultController, c
		}
	}
	if len(r.Controllers) == 1 {
		for name, c := range r.Controllers {
			return name, c
		}
	}
	return "", nil
}

// ControllerNames returns the controller names in sorted order.
func (r *Registry) ControllerNames() []string {
	names := make([]string, 0, len(r.Controllers))
	for name := range r.Controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TouchController records that a controller answered.
func (r *Registry) TouchController(name string, at time.Time) {
	if c, ok := r.Controllers[name]; ok {
		c.LastSeen = at
	}
}

// EnsureTenant returns the tenant entry, creating it if needed.
func (r *Registry) EnsureTenant(id string) *TenantMeta {
	if r.Tenants == nil {
		r.Tenants = make(map[string]*TenantMeta)
	}
	if t, ok := r.Tenants[id]; ok {
		return t
	}
	t := &TenantMeta{}
	r.Tenants[id] = t
	return t
}

// RememberSelection stores the last VBSP and UE chosen for a tenant.
func (r *Registry) RememberSelection(tenantID, vbsp, ue string) {
	t := r.EnsureTenant(tenantID)
	t.LastVBSP = vbsp
	t.LastUE = ue
}

// LastSelection returns the remembered VBSP and UE for a tenant.
func (r *Registry) LastSelection(tenantID string) (vbsp, ue string) {
	if t, ok := r.Tenants[tenantID]; ok {
		return t.LastVBSP, t.LastUE
	}
	return "", ""
}

// fillDefaults initialises nil maps and zero preferences after a load.
func (r *Registry) fillDefaults() {
	if r.Controllers == nil {
		r.Controllers = make(map[string]*Controller)
	}
	if r.Tenants == nil {
		r.Tenants = make(map[string]*TenantMeta)
	}
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
		return
	}
	d := defaultPreferences()
	if r.Preferences.ListInterval <= 0 {
		r.Preferences.ListInterval = d.ListInterval
	}
	if r.Preferences.MeasurementInterval <= 0 {
		r.Preferences.MeasurementInterval = d.MeasurementInterval
	}
	if r.Preferences.RequestTimeout <= 0 {
		r.Preferences.RequestTimeout = d.RequestTimeout
	}
	if r.Preferences.DiscoverTimeout <= 0 {
		r.Preferences.DiscoverTimeout = d.DiscoverTimeout
	}
}
