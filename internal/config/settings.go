package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Environment variables read by Resolve.
const (
	EnvController          = "RRCMON_CONTROLLER"
	EnvTenant              = "RRCMON_TENANT"
	EnvUsername            = "RRCMON_USERNAME"
	EnvPassword            = "RRCMON_PASSWORD"
	EnvListInterval        = "RRCMON_LIST_INTERVAL"
	EnvMeasurementInterval = "RRCMON_MEASUREMENT_INTERVAL"
	EnvTimeout             = "RRCMON_TIMEOUT"
	EnvRecordDSN           = "RRCMON_RECORD_DSN"
	EnvRetries             = "RRCMON_RETRIES"
)

// MaxRetries bounds the retry setting; polling loops retry on their next
// cycle anyway.
const MaxRetries = 10

var (
	ErrMissingTenant     = errors.New("tenant id is required (use --tenant, RRCMON_TENANT or a controller default_tenant)")
	ErrInvalidTenant     = errors.New("tenant id must be a UUID")
	ErrMissingController = errors.New("controller url is required")
)

// LoadEnv reads a .env file from the working directory if there is one.
// Variables already set in the environment win.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Overrides are values given on the command line. Zero values are unset.
type Overrides struct {
	// Controller is either a URL or the name of a registry controller.
	Controller          string
	TenantID            string
	Username            string
	ListInterval        time.Duration
	MeasurementInterval time.Duration
	RequestTimeout      time.Duration
	RecordDSN           string
	// Retries is nil when not given on the command line.
	Retries *int
}

// Settings is the validated runtime configuration.
type Settings struct {
	ControllerName      string
	ControllerURL       string
	TenantID            string
	Username            string
	Password            string
	ListInterval        time.Duration
	MeasurementInterval time.Duration
	RequestTimeout      time.Duration
	RecordDSN           string
	// Retries is the number of extra attempts the client makes on
	// transient errors within one request.
	Retries int

	// Remembered selections for the tenant, if any.
	LastVBSP string
	LastUE   string
}

// Resolve merges flags, environment, registry and defaults, in that order
// of precedence, and validates the result. A tenant is required.
func Resolve(reg *Registry, o Overrides) (Settings, error) {
	return resolve(reg, o, true)
}

// ResolveConnection is Resolve for commands that only need to reach the
// controller. The tenant is validated only when one is given.
func ResolveConnection(reg *Registry, o Overrides) (Settings, error) {
	return resolve(reg, o, false)
}

func resolve(reg *Registry, o Overrides, needTenant bool) (Settings, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	reg.fillDefaults()
	prefs := reg.Preferences

	s := Settings{
		ListInterval:        prefs.ListInterval,
		MeasurementInterval: prefs.MeasurementInterval,
		RequestTimeout:      prefs.RequestTimeout,
		Retries:             prefs.Retries,
	}

	// Controller: a flag or env value may name a registry entry or be a URL.
	ref := first(o.Controller, os.Getenv(EnvController))
	var ctrl *Controller
	if ref != "" {
		if c := reg.GetController(ref); c != nil {
			s.ControllerName, ctrl = ref, c
			s.ControllerURL = c.URL
		} else {
			s.ControllerURL = ref
		}
	} else {
		s.ControllerName, ctrl = reg.DefaultController()
		if ctrl != nil {
			s.ControllerURL = ctrl.URL
		} else {
			s.ControllerURL = DefaultControllerURL
		}
	}

	var regUser, regTenant string
	if ctrl != nil {
		regUser, regTenant = ctrl.Username, ctrl.DefaultTenant
	}
	s.Username = first(o.Username, os.Getenv(EnvUsername), regUser)
	s.Password = os.Getenv(EnvPassword)
	s.TenantID = first(o.TenantID, os.Getenv(EnvTenant), regTenant)
	s.RecordDSN = first(o.RecordDSN, os.Getenv(EnvRecordDSN))

	var err error
	if s.ListInterval, err = duration(o.ListInterval, EnvListInterval, s.ListInterval); err != nil {
		return Settings{}, err
	}
	if s.MeasurementInterval, err = duration(o.MeasurementInterval, EnvMeasurementInterval, s.MeasurementInterval); err != nil {
		return Settings{}, err
	}
	if s.RequestTimeout, err = duration(o.RequestTimeout, EnvTimeout, s.RequestTimeout); err != nil {
		return Settings{}, err
	}

	if s.Retries, err = retries(o.Retries, s.Retries); err != nil {
		return Settings{}, err
	}

	if err := s.validate(needTenant); err != nil {
		return Settings{}, err
	}

	if s.TenantID != "" {
		s.LastVBSP, s.LastUE = reg.LastSelection(s.TenantID)
	}
	return s, nil
}

func (s *Settings) validate(needTenant bool) error {
	if s.ControllerURL == "" {
		return ErrMissingController
	}
	u, err := url.Parse(s.ControllerURL)
	if err != nil {
		return fmt.Errorf("invalid controller url %q: %w", s.ControllerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid controller url %q: scheme must be http or https", s.ControllerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid controller url %q: missing host", s.ControllerURL)
	}
	s.ControllerURL = strings.TrimRight(s.ControllerURL, "/")

	if s.TenantID == "" {
		if needTenant {
			return ErrMissingTenant
		}
	} else {
		id, err := uuid.Parse(s.TenantID)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTenant, s.TenantID)
		}
		s.TenantID = id.String()
	}

	if s.ListInterval <= 0 || s.MeasurementInterval <= 0 {
		return fmt.Errorf("polling intervals must be positive (list %s, measurement %s)", s.ListInterval, s.MeasurementInterval)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", s.RequestTimeout)
	}
	if s.Retries < 0 || s.Retries > MaxRetries {
		return fmt.Errorf("retries must be between 0 and %d, got %d", MaxRetries, s.Retries)
	}
	return nil
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func duration(flag time.Duration, env string, fallback time.Duration) (time.Duration, error) {
	if flag != 0 {
		return flag, nil
	}
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", env, raw, err)
	}
	return d, nil
}

func retries(flag *int, fallback int) (int, error) {
	if flag != nil {
		return *flag, nil
	}
	raw := strings.TrimSpace(os.Getenv(EnvRetries))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", EnvRetries, raw, err)
	}
	return n, nil
}
