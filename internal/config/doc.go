// Package config provides user configuration management for rrcmon.
//
// Two layers feed the runtime Settings:
//
//   - A YAML registry of known controllers, tenants and preferences. It also
//     remembers the last VBSP and UE watched per tenant so the dashboard can
//     re-select them on start.
//   - The environment (optionally seeded from a .env file) and command-line
//     flags.
//
// Resolve merges them with flags first, then environment, then registry, then
// built-in defaults, and validates the result.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/rrcmon/config.yaml or $HOME/.config/rrcmon/config.yaml
//   - macOS: $HOME/.config/rrcmon/config.yaml
//   - Windows: %LOCALAPPDATA%\rrcmon\config.yaml
//
// # Security
//
// Controller passwords are never stored. Set RRCMON_PASSWORD instead.
//
// # Usage Example
//
//	_ = config.LoadEnv()
//	reg, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	settings, err := config.Resolve(reg, config.Overrides{TenantID: flagTenant})
//	if errors.Is(err, config.ErrMissingTenant) {
//	    // point the user at `rrcmon tenants`
//	}
//
// # File Format
//
//	version: 1
//	controllers:
//	  lab:
//	    url: http://10.0.0.5:8888
//	    username: root
//	    default_tenant: 52313ecb-9d00-4b7d-b873-b55d3d9ada26
//	tenants:
//	  52313ecb-9d00-4b7d-b873-b55d3d9ada26:
//	    last_vbsp: 00:00:00:00:01:9B
//	    last_ue: "4660"
//	preferences:
//	  default_controller: lab
//	  list_interval: 3s
//	  measurement_interval: 500ms
//	  request_timeout: 5s
package config
