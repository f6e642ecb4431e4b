package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/rrcmon/internal/config"
	"github.com/muurk/rrcmon/internal/ui"
)

// Config command flags
var (
	configPath       string
	ctlUsername      string
	ctlTenant        string
	ctlMakeDefault   bool
	forceConfigWrite bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/rrcmon/config.yaml)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetControllerCmd)
	rootCmd.AddCommand(configCmd)

	configInitCmd.Flags().BoolVar(&forceConfigWrite, "force", false, "Overwrite an existing file without asking")

	configSetControllerCmd.Flags().StringVar(&ctlUsername, "user", "", "Username for the controller")
	configSetControllerCmd.Flags().StringVar(&ctlTenant, "default-tenant", "", "Tenant watched when --tenant is not given")
	configSetControllerCmd.Flags().BoolVar(&ctlMakeDefault, "default", false, "Make this the default controller")
}

func registryPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadRegistryFrom(configPath)
	}
	return config.LoadRegistry()
}

func saveRegistry(reg *config.Registry) error {
	if configPath != "" {
		return reg.SaveTo(configPath)
	}
	return reg.Save()
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage saved controllers and preferences",
	Long: `Manage the rrcmon configuration file.

The file remembers known controllers, a default tenant per controller and
the last VBSP/UE watched per tenant. Passwords are never stored; use
RRCMON_PASSWORD.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE:  runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := registryPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !forceConfigWrite {
		if !ui.ConfirmOverwrite(os.Stdin, os.Stdout, path) {
			return nil
		}
	}

	if _, err := config.CreateDefaultConfig(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	ui.NewPrinter(os.Stdout).PrintSuccess("Configuration written", map[string]string{
		"Path":       path,
		"Controller": config.DefaultControllerURL,
	})
	return nil
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	RunE:  runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	path, err := registryPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Printf("# %s\n", path)
	fmt.Print(string(data))
	return nil
}

var configSetControllerCmd = &cobra.Command{
	Use:   "set-controller <name> <url>",
	Short: "Add or update a saved controller",
	Example: `  # Save the lab controller and its tenant, and make it the default
  rrcmon config set-controller lab http://10.0.0.5:8888 --user root \
      --default-tenant 52313ecb-9d00-4b7d-b873-b55d3d9ada26 --default`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSetController,
}

func runConfigSetController(cmd *cobra.Command, args []string) error {
	name, url := args[0], args[1]

	if ctlTenant != "" {
		id, err := uuid.Parse(ctlTenant)
		if err != nil {
			return fmt.Errorf("%w: %q", config.ErrInvalidTenant, ctlTenant)
		}
		ctlTenant = id.String()
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	// Validate the URL the same way the monitor will.
	if _, err := config.ResolveConnection(nil, config.Overrides{Controller: url}); err != nil {
		return err
	}

	reg.SetController(name, url, ctlUsername, ctlTenant)
	if ctlMakeDefault {
		reg.Preferences.DefaultController = name
	}
	if err := saveRegistry(reg); err != nil {
		return err
	}

	ui.NewPrinter(os.Stdout).PrintSuccess("Controller saved", map[string]string{
		"Name":    name,
		"URL":     url,
		"Default": fmt.Sprint(reg.Preferences.DefaultController == name),
	})
	return nil
}
