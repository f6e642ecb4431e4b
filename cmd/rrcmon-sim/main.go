// Rrcmon-sim serves a simulated EmPOWER controller.
//
// It implements the controller REST endpoints rrcmon polls, backed by a
// seeded random network of VBSPs and UEs whose RRC measurements drift
// every step. UEs attach and detach over time so selection loss can be
// exercised without real radio hardware.
//
// Usage:
//
//	rrcmon-sim serve [flags]
//
// See 'rrcmon-sim serve --help' for available options.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/rrcmon/internal/discovery"
	"github.com/muurk/rrcmon/internal/logging"
	"github.com/muurk/rrcmon/internal/server"
	"github.com/muurk/rrcmon/internal/simulator"
	"github.com/muurk/rrcmon/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rrcmon-sim",
	Short: "Simulated EmPOWER controller",
	Long: `A standalone simulated EmPOWER controller for developing and testing rrcmon.

It serves the tenant, VBSP, UE and RRC measurement endpoints of the
controller REST API from a deterministic random network.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	host       string
	port       int
	tenant     string
	vbsps      int
	uesPerVBSP int
	seed       int64
	step       time.Duration
	advertise  string
	username   string
	password   string
	logLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulated controller",
	Long: `Start the simulated controller's REST API.

The same --seed always produces the same network and the same sequence of
measurements. With --advertise the simulator announces itself over mDNS so
'rrcmon scan' and 'rrcmon --discover' can find it.`,
	Example: `  # Default network on the controller's usual port
  rrcmon-sim serve

  # Fixed tenant, bigger network, faster steps
  rrcmon-sim serve --tenant 52313ecb-9d00-4b7d-b873-b55d3d9ada26 --vbsps 4 --ues 6 --step 250ms

  # Advertise over mDNS and require basic auth
  rrcmon-sim serve --advertise lab-sim --username root --password root`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 8888, "Listen port")
	serveCmd.Flags().StringVar(&tenant, "tenant", "", "Tenant ID (generated from the seed if empty)")
	serveCmd.Flags().IntVar(&vbsps, "vbsps", simulator.DefaultVBSPs, "Number of VBSPs")
	serveCmd.Flags().IntVar(&uesPerVBSP, "ues", simulator.DefaultUEsPerVBSP, "Initial UEs per VBSP")
	serveCmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	serveCmd.Flags().DurationVar(&step, "step", simulator.DefaultStep, "Interval between network steps")
	serveCmd.Flags().StringVar(&advertise, "advertise", "", "Advertise over mDNS under this instance name")
	serveCmd.Flags().StringVar(&username, "username", "", "Require HTTP basic auth with this username")
	serveCmd.Flags().StringVar(&password, "password", "", "Password for --username")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if password != "" && username == "" {
		return fmt.Errorf("--password needs --username")
	}

	network, err := simulator.NewNetwork(simulator.Config{
		TenantID:   tenant,
		VBSPs:      vbsps,
		UEsPerVBSP: uesPerVBSP,
		Seed:       seed,
		Step:       step,
	})
	if err != nil {
		return fmt.Errorf("failed to create network: %w", err)
	}

	srvCfg := server.Config{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
	}
	srv := server.New(srvCfg)
	network.Mount(srv.Routes())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if advertise != "" {
		ad, err := discovery.Advertise(advertise, port,
			discovery.AdvertiseTXT(network.TenantID(), "/api/v1", version.Version))
		if err != nil {
			return err
		}
		defer ad.Shutdown()
	}

	logging.Info("Simulated controller starting",
		zap.String("addr", srvCfg.Addr()),
		zap.String("tenant", network.TenantID()),
		zap.Int("vbsps", vbsps),
		zap.Int64("seed", seed),
		zap.Duration("step", step))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return network.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info("Simulated controller stopped", zap.Int("steps", network.Steps()))
	return nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rrcmon-sim %s\n", version.Full())
	},
}
