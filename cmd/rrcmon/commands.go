package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/rrcmon/internal/config"
	"github.com/muurk/rrcmon/internal/discovery"
	"github.com/muurk/rrcmon/internal/empower"
	"github.com/muurk/rrcmon/internal/feed"
	"github.com/muurk/rrcmon/internal/gauge"
	"github.com/muurk/rrcmon/internal/logging"
	"github.com/muurk/rrcmon/internal/monitor"
	"github.com/muurk/rrcmon/internal/recorder"
	"github.com/muurk/rrcmon/internal/selector"
	"github.com/muurk/rrcmon/internal/server"
	"github.com/muurk/rrcmon/internal/tui"
	"github.com/muurk/rrcmon/internal/ui"
)

// Connection flags shared by every command
var (
	controllerRef   string
	tenantID        string
	username        string
	requestTimeout  time.Duration
	logLevel        string
	discoverTenant  bool
	preferVBSP      string
	preferUE        string
	logFile         string
	listenAddr      string
	recordDSN       string
	autoSelect      bool
	outputFormat    string
	scanTimeoutSecs int
	retryCount      int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&controllerRef, "controller", "", "Controller URL or saved controller name")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "Tenant ID (UUID)")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Controller username (password from RRCMON_PASSWORD)")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 0, "Per-request timeout (default 5s)")
	rootCmd.PersistentFlags().IntVar(&retryCount, "retries", -1, "Extra attempts per request on transient errors (default from config, 0)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&preferVBSP, "vbsp", "", "VBSP address to select")
	rootCmd.PersistentFlags().StringVar(&preferUE, "ue", "", "UE RNTI to select")

	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the dashboard runs")
	rootCmd.Flags().BoolVar(&discoverTenant, "discover", false, "Find the controller advertising --tenant via mDNS")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(tenantsCmd)
	rootCmd.AddCommand(scanCmd)
}

// loadSettings resolves flags, environment and the saved registry.
func loadSettings(needTenant bool) (*config.Registry, config.Settings, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, config.Settings{}, err
	}
	reg, err := loadRegistry()
	if err != nil {
		return nil, config.Settings{}, err
	}

	o := config.Overrides{
		Controller:     controllerRef,
		TenantID:       tenantID,
		Username:       username,
		RequestTimeout: requestTimeout,
		RecordDSN:      recordDSN,
	}
	if retryCount >= 0 {
		o.Retries = &retryCount
	}
	resolve := config.Resolve
	if !needTenant {
		resolve = config.ResolveConnection
	}
	s, err := resolve(reg, o)
	if err != nil {
		return nil, config.Settings{}, err
	}
	return reg, s, nil
}

func newClient(s config.Settings) *empower.Client {
	client := empower.NewClient(s.ControllerURL)
	client.SetTimeout(s.RequestTimeout)
	client.SetRetry(s.Retries, empower.DefaultRetryDelay)
	if s.Username != "" {
		client.SetAuth(s.Username, s.Password)
	}
	return client
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// dashboardCmd launches the interactive dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive dashboard",
	Long: `Launch the interactive RRC measurement dashboard.

Choose a VBSP, then a UE, then optionally a neighbour cell. The gauges
show RSRP and RSRQ of the serving cell and of the chosen neighbour, and
refresh while the controller reports new measurements.

The last VBSP and UE are remembered per tenant and selected again on the
next start.`,
	Example: `  # Dashboard for the default controller and tenant
  rrcmon

  # Explicit controller and tenant
  rrcmon dashboard --controller http://10.0.0.5:8888 --tenant 52313ecb-9d00-4b7d-b873-b55d3d9ada26

  # Find the controller through mDNS and keep a debug log
  rrcmon --discover --tenant 52313ecb-9d00-4b7d-b873-b55d3d9ada26 --log-file rrcmon.log --log-level debug`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the dashboard runs")
	dashboardCmd.Flags().BoolVar(&discoverTenant, "discover", false, "Find the controller advertising --tenant via mDNS")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeToFile(logLevel, logFile); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	ctx, stop := signalContext()
	defer stop()

	if discoverTenant {
		if err := discoverController(ctx); err != nil {
			return err
		}
	}

	reg, s, err := loadSettings(true)
	if err != nil {
		return err
	}

	sel, err := tui.Run(ctx, newClient(s), tui.Config{
		Controller: s.ControllerURL,
		PreferVBSP: firstNonEmpty(preferVBSP, s.LastVBSP),
		PreferUE:   firstNonEmpty(preferUE, s.LastUE),
		Monitor:    monitor.OptionsFromSettings(s),
	})
	if err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}

	if sel.VBSP != "" {
		reg.RememberSelection(s.TenantID, sel.VBSP, sel.UE)
		if s.ControllerName != "" {
			reg.TouchController(s.ControllerName, time.Now())
		}
		if err := saveRegistry(reg); err != nil {
			logging.Warn("Failed to remember selection", zap.Error(err))
		}
	}
	return nil
}

// discoverController points --controller at the controller advertising
// --tenant on the local network.
func discoverController(ctx context.Context) error {
	if tenantID == "" {
		return fmt.Errorf("--discover needs --tenant")
	}
	fmt.Printf("Looking for a controller advertising tenant %s...\n", tenantID)

	scanner := discovery.NewScanner()
	if scanTimeoutSecs > 0 {
		scanner.Timeout = time.Duration(scanTimeoutSecs) * time.Second
	}
	c, err := scanner.WaitForTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	controllerRef = c.BaseURL()
	logging.Info("Discovered controller", zap.String("controller", c.String()))
	return nil
}

// watchCmd runs the monitor without a terminal UI
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor headless, with an optional websocket feed and recorder",
	Long: `Poll the controller without the interactive dashboard.

Every accepted update produces a snapshot of the selections, gauges and
status. Snapshots are logged, pushed to websocket clients when --listen is
set, and stored in PostgreSQL when --record-dsn is set.

The VBSP and UE come from --vbsp/--ue, the remembered selection, or with
--auto the first ones the controller lists.`,
	Example: `  # Log snapshots for a remembered selection
  rrcmon watch

  # Serve the websocket feed on :9000 and pick the first VBSP/UE
  rrcmon watch --listen :9000 --auto

  # Record samples to PostgreSQL
  rrcmon watch --vbsp 00:00:00:00:00:01 --ue 4660 --record-dsn postgres://rrcmon@localhost/rrcmon`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&listenAddr, "listen", "", "Serve the websocket feed on this address (host:port)")
	watchCmd.Flags().StringVar(&recordDSN, "record-dsn", "", "PostgreSQL DSN to record samples to (or RRCMON_RECORD_DSN)")
	watchCmd.Flags().BoolVar(&autoSelect, "auto", false, "Select the first VBSP and UE when nothing is selected")
}

func runWatch(cmd *cobra.Command, args []string) error {
	level := firstNonEmpty(logLevel, os.Getenv(logging.LogLevelEnvVar), "info")
	if err := logging.Initialize(level); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	_, s, err := loadSettings(true)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	m := monitor.New(newClient(s), monitor.OptionsFromSettings(s), monitor.LogSink{})
	m.Prefer(firstNonEmpty(preferVBSP, s.LastVBSP), firstNonEmpty(preferUE, s.LastUE))
	m.AutoSelect(autoSelect)

	if s.RecordDSN != "" {
		rec, err := recorder.Open(ctx, s.RecordDSN)
		if err != nil {
			return fmt.Errorf("failed to open recorder: %w", err)
		}
		defer rec.Close()
		m.AddSink(rec)
	}

	g, gctx := errgroup.WithContext(ctx)

	if listenAddr != "" {
		srvCfg, err := parseListen(listenAddr)
		if err != nil {
			return err
		}
		srv := server.New(srvCfg)
		hub := feed.NewHub()
		hub.Mount(srv.Routes())
		m.AddSink(hub)

		g.Go(func() error { return srv.Run(gctx) })
		g.Go(func() error {
			<-gctx.Done()
			hub.Close()
			return nil
		})
		logging.Info("Serving snapshot feed", zap.String("addr", srvCfg.Addr()))
	}

	g.Go(func() error { return m.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

func parseListen(addr string) (server.Config, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return server.Config{}, fmt.Errorf("invalid --listen %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return server.Config{}, fmt.Errorf("invalid --listen %q: bad port", addr)
	}
	return server.Config{Host: host, Port: port}, nil
}

// showCmd prints one measurement and exits
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current RRC measurements of one UE",
	Long: `Fetch the latest RRC measurements of a UE once and print them.

The VBSP and UE default to the remembered selection for the tenant, then
to the first ones the controller lists.`,
	Example: `  # Remembered or first VBSP/UE
  rrcmon show

  # A specific UE, as JSON for scripting
  rrcmon show --vbsp 00:00:00:00:00:01 --ue 4660 --format json`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

// showResult is the JSON output of show.
type showResult struct {
	Tenant      string                   `json:"tenant_id"`
	VBSP        string                   `json:"vbsp"`
	UE          string                   `json:"ue"`
	Details     *empower.UE              `json:"ue_details"`
	Measurement *empower.RRCMeasurements `json:"measurement"`
	Readings    []gauge.Reading          `json:"readings"`
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if outputFormat != "detailed" && outputFormat != "json" {
		return fmt.Errorf("unknown format %q (want detailed or json)", outputFormat)
	}

	_, s, err := loadSettings(true)
	if err != nil {
		return err
	}
	client := newClient(s)
	printer := ui.NewPrinter(os.Stdout)

	ctx, stop := signalContext()
	defer stop()

	res, err := fetchShow(ctx, client, s)
	if err != nil {
		if outputFormat == "detailed" {
			printer.PrintError("Failed to fetch measurements", err, empower.TroubleshootingHint(err))
		}
		return fmt.Errorf("show failed: %s", empower.ShortMessage(err))
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printer.PrintHeader("RRC measurements", "rrcmon show", map[string]string{
		"Controller": s.ControllerURL,
		"Tenant":     s.TenantID,
		"VBSP":       res.VBSP,
		"UE":         res.UE,
		"UE ID":      firstNonEmpty(res.Details.UEID, ui.EmptyValue),
	})

	panel := gauge.NewPanel()
	panel.ApplyPrimary(res.Measurement.PrimaryRSRP, res.Measurement.PrimaryRSRQ)
	printer.Println(ui.RenderPanel(panel, "", printer.Width()))
	printer.Newline()

	printer.PrintTable([]string{"Capability", "Value"}, capabilityRows(res.Details.Capabilities), "No capabilities reported")
	printer.Newline()

	rows := make([][]string, 0, len(res.Measurement.Neighbours))
	for _, e := range res.Measurement.CellEntities() {
		n := res.Measurement.Neighbours[e.Key]
		rows = append(rows, []string{
			e.Key,
			firstNonEmpty(n.RATType, ui.EmptyValue),
			strconv.Itoa(n.MeasID),
			fmt.Sprintf("%.1f dBm", n.RSRP),
			fmt.Sprintf("%.1f dB", n.RSRQ),
		})
	}
	printer.PrintTable([]string{"PCI", "RAT", "Meas ID", "RSRP", "RSRQ"}, rows, "No neighbour cells reported")
	return nil
}

func fetchShow(ctx context.Context, client *empower.Client, s config.Settings) (*showResult, error) {
	vbsps, err := client.ListVBSPs(ctx, s.TenantID)
	if err != nil {
		return nil, err
	}
	vbsp, err := pick(empower.VBSPEntities(vbsps), "VBSP", preferVBSP, s.LastVBSP)
	if err != nil {
		return nil, err
	}

	ues, err := client.ListUEs(ctx, vbsp)
	if err != nil {
		return nil, err
	}
	ue, err := pick(empower.UEEntities(ues), "UE", preferUE, s.LastUE)
	if err != nil {
		return nil, err
	}
	rnti, err := strconv.Atoi(ue)
	if err != nil {
		return nil, empower.NewValidationError(fmt.Sprintf("UE %q is not a numeric RNTI", ue))
	}
	details, err := client.GetUE(ctx, vbsp, rnti)
	if err != nil {
		return nil, err
	}

	meas, err := client.RRCMeasurements(ctx, s.TenantID, vbsp, rnti)
	if err != nil {
		return nil, err
	}

	panel := gauge.NewPanel()
	panel.ApplyPrimary(meas.PrimaryRSRP, meas.PrimaryRSRQ)
	return &showResult{
		Tenant:      s.TenantID,
		VBSP:        vbsp,
		UE:          ue,
		Details:     details,
		Measurement: meas,
		Readings:    panel.Readings(),
	}, nil
}

// capabilityRows lists UE capabilities sorted by name.
func capabilityRows(caps map[string]any) [][]string {
	names := make([]string, 0, len(caps))
	for k := range caps {
		names = append(names, k)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, k := range names {
		rows = append(rows, []string{k, fmt.Sprint(caps[k])})
	}
	return rows
}

// pick chooses the flag value, then the remembered one if still listed,
// then the first option.
func pick(options []selector.Entity, what, flag, remembered string) (string, error) {
	has := func(k string) bool {
		for _, o := range options {
			if o.Key == k {
				return true
			}
		}
		return false
	}
	if flag != "" {
		if !has(flag) {
			return "", empower.NewValidationError(fmt.Sprintf("%s %q is not listed by the controller", what, flag))
		}
		return flag, nil
	}
	if remembered != "" && has(remembered) {
		return remembered, nil
	}
	if len(options) == 0 {
		return "", empower.NewValidationError(fmt.Sprintf("the controller lists no %s", what))
	}
	return options[0].Key, nil
}

// tenantsCmd lists the tenants of a controller
var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "List the tenants of the controller",
	Long: `List the tenants defined on the controller.

Use the tenant ID with --tenant, RRCMON_TENANT, or save it as the
controller's default with 'rrcmon config set-controller'.`,
	RunE: runTenants,
}

func runTenants(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	_, s, err := loadSettings(false)
	if err != nil {
		return err
	}
	printer := ui.NewPrinter(os.Stdout)

	ctx, stop := signalContext()
	defer stop()

	tenants, err := newClient(s).ListTenants(ctx)
	if err != nil {
		printer.PrintError("Failed to list tenants", err, empower.TroubleshootingHint(err))
		return fmt.Errorf("tenants failed: %s", empower.ShortMessage(err))
	}

	printer.PrintHeader("Tenants", "rrcmon tenants", map[string]string{"Controller": s.ControllerURL})
	rows := make([][]string, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, []string{
			t.TenantID,
			firstNonEmpty(t.TenantName, ui.EmptyValue),
			firstNonEmpty(t.Owner, ui.EmptyValue),
			firstNonEmpty(t.PLMNID, ui.EmptyValue),
		})
	}
	printer.PrintTable([]string{"ID", "Name", "Owner", "PLMN"}, rows, "No tenants")
	return nil
}

// scanCmd discovers controllers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for EmPOWER controllers on the network",
	Long: `Scan for EmPOWER controllers using mDNS/DNS-SD discovery.

Controllers (and rrcmon-sim with --advertise) announce themselves as
_empower._tcp with their tenant and API path in TXT records.`,
	Example: `  # Scan with the configured timeout (5 seconds by default)
  rrcmon scan

  # Longer scan for busy networks
  rrcmon scan --scan-timeout 15`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeoutSecs, "scan-timeout", 0, "Scan timeout in seconds")
	rootCmd.Flags().IntVar(&scanTimeoutSecs, "scan-timeout", 0, "mDNS timeout in seconds for --discover")
	dashboardCmd.Flags().IntVar(&scanTimeoutSecs, "scan-timeout", 0, "mDNS timeout in seconds for --discover")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	timeout := time.Duration(scanTimeoutSecs) * time.Second
	if timeout <= 0 {
		if reg, err := loadRegistry(); err == nil && reg.Preferences != nil {
			timeout = time.Duration(reg.Preferences.DiscoverTimeout) * time.Second
		}
	}
	if timeout <= 0 {
		timeout = discovery.DefaultScanTimeout
	}

	printer := ui.NewPrinter(os.Stdout)
	printer.Println(fmt.Sprintf("Scanning for EmPOWER controllers (timeout: %s)...", timeout))
	printer.Newline()

	ctx, stop := signalContext()
	defer stop()

	controllers, err := discovery.Scan(ctx, timeout)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(controllers) == 0 {
		printer.PrintWarning("No controllers found", nil)
		printer.PrintLines(
			"Troubleshooting:",
			"  - Check that the controller advertises _empower._tcp",
			"  - Multicast may be blocked between subnets",
			"  - Try a longer --scan-timeout",
			"  - Use --controller to give the URL directly",
		)
		return nil
	}

	rows := make([][]string, 0, len(controllers))
	for _, c := range controllers {
		rows = append(rows, []string{
			c.Instance,
			c.BaseURL(),
			firstNonEmpty(c.Tenant(), ui.EmptyValue),
			firstNonEmpty(c.GetMetadata("version"), ui.EmptyValue),
		})
	}
	printer.PrintTable([]string{"Instance", "URL", "Tenant", "Version"}, rows, "")
	printer.Newline()
	printer.Println("Use 'rrcmon config set-controller <name> <url>' to save one")
	return nil
}
