package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/rrcmon/internal/empower"
	"github.com/muurk/rrcmon/internal/logging"
)

var (
	ErrUnknownTenant = errors.New("unknown tenant")
	ErrUnknownVBSP   = errors.New("unknown vbsp")
	ErrUnknownUE     = errors.New("unknown ue")
)

const (
	DefaultVBSPs      = 2
	DefaultUEsPerVBSP = 3
	DefaultStep       = time.Second

	// Chance per step that a VBSP loses or gains a UE.
	churnRate = 0.1

	// Neighbour cells reported per UE.
	neighbourCount = 3
)

// Physical limits the random walk stays inside.
const (
	minRSRP, maxRSRP = -140.0, -44.0
	minRSRQ, maxRSRQ = -19.5, -3.0
)

// Config describes the simulated network.
type Config struct {
	// TenantID is generated when empty.
	TenantID   string
	TenantName string
	VBSPs      int
	UEsPerVBSP int
	Seed       int64
	Step       time.Duration
	Clock      clockwork.Clock
}

type ueState struct {
	ue   empower.UE
	meas empower.RRCMeasurements
}

type vbspState struct {
	vbsp empower.VBSP
	ues  map[int]*ueState
}

// Network is an in-memory controller: one tenant with VBSPs, attached UEs
// and their RRC measurements. Step advances it; it is safe for concurrent
// use.
type Network struct {
	cfg    Config
	clock  clockwork.Clock
	tenant empower.Tenant

	mu       sync.RWMutex
	rng      *rand.Rand
	vbsps    map[string]*vbspState
	nextRNTI int
	steps    int
}

// NewNetwork builds the initial topology from cfg.
func NewNetwork(cfg Config) (*Network, error) {
	if cfg.VBSPs <= 0 {
		cfg.VBSPs = DefaultVBSPs
	}
	if cfg.UEsPerVBSP < 0 {
		return nil, fmt.Errorf("UEs per VBSP must not be negative, got %d", cfg.UEsPerVBSP)
	}
	if cfg.Step <= 0 {
		cfg.Step = DefaultStep
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.TenantID == "" {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("failed to generate tenant id: %w", err)
		}
		cfg.TenantID = id.String()
	} else {
		id, err := uuid.Parse(cfg.TenantID)
		if err != nil {
			return nil, fmt.Errorf("invalid tenant id %q: %w", cfg.TenantID, err)
		}
		cfg.TenantID = id.String()
	}
	if cfg.TenantName == "" {
		cfg.TenantName = "sim"
	}

	n := &Network{
		cfg:   cfg,
		clock: cfg.Clock,
		tenant: empower.Tenant{
			TenantID:   cfg.TenantID,
			TenantName: cfg.TenantName,
			Owner:      "root",
			Desc:       "Simulated tenant",
			PLMNID:     "222f93",
		},
		rng:      rng,
		vbsps:    make(map[string]*vbspState, cfg.VBSPs),
		nextRNTI: 0x1234,
	}

	now := n.clock.Now()
	for i := 1; i <= cfg.VBSPs; i++ {
		addr := empower.UEIDFromRNTI(i)
		v := &vbspState{
			vbsp: empower.VBSP{
				Addr:     addr,
				Label:    fmt.Sprintf("eNB %d", i),
				Period:   5000,
				LastSeen: &now,
			},
			ues: make(map[int]*ueState),
		}
		n.vbsps[addr] = v
		for j := 0; j < cfg.UEsPerVBSP; j++ {
			n.attach(v)
		}
	}
	return n, nil
}

// TenantID is the id of the simulated tenant.
func (n *Network) TenantID() string {
	return n.cfg.TenantID
}

// Steps is how many times the network has advanced.
func (n *Network) Steps() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.steps
}

// Run advances the network every Step until ctx is cancelled.
func (n *Network) Run(ctx context.Context) error {
	ticker := n.clock.NewTicker(n.cfg.Step)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			n.Step()
		}
	}
}

// Step random-walks every measurement and applies UE churn.
func (n *Network) Step() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.steps++
	now := n.clock.Now()
	for _, addr := range n.sortedAddrs() {
		v := n.vbsps[addr]
		v.vbsp.LastSeen = &now

		if n.rng.Float64() < churnRate {
			n.churn(v)
		}
		for _, rnti := range sortedRNTIs(v) {
			walk(n.rng, &v.ues[rnti].meas)
		}
	}
}

// Tenants lists the simulated tenant.
func (n *Network) Tenants() []empower.Tenant {
	return []empower.Tenant{n.tenant}
}

// VBSPs lists the VBSPs of tenantID sorted by addr.
func (n *Network) VBSPs(tenantID string) ([]empower.VBSP, error) {
	if err := n.checkTenant(tenantID); err != nil {
		return nil, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]empower.VBSP, 0, len(n.vbsps))
	for _, addr := range n.sortedAddrs() {
		out = append(out, n.vbsps[addr].vbsp)
	}
	return out, nil
}

// UEs lists the UEs attached to vbsp sorted by RNTI.
func (n *Network) UEs(vbsp string) ([]empower.UE, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	v, ok := n.vbsps[vbsp]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVBSP, vbsp)
	}
	out := make([]empower.UE, 0, len(v.ues))
	for _, rnti := range sortedRNTIs(v) {
		out = append(out, v.ues[rnti].ue)
	}
	return out, nil
}

// UE returns one attached UE.
func (n *Network) UE(vbsp string, rnti int) (empower.UE, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	u, err := n.lookup(vbsp, rnti)
	if err != nil {
		return empower.UE{}, err
	}
	return u.ue, nil
}

// Measurements returns the current RRC measurements of a UE.
func (n *Network) Measurements(tenantID, vbsp string, rnti int) (empower.RRCMeasurements, error) {
	if err := n.checkTenant(tenantID); err != nil {
		return empower.RRCMeasurements{}, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	u, err := n.lookup(vbsp, rnti)
	if err != nil {
		return empower.RRCMeasurements{}, err
	}
	out := u.meas
	out.Neighbours = make(map[string]empower.CellMeasurement, len(u.meas.Neighbours))
	for k, v := range u.meas.Neighbours {
		out.Neighbours[k] = v
	}
	return out, nil
}

func (n *Network) checkTenant(tenantID string) error {
	id, err := uuid.Parse(tenantID)
	if err != nil || id.String() != n.cfg.TenantID {
		return fmt.Errorf("%w: %s", ErrUnknownTenant, tenantID)
	}
	return nil
}

func (n *Network) lookup(vbsp string, rnti int) (*ueState, error) {
	v, ok := n.vbsps[vbsp]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVBSP, vbsp)
	}
	u, ok := v.ues[rnti]
	if !ok {
		return nil, fmt.Errorf("%w: %d on %s", ErrUnknownUE, rnti, vbsp)
	}
	return u, nil
}

// churn detaches a random UE or attaches a new one, keeping the VBSP
// between zero and twice its configured population.
func (n *Network) churn(v *vbspState) {
	limit := 2 * n.cfg.UEsPerVBSP
	if limit == 0 {
		return
	}
	if len(v.ues) > 0 && (len(v.ues) >= limit || n.rng.Intn(2) == 0) {
		rntis := sortedRNTIs(v)
		rnti := rntis[n.rng.Intn(len(rntis))]
		delete(v.ues, rnti)
		logging.Debug("Simulated UE detached", zap.String("vbsp", v.vbsp.Addr), zap.Int("rnti", rnti))
		return
	}
	u := n.attach(v)
	logging.Debug("Simulated UE attached", zap.String("vbsp", v.vbsp.Addr), zap.Int("rnti", u.ue.RNTI))
}

func (n *Network) attach(v *vbspState) *ueState {
	rnti := n.nextRNTI
	n.nextRNTI++

	u := &ueState{
		ue: empower.UE{
			RNTI: rnti,
			VBSP: v.vbsp.Addr,
			UEID: empower.UEIDFromRNTI(rnti),
			Capabilities: map[string]any{
				"release":  "R10",
				"category": 4,
			},
		},
		meas: empower.RRCMeasurements{
			PrimaryRSRP: -60 - n.rng.Float64()*60,
			PrimaryRSRQ: -4 - n.rng.Float64()*12,
			Neighbours:  make(map[string]empower.CellMeasurement, neighbourCount),
		},
	}
	for i := 0; i < neighbourCount; i++ {
		pci := 1 + n.rng.Intn(503)
		u.meas.Neighbours[fmt.Sprint(pci)] = empower.CellMeasurement{
			MeasID:  i + 1,
			RATType: "EUTRA",
			RSRP:    -80 - n.rng.Float64()*50,
			RSRQ:    -8 - n.rng.Float64()*10,
		}
	}
	v.ues[rnti] = u
	return u
}

func walk(rng *rand.Rand, m *empower.RRCMeasurements) {
	m.PrimaryRSRP = clamp(m.PrimaryRSRP+rng.NormFloat64()*2, minRSRP, maxRSRP)
	m.PrimaryRSRQ = clamp(m.PrimaryRSRQ+rng.NormFloat64()*0.5, minRSRQ, maxRSRQ)

	keys := make([]string, 0, len(m.Neighbours))
	for k := range m.Neighbours {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c := m.Neighbours[k]
		c.RSRP = clamp(c.RSRP+rng.NormFloat64()*2, minRSRP, maxRSRP)
		c.RSRQ = clamp(c.RSRQ+rng.NormFloat64()*0.5, minRSRQ, maxRSRQ)
		m.Neighbours[k] = c
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (n *Network) sortedAddrs() []string {
	addrs := make([]string, 0, len(n.vbsps))
	for addr := range n.vbsps {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

func sortedRNTIs(v *vbspState) []int {
	rntis := make([]int, 0, len(v.ues))
	for rnti := range v.ues {
		rntis = append(rntis, rnti)
	}
	sort.Ints(rntis)
	return rntis
}
