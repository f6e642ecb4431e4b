package recorder

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/muurk/rrcmon/internal/logging"
	"github.com/muurk/rrcmon/internal/monitor"
)

// DB is the part of *pgxpool.Pool the recorder uses.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

var schemaSQL = []string{
	`CREATE SCHEMA IF NOT EXISTS rrcmon`,
	`CREATE TABLE IF NOT EXISTS rrcmon.rrc_samples (
    id         BIGSERIAL PRIMARY KEY,
    ts         TIMESTAMPTZ NOT NULL,
    tenant_id  UUID NOT NULL,
    vbsp       TEXT NOT NULL,
    rnti       INTEGER NOT NULL,
    pci        INTEGER,
    meas_id    INTEGER,
    rat_type   TEXT,
    rsrp       DOUBLE PRECISION NOT NULL,
    rsrq       DOUBLE PRECISION NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS rrc_samples_target_ts
    ON rrcmon.rrc_samples (tenant_id, vbsp, rnti, ts DESC)`,
}

const insertSampleSQL = `INSERT INTO rrcmon.rrc_samples (ts, tenant_id, vbsp, rnti, pci, meas_id, rat_type, rsrp, rsrq)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

// Sample is one stored row. PCI, MeasID and RATType are nil for the
// primary cell.
type Sample struct {
	TS       time.Time
	TenantID string
	VBSP     string
	RNTI     int
	PCI      *int
	MeasID   *int
	RATType  *string
	RSRP     float64
	RSRQ     float64
}

// Recorder stores measurement snapshots in Postgres. It is a monitor.Sink.
type Recorder struct {
	db DB
}

// Open connects to dsn and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*Recorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach recorder database: %w", err)
	}

	r := New(pool)
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// New wraps an existing connection.
func New(db DB) *Recorder {
	return &Recorder{db: db}
}

// EnsureSchema creates the schema, table and index if missing.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create recorder schema: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (r *Recorder) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Name implements monitor.Sink.
func (r *Recorder) Name() string { return "recorder" }

// Publish stores the samples of a measurement snapshot. Other snapshots are
// ignored.
func (r *Recorder) Publish(ctx context.Context, snap monitor.Snapshot) error {
	samples, err := Samples(snap)
	if err != nil {
		return err
	}
	if err := r.Insert(ctx, samples); err != nil {
		return err
	}
	if len(samples) > 0 {
		logging.Debug("Recorded samples",
			zap.String("vbsp", samples[0].VBSP),
			zap.Int("rnti", samples[0].RNTI),
			zap.Int("rows", len(samples)))
	}
	return nil
}

// Insert writes samples in one batch.
func (r *Recorder) Insert(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(insertSampleSQL, s.TS, s.TenantID, s.VBSP, s.RNTI, s.PCI, s.MeasID, s.RATType, s.RSRP, s.RSRQ)
	}

	res := r.db.SendBatch(ctx, batch)
	defer res.Close()

	for range samples {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("failed to record sample: %w", err)
		}
	}
	return nil
}

// Samples flattens a measurement snapshot into rows: the primary cell first,
// then the neighbours by PCI. It returns nil for other snapshots.
func Samples(snap monitor.Snapshot) ([]Sample, error) {
	m := snap.Measurement
	if m == nil {
		return nil, nil
	}

	vbsp, ue := snap.VBSPs.Selected, snap.UEs.Selected
	if vbsp == "" || ue == "" {
		return nil, nil
	}
	rnti, err := strconv.Atoi(ue)
	if err != nil {
		return nil, fmt.Errorf("invalid UE key %q: %w", ue, err)
	}

	base := Sample{TS: snap.At, TenantID: snap.Tenant, VBSP: vbsp, RNTI: rnti}

	primary := base
	primary.RSRP = m.PrimaryRSRP
	primary.RSRQ = m.PrimaryRSRQ
	samples := []Sample{primary}

	type neighbour struct {
		pci int
		key string
	}
	cells := make([]neighbour, 0, len(m.Neighbours))
	for k := range m.Neighbours {
		pci, err := strconv.Atoi(k)
		if err != nil {
			logging.Debug("Skipping neighbour with non-numeric PCI", zap.String("pci", k))
			continue
		}
		cells = append(cells, neighbour{pci: pci, key: k})
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].pci < cells[j].pci })

	for _, n := range cells {
		pci := n.pci
		cell := m.Neighbours[n.key]
		s := base
		s.PCI = &pci
		s.MeasID = &cell.MeasID
		s.RATType = &cell.RATType
		s.RSRP = cell.RSRP
		s.RSRQ = cell.RSRQ
		samples = append(samples, s)
	}
	return samples, nil
}
