package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/rrcmon/internal/empower"
	"github.com/muurk/rrcmon/internal/monitor"
)

const tenant = "52313ecb-9d00-4b7d-b873-b55d3d9ada26"

type fakeDB struct {
	execs   []string
	batches []*pgx.Batch
	execErr error
	rowErr  error
	closed  bool
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("CREATE"), f.execErr
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batches = append(f.batches, b)
	return &fakeResults{err: f.rowErr}
}

func (f *fakeDB) Close() { f.closed = true }

type fakeResults struct {
	err    error
	closed bool
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), r.err
}
func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (r *fakeResults) QueryRow() pgx.Row        { return nil }
func (r *fakeResults) Close() error {
	r.closed = true
	return nil
}

func measurementSnapshot() monitor.Snapshot {
	return monitor.Snapshot{
		Tenant: tenant,
		Cause:  "measurement",
		At:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		VBSPs:  monitor.SelectorView{Selected: "00:00:00:00:00:01"},
		UEs:    monitor.SelectorView{Selected: "4660"},
		Measurement: &empower.RRCMeasurements{
			PrimaryRSRP: -95,
			PrimaryRSRQ: -11,
			Neighbours: map[string]empower.CellMeasurement{
				"12": {MeasID: 2, RATType: "EUTRA", RSRP: -104, RSRQ: -16},
				"3":  {MeasID: 1, RATType: "EUTRA", RSRP: -99, RSRQ: -13},
			},
		},
	}
}

func TestSamples(t *testing.T) {
	samples, err := Samples(measurementSnapshot())
	require.NoError(t, err)
	require.Len(t, samples, 3)

	primary := samples[0]
	assert.Nil(t, primary.PCI)
	assert.Equal(t, 4660, primary.RNTI)
	assert.Equal(t, -95.0, primary.RSRP)
	assert.Equal(t, -11.0, primary.RSRQ)
	assert.Equal(t, tenant, primary.TenantID)

	require.NotNil(t, samples[1].PCI)
	assert.Equal(t, 3, *samples[1].PCI)
	assert.Equal(t, 1, *samples[1].MeasID)
	assert.Equal(t, 12, *samples[2].PCI)
	assert.Equal(t, "EUTRA", *samples[2].RATType)
	assert.Equal(t, -104.0, samples[2].RSRP)
}

func TestSamples_IgnoresOtherSnapshots(t *testing.T) {
	snap := measurementSnapshot()
	snap.Measurement = nil
	samples, err := Samples(snap)
	require.NoError(t, err)
	assert.Nil(t, samples)

	snap = measurementSnapshot()
	snap.UEs.Selected = ""
	samples, err = Samples(snap)
	require.NoError(t, err)
	assert.Nil(t, samples)
}

func TestSamples_BadUEKey(t *testing.T) {
	snap := measurementSnapshot()
	snap.UEs.Selected = "ue-1"
	_, err := Samples(snap)
	assert.Error(t, err)
}

func TestRecorder_Publish(t *testing.T) {
	db := &fakeDB{}
	r := New(db)

	require.NoError(t, r.Publish(context.Background(), measurementSnapshot()))
	require.Len(t, db.batches, 1)
	b := db.batches[0]
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, insertSampleSQL, b.QueuedQueries[0].SQL)
	assert.Equal(t, "00:00:00:00:00:01", b.QueuedQueries[0].Arguments[2])
	assert.Equal(t, 4660, b.QueuedQueries[0].Arguments[3])

	// Non-measurement snapshots do not touch the database.
	require.NoError(t, r.Publish(context.Background(), monitor.Snapshot{Tenant: tenant, Cause: "vbsps"}))
	assert.Len(t, db.batches, 1)
}

func TestRecorder_PublishError(t *testing.T) {
	db := &fakeDB{rowErr: errors.New("relation does not exist")}
	err := New(db).Publish(context.Background(), measurementSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record sample")
}

func TestRecorder_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, New(db).EnsureSchema(context.Background()))
	assert.Len(t, db.execs, len(schemaSQL))

	db = &fakeDB{execErr: errors.New("permission denied")}
	assert.Error(t, New(db).EnsureSchema(context.Background()))
}

func TestRecorder_NameAndClose(t *testing.T) {
	db := &fakeDB{}
	r := New(db)
	assert.Equal(t, "recorder", r.Name())
	r.Close()
	assert.True(t, db.closed)
}
