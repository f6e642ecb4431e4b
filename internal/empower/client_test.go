package empower

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTenant = "52313ecb-9d00-4b7d-b873-b55d3d9ada26"

const mockVBSPs = `[{"addr":"00:00:00:00:01:9B","label":"ap-1","period":2000},{"addr":"00:00:00:00:01:9C","label":""}]`

const mockUEs = `[{"rnti":4660,"vbsp":"00:00:00:00:01:9B","ue_id":"00:00:00:00:12:34","capabilities":{}},{"rnti":71,"vbsp":"00:00:00:00:01:9B"}]`

const mockMeasurements = `{"primary_cell_rsrp":-87,"primary_cell_rsrq":-9.5,"rrc_measurements":{"301":{"measId":1,"RAT_type":"EUTRA","rsrp":-101,"rsrq":-14},"12":{"measId":1,"RAT_type":"EUTRA","rsrp":-95,"rsrq":-11}}}`

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.EscapedPath()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://127.0.0.1:8888/")

	assert.Equal(t, "http://127.0.0.1:8888", c.BaseURL)
	assert.Equal(t, DefaultTimeout, c.HTTPClient.Timeout)
	assert.Equal(t, 0, c.MaxRetries)
	assert.Empty(t, c.Username)

	c.SetTimeout(time.Second)
	c.SetAuth("root", "secret")
	c.SetRetry(2, time.Millisecond)
	assert.Equal(t, time.Second, c.HTTPClient.Timeout)
	assert.Equal(t, "root", c.Username)
	assert.Equal(t, 2, c.MaxRetries)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/api/v1/tenants/t1/vbsps", VBSPsPath("t1"))
	assert.Equal(t, "/api/v1/vbsps/00:00:00:00:01:9B/ues", UEsPath("00:00:00:00:01:9B"))
	assert.Equal(t, "/api/v1/vbsps/a%2Fb/ues/7", UEPath("a/b", 7))
	assert.Equal(t, "/api/v1/tenants/t1/vbsps/v%20x/ues/42/ue_rrc_measurements", MeasurementsPath("t1", "v x", 42))
}

func TestListVBSPs(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/api/v1/tenants/" + testTenant + "/vbsps": mockVBSPs,
	})
	c := NewClient(srv.URL)

	vbsps, err := c.ListVBSPs(context.Background(), testTenant)
	require.NoError(t, err)
	require.Len(t, vbsps, 2)
	assert.Equal(t, "00:00:00:00:01:9B", vbsps[0].Addr)
	assert.Equal(t, 2000, vbsps[0].Period)

	entities := VBSPEntities(vbsps)
	assert.Equal(t, "ap-1 (00:00:00:00:01:9B)", entities[0].Label)
	assert.Equal(t, "00:00:00:00:01:9C", entities[1].Label, "unlabelled VBSP falls back to addr")
}

func TestListUEs(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/api/v1/vbsps/00:00:00:00:01:9B/ues": mockUEs,
	})
	c := NewClient(srv.URL)

	ues, err := c.ListUEs(context.Background(), "00:00:00:00:01:9B")
	require.NoError(t, err)
	require.Len(t, ues, 2)
	assert.Equal(t, 4660, ues[0].RNTI)
	assert.Equal(t, "4660", ues[0].Key())

	entities := UEEntities(ues)
	assert.Equal(t, "71", entities[1].Key)
	assert.Equal(t, "71", entities[1].Label)
}

func TestGetUE(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/api/v1/vbsps/ap/ues/4660": `{"rnti":4660,"vbsp":"ap","ue_id":"00:00:00:00:12:34"}`,
	})
	c := NewClient(srv.URL)

	ue, err := c.GetUE(context.Background(), "ap", 4660)
	require.NoError(t, err)
	assert.Equal(t, UEIDFromRNTI(4660), ue.UEID)

	_, err = c.GetUE(context.Background(), "ap", 1)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ClassRejected, Classify(err))
}

func TestRRCMeasurements(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		MeasurementsPath(testTenant, "ap", 4660): mockMeasurements,
	})
	c := NewClient(srv.URL)

	m, err := c.RRCMeasurements(context.Background(), testTenant, "ap", 4660)
	require.NoError(t, err)
	assert.Equal(t, -87.0, m.PrimaryRSRP)
	assert.Equal(t, -9.5, m.PrimaryRSRQ)
	require.Len(t, m.Neighbours, 2)
	assert.Equal(t, "EUTRA", m.Neighbours["301"].RATType)

	cells := m.CellEntities()
	require.Len(t, cells, 2)
	assert.Equal(t, "12", cells[0].Key, "cells are ordered by numeric PCI")
	assert.Equal(t, "PCI 301 (EUTRA)", cells[1].Label)
}

func TestRequiredKeys(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		call func(*Client) error
	}{
		{
			name: "vbsp without addr",
			path: VBSPsPath(testTenant),
			body: `[{"label":"ap-1"}]`,
			call: func(c *Client) error { _, err := c.ListVBSPs(context.Background(), testTenant); return err },
		},
		{
			name: "ue without rnti",
			path: UEsPath("ap"),
			body: `[{"vbsp":"ap"}]`,
			call: func(c *Client) error { _, err := c.ListUEs(context.Background(), "ap"); return err },
		},
		{
			name: "measurement without rsrq",
			path: MeasurementsPath(testTenant, "ap", 1),
			body: `{"primary_cell_rsrp":-80}`,
			call: func(c *Client) error {
				_, err := c.RRCMeasurements(context.Background(), testTenant, "ap", 1)
				return err
			},
		},
		{
			name: "not json",
			path: UEsPath("ap"),
			body: `<html>gateway</html>`,
			call: func(c *Client) error { _, err := c.ListUEs(context.Background(), "ap"); return err },
		},
		{
			name: "wrong shape",
			path: VBSPsPath(testTenant),
			body: `{"addr":"x"}`,
			call: func(c *Client) error { _, err := c.ListVBSPs(context.Background(), testTenant); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, map[string]string{tt.path: tt.body})
			err := tt.call(NewClient(srv.URL))
			require.Error(t, err)
			assert.True(t, IsMalformed(err), "got %v", err)
		})
	}
}

func TestOutOfRangeValuesPassThrough(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		MeasurementsPath(testTenant, "ap", 1): `{"primary_cell_rsrp":-250,"primary_cell_rsrq":40}`,
	})

	m, err := NewClient(srv.URL).RRCMeasurements(context.Background(), testTenant, "ap", 1)
	require.NoError(t, err)
	assert.Equal(t, -250.0, m.PrimaryRSRP)
	assert.Equal(t, 40.0, m.PrimaryRSRQ)
	assert.Empty(t, m.CellEntities())
}

func TestBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, hadAuth = r.BasicAuth()
		if gotUser != "root" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ListTenants(context.Background())
	assert.False(t, hadAuth, "no credentials are sent without a username")
	assert.True(t, IsAuthError(err))

	c.SetAuth("root", "root")
	tenants, err := c.ListTenants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tenants)
	assert.True(t, hadAuth)
	assert.Equal(t, "root", gotPass)
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "controller busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListVBSPs(context.Background(), testTenant)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "controller busy")
}

func TestRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetRetry(3, time.Millisecond)

	_, err := c.ListUEs(context.Background(), "ap")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoesNotRetryRejected(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetRetry(3, time.Millisecond)

	_, err := c.ListUEs(context.Background(), "ap")
	assert.Equal(t, ClassRejected, Classify(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestContextTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL).ListVBSPs(ctx, testTenant)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, ErrTypeTimeout, err.(*APIError).Type)
}

func TestConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = NewClient("http://"+addr).ListTenants(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, ErrTypeConnectionRefused, err.(*APIError).Type)
}

func TestValidation(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.ListVBSPs(context.Background(), "")
	assert.Equal(t, ClassRejected, Classify(err))
	_, err = c.ListUEs(context.Background(), "")
	assert.Equal(t, ClassRejected, Classify(err))
	_, err = c.RRCMeasurements(context.Background(), testTenant, "", 1)
	assert.Equal(t, ClassRejected, Classify(err))
}

func TestUEIDFromRNTI(t *testing.T) {
	tests := []struct {
		rnti int
		want string
	}{
		{0, "00:00:00:00:00:00"},
		{4660, "00:00:00:00:12:34"},
		{65535, "00:00:00:00:ff:ff"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UEIDFromRNTI(tt.rnti))
	}
}
