package empower

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/rrcmon/internal/selector"
)

// Tenant is a controller-side slice that owns a set of VBSPs.
type Tenant struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Owner      string `json:"owner,omitempty"`
	Desc       string `json:"desc,omitempty"`
	PLMNID     string `json:"plmn_id,omitempty"`
}

// VBSP is an access point attached to the controller.
type VBSP struct {
	Addr     string     `json:"addr"`
	Label    string     `json:"label"`
	Period   int        `json:"period,omitempty"`
	LastSeen *time.Time `json:"last_seen_ts,omitempty"`
}

// UnmarshalJSON rejects a VBSP without an addr.
func (v *VBSP) UnmarshalJSON(data []byte) error {
	type plain VBSP
	var raw struct {
		plain
		Addr *string `json:"addr"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Addr == nil {
		return fmt.Errorf("vbsp: missing required key %q", "addr")
	}
	*v = VBSP(raw.plain)
	v.Addr = *raw.Addr
	return nil
}

// Entity returns the selector option for the VBSP.
func (v VBSP) Entity() selector.Entity {
	label := v.Addr
	if v.Label != "" {
		label = fmt.Sprintf("%s (%s)", v.Label, v.Addr)
	}
	return selector.Entity{Key: v.Addr, Label: label}
}

// UE is a device attached to a VBSP.
type UE struct {
	RNTI         int            `json:"rnti"`
	VBSP         string         `json:"vbsp,omitempty"`
	UEID         string         `json:"ue_id,omitempty"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}

// UnmarshalJSON rejects a UE without an rnti.
func (u *UE) UnmarshalJSON(data []byte) error {
	type plain UE
	var raw struct {
		plain
		RNTI *int `json:"rnti"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.RNTI == nil {
		return fmt.Errorf("ue: missing required key %q", "rnti")
	}
	*u = UE(raw.plain)
	u.RNTI = *raw.RNTI
	return nil
}

// Key is the decimal RNTI.
func (u UE) Key() string {
	return strconv.Itoa(u.RNTI)
}

// Entity returns the selector option for the UE.
func (u UE) Entity() selector.Entity {
	return selector.Entity{Key: u.Key(), Label: u.Key()}
}

// UEIDFromRNTI formats an RNTI as a MAC-style identifier, e.g. 4660 is
// 00:00:00:00:12:34.
func UEIDFromRNTI(rnti int) string {
	hex := fmt.Sprintf("%012x", uint64(rnti)&0xffffffffffff)
	parts := make([]string, 0, 6)
	for i := 0; i < len(hex); i += 2 {
		parts = append(parts, hex[i:i+2])
	}
	return strings.Join(parts, ":")
}

// CellMeasurement is one neighbour cell seen by a UE.
type CellMeasurement struct {
	MeasID  int     `json:"measId"`
	RATType string  `json:"RAT_type"`
	RSRP    float64 `json:"rsrp"`
	RSRQ    float64 `json:"rsrq"`
}

// RRCMeasurements is a UE's latest RRC report.
type RRCMeasurements struct {
	PrimaryRSRP float64                    `json:"primary_cell_rsrp"`
	PrimaryRSRQ float64                    `json:"primary_cell_rsrq"`
	Neighbours  map[string]CellMeasurement `json:"rrc_measurements,omitempty"`
}

// UnmarshalJSON requires both primary cell readings.
func (m *RRCMeasurements) UnmarshalJSON(data []byte) error {
	var raw struct {
		PrimaryRSRP *float64                   `json:"primary_cell_rsrp"`
		PrimaryRSRQ *float64                   `json:"primary_cell_rsrq"`
		Neighbours  map[string]CellMeasurement `json:"rrc_measurements"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.PrimaryRSRP == nil {
		return fmt.Errorf("ue_rrc_measurements: missing required key %q", "primary_cell_rsrp")
	}
	if raw.PrimaryRSRQ == nil {
		return fmt.Errorf("ue_rrc_measurements: missing required key %q", "primary_cell_rsrq")
	}
	m.PrimaryRSRP = *raw.PrimaryRSRP
	m.PrimaryRSRQ = *raw.PrimaryRSRQ
	m.Neighbours = raw.Neighbours
	return nil
}

// CellEntities returns the neighbour cells as selector options, ordered by
// numeric PCI.
func (m RRCMeasurements) CellEntities() []selector.Entity {
	keys := make([]string, 0, len(m.Neighbours))
	for k := range m.Neighbours {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})

	out := make([]selector.Entity, 0, len(keys))
	for _, k := range keys {
		label := "PCI " + k
		if rat := m.Neighbours[k].RATType; rat != "" {
			label = fmt.Sprintf("PCI %s (%s)", k, rat)
		}
		out = append(out, selector.Entity{Key: k, Label: label})
	}
	return out
}

// VBSPEntities maps a VBSP list onto selector options.
func VBSPEntities(list []VBSP) []selector.Entity {
	out := make([]selector.Entity, 0, len(list))
	for _, v := range list {
		out = append(out, v.Entity())
	}
	return out
}

// UEEntities maps a UE list onto selector options.
func UEEntities(list []UE) []selector.Entity {
	out := make([]selector.Entity, 0, len(list))
	for _, u := range list {
		out = append(out, u.Entity())
	}
	return out
}
