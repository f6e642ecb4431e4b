// Package empower is a client for the EmPOWER controller REST API.
//
// It covers the read-only endpoints the RRC dashboard polls:
//
//	GET /api/v1/tenants
//	GET /api/v1/tenants/{tenant}/vbsps
//	GET /api/v1/vbsps/{vbsp}/ues
//	GET /api/v1/vbsps/{vbsp}/ues/{rnti}
//	GET /api/v1/tenants/{tenant}/vbsps/{vbsp}/ues/{rnti}/ue_rrc_measurements
//
// # Errors
//
// Every failure is returned as an *APIError. Callers that poll should not
// care about the exact ErrorType, only its Class:
//
//	switch empower.Classify(err) {
//	case empower.ClassTransient: // network or 5xx, retry next cycle
//	case empower.ClassMalformed: // body did not decode, skip this update
//	case empower.ClassRejected:  // auth or 4xx
//	}
//
// None of the classes is fatal. Decoding is strict about the keys the
// dashboard keys on (VBSP addr, UE rnti, primary cell RSRP/RSRQ) and lenient
// about everything else.
//
// # Basic Usage
//
//	c := empower.NewClient("http://127.0.0.1:8888")
//	c.SetAuth("root", "root")
//	vbsps, err := c.ListVBSPs(ctx, tenantID)
package empower
