// Package simulator is a stand-in EmPOWER controller for demos and tests.
//
// A Network holds one tenant with a fixed set of VBSPs. Every Step the RRC
// values of each attached UE take a bounded random walk and, now and then, a
// UE detaches or a new one attaches. A Seed makes a run reproducible.
//
// Mount serves the same REST endpoints the real controller does:
//
//	GET /api/v1/tenants
//	GET /api/v1/tenants/{tenant_id}/vbsps
//	GET /api/v1/vbsps/{vbsp}/ues
//	GET /api/v1/vbsps/{vbsp}/ues/{rnti}
//	GET /api/v1/tenants/{tenant_id}/vbsps/{vbsp}/ues/{rnti}/ue_rrc_measurements
//
// Unknown tenants, VBSPs and UEs answer 404.
package simulator
