// Package recorder stores RRC measurement samples in Postgres.
//
// Recorder is a monitor.Sink that only acts on measurement snapshots. Each
// one becomes a batch of rows in rrcmon.rrc_samples: the primary cell (pci
// NULL) followed by every neighbour cell. The dashboard never reads them
// back; they are for offline analysis.
//
//	rec, err := recorder.Open(ctx, "postgres://rrcmon@localhost/rrcmon")
//	if err != nil {
//	    return err
//	}
//	defer rec.Close()
//	m := monitor.New(client, opts, rec)
package recorder
