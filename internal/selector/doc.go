// Package selector keeps a list of selectable options in step with an
// authoritative list fetched from the controller.
//
// The package is split in two layers:
//
//   - Reconcile is a pure function. Given the option keys currently shown,
//     the current selection and a freshly fetched list of entities, it
//     returns the minimal Change (keys to remove, entities to add) plus
//     whether the selection was invalidated.
//   - Selector holds an ordered option set and a selection and applies
//     Changes to them. It is not safe for concurrent use; it is meant to be
//     owned by whichever goroutine owns the dashboard state.
//
// # Sentinel
//
// The empty key ("") is the "nothing selected" option. It is always the
// first option of a Selector and is never removed or reported in a Change.
//
// # Example
//
//	vbsps := selector.New("select a VBSP")
//	change := vbsps.Sync([]selector.Entity{
//	    {Key: "10.0.0.2", Label: "ap2 (10.0.0.2)"},
//	})
//	if change.HideDependents {
//	    // hide the UE selector and the measurement gauges
//	}
package selector
