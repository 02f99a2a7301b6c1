// Package preflight provides readiness checks for the transform tool and the
// filesystem paths a batch run depends on.
//
// The CLI "stackpress check" command renders RunAll results as a table. Run
// itself does not call RunAll; it fails fast on the same conditions instead.
package preflight
