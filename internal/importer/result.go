package importer

// Result accumulates the outcome of an import run. Counters only ever grow;
// rows are never rolled back, so a failed run can still have committed rows.
type Result struct {
	Added   int
	Updated int
	Deleted int
	Skipped int
	Errors  int
}

// Failed reports whether any row-level error was recorded. A failed run
// still processed every row; the flag only drives the exit status.
func (r *Result) Failed() bool {
	return r.Errors > 0
}
