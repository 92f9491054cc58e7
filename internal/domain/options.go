package domain

// RunOptions are the per-invocation options the CLI layer hands to the
// upload orchestrator.
type RunOptions struct {
	// Force permits updating already-created remote documents instead of
	// skipping them. Binaries are never re-uploaded; token resolution is
	// re-run to repair links.
	Force bool

	// Publish controls whether created documents are published immediately.
	Publish bool

	Verbose bool
}
