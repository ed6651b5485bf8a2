// Package display holds the result types every renderer understands.
package display

// MoveResult describes one relocation as shown to the user
type MoveResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	// Action is the outcome kind: renamed, copied, skipped or dry-run
	Action string `json:"action"`
	DryRun bool   `json:"dryRun"`
	// Reconciled lists leftovers removed before the move, if any ran
	Reconciled *ReconcileResult `json:"reconciled,omitempty"`
}

// ReconcileResult describes a startup reconciliation pass
type ReconcileResult struct {
	Artifacts   []string `json:"artifacts"`
	PartialDirs []string `json:"partialDirs"`
	Contended   []string `json:"contended,omitempty"`
	DryRun      bool     `json:"dryRun"`
}

// Empty reports whether the pass found nothing.
func (r *ReconcileResult) Empty() bool {
	return r == nil || len(r.Artifacts)+len(r.PartialDirs)+len(r.Contended) == 0
}

// Removed counts entries the pass removed (or would remove in a dry run).
func (r *ReconcileResult) Removed() int {
	if r == nil {
		return 0
	}
	return len(r.Artifacts) + len(r.PartialDirs)
}
