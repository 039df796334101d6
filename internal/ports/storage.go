// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

// Storage persists the active keyword dataset and the custom-analysis history.
// The backing store (bbolt) is workspace-scoped: each workspace gets its own
// namespace. Concurrent reads are safe; writes are serialized by the adapter.
//
// Crash safety: every Save must be transactional. A crash mid-write must not
// corrupt previously committed data.
type Storage interface {
	// SaveDataset persists the active dataset for a workspace.
	// Overwrites any prior dataset.
	SaveDataset(workspace string, ds *Dataset) error

	// LoadDataset retrieves the active dataset.
	// Returns nil, nil if nothing was imported yet.
	LoadDataset(workspace string) (*Dataset, error)

	// SaveAnalysis stores one custom analysis in the workspace history,
	// keyed by its ID.
	SaveAnalysis(workspace string, a *TitleAnalysis) error

	// LoadHistory returns every stored analysis, newest first.
	// Returns nil, nil for a fresh workspace.
	LoadHistory(workspace string) ([]TitleAnalysis, error)

	// DeleteAnalysis removes one analysis. Idempotent.
	DeleteAnalysis(workspace, id string) error

	// DeleteWorkspace removes all data (dataset + history) for a workspace.
	// Idempotent: deleting a nonexistent workspace is not an error.
	DeleteWorkspace(workspace string) error

	// Close releases the underlying database.
	Close() error
}
