package domain

// Snapshot is the complete persisted state of the registry: three
// independent collections keyed by their natural identifiers. Snapshots
// are always written whole, never incrementally, so storage holds either
// the previous or the next fully-consistent state.
type Snapshot struct {
	Stations []*Station `json:"stations"`
	Lines    []*Line    `json:"lines"`
	// Fares are listed in insertion order; the engine's tie-breaking
	// between equal-cost edges depends on it surviving a reload.
	Fares []Fare `json:"fares"`
}
