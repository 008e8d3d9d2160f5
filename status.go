package poolx

// Status is a weakly-consistent snapshot of pool occupancy. Individual
// fields are read atomically but the snapshot as a whole may be torn
// across a concurrent Get/resize/retain — that's acceptable per spec.md
// §4.8, which only requires that no single field be torn.
type Status struct {
	MaxSize   int
	Size      int
	Available int
	Waiting   int
}

// RetainResult reports how a Retain call changed the idle store.
type RetainResult struct {
	Retained int
	Removed  int
}
