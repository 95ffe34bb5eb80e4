// Package state implements the keyed state model that flows through a
// compiled graph: channels, schemas, and the per-step update algebra.
package state

// resetMarker and removeMarker are the concrete types behind the two
// sentinel values. They are unexported and zero-size so the only way to
// obtain one is through the package-level MarkForReset/MarkForRemoval
// variables, making identity comparison with == meaningful.
type resetMarker struct{}
type removeMarker struct{}

var (
	// MarkForReset, used as a value in a partial update, tells a channel to
	// discard the current value and fall back to its default.
	MarkForReset any = &resetMarker{}

	// MarkForRemoval, used as a value in a partial update, tells a channel
	// (and the final merge step) to drop the key entirely.
	MarkForRemoval any = &removeMarker{}
)

// IsMarkedForReset reports whether v is the MarkForReset sentinel.
func IsMarkedForReset(v any) bool {
	_, ok := v.(*resetMarker)
	return ok
}

// IsMarkedForRemoval reports whether v is the MarkForRemoval sentinel.
func IsMarkedForRemoval(v any) bool {
	_, ok := v.(*removeMarker)
	return ok
}
