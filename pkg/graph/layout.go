package graph

// Grid layout parameters. New nodes without an established position are
// placed left-to-right, top-to-bottom by their ordinal index in the snapshot.
const (
	LayoutColumns  = 4
	LayoutColWidth = 250.0
	LayoutRowPitch = 200.0
)

// LayoutPosition returns the deterministic grid placement for the node at
// the given ordinal index.
func LayoutPosition(index int) Position {
	return Position{
		X: float64(index%LayoutColumns) * LayoutColWidth,
		Y: float64(index/LayoutColumns) * LayoutRowPitch,
	}
}
