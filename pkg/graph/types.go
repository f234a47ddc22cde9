package graph

// Variant classifies a node for rendering based on its popularity score.
type Variant string

const (
	VariantHigh Variant = "high"
	VariantLow  Variant = "low"
)

// PopularityThreshold is the score above which a node renders as high-score.
const PopularityThreshold = 5.0

// NodeSummary is a single node as returned by the store's graph endpoint.
type NodeSummary struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	Age             int     `json:"age"`
	PopularityScore float64 `json:"popularityScore"`
}

// RawEdge is a friendship as returned by the store. The store emits each
// friendship once per direction, so the same unordered pair may appear twice.
type RawEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// CanonicalGraph is the authoritative graph snapshot fetched from the store.
type CanonicalGraph struct {
	Nodes []NodeSummary `json:"nodes"`
	Edges []RawEdge     `json:"edges"`
}

// Position is a node's placement on the rendering surface, in abstract units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VisualNode is a classified, positioned node ready for rendering.
type VisualNode struct {
	ID       string
	Username string
	Age      int
	Score    float64
	Variant  Variant
	Position Position
}

// VisualEdge is a deduplicated undirected friendship. Key is the sorted
// endpoint pair; Source/Target keep the first-seen direction for display.
type VisualEdge struct {
	Key    string
	Source string
	Target string
}

// VisualGraph is the deduplicated, classified projection of a CanonicalGraph.
// Nodes preserve input order; edges preserve first-seen order.
type VisualGraph struct {
	Nodes []VisualNode
	Edges []VisualEdge
}

// Node returns the visual node with the given id, if present.
func (g VisualGraph) Node(id string) (VisualNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return VisualNode{}, false
}

// Positions returns the current placement of every node, keyed by id.
// Feeding the result back into Transform keeps layout stable across refreshes.
func (g VisualGraph) Positions() map[string]Position {
	pos := make(map[string]Position, len(g.Nodes))
	for _, n := range g.Nodes {
		pos[n.ID] = n.Position
	}
	return pos
}
