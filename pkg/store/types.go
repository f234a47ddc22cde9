package store

import "errors"

// Sentinel errors surfaced to the API layer for status mapping.
var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("conflict")
)

// Person is the full person record served over the API. The popularity
// score is recomputed on every read, never stored.
type Person struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	Age             int      `json:"age"`
	Hobbies         []string `json:"hobbies"`
	PopularityScore float64  `json:"popularityScore"`
	FriendIDs       []string `json:"friendIds"`
}

// PersonFields is the accepted body for create and update.
type PersonFields struct {
	Username string   `json:"username"`
	Age      int      `json:"age"`
	Hobbies  []string `json:"hobbies"`
}

// GraphNode is a node in the graph snapshot.
type GraphNode struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	Age             int     `json:"age"`
	PopularityScore float64 `json:"popularityScore"`
}

// GraphEdge is a directed representation of a friendship. Each friendship
// appears once per direction.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphData is the graph snapshot response.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
