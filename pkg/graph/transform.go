package graph

// EdgeKey canonicalizes an unordered endpoint pair. Both directions of the
// same friendship map to the same key.
func EdgeKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "-" + b
}

// ClassifyScore maps a popularity score to a rendering variant. The boundary
// score is classified low.
func ClassifyScore(score float64) Variant {
	if score > PopularityThreshold {
		return VariantHigh
	}
	return VariantLow
}

// Transform projects a canonical snapshot into a visual graph. It is pure:
// identical input always yields an identical result, and neither argument is
// mutated. Nodes keep their prior position when one is known; otherwise they
// get a grid slot from their ordinal index. Duplicate directed edges collapse
// to a single visual edge, first-seen direction winning for display.
func Transform(canonical CanonicalGraph, prior map[string]Position) VisualGraph {
	nodes := make([]VisualNode, 0, len(canonical.Nodes))
	for i, summary := range canonical.Nodes {
		pos, ok := prior[summary.ID]
		if !ok {
			pos = LayoutPosition(i)
		}
		nodes = append(nodes, VisualNode{
			ID:       summary.ID,
			Username: summary.Username,
			Age:      summary.Age,
			Score:    summary.PopularityScore,
			Variant:  ClassifyScore(summary.PopularityScore),
			Position: pos,
		})
	}

	seen := make(map[string]struct{}, len(canonical.Edges))
	edges := make([]VisualEdge, 0, len(canonical.Edges))
	for _, raw := range canonical.Edges {
		key := EdgeKey(raw.Source, raw.Target)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		edges = append(edges, VisualEdge{
			Key:    key,
			Source: raw.Source,
			Target: raw.Target,
		})
	}

	return VisualGraph{Nodes: nodes, Edges: edges}
}
