package rtree

import "github.com/rtreedb/rtreedb/geometry"

// chooseSubtreeIndex picks, among a node's entries, the child to
// descend into for the given target MBR and tree level, per spec.md
// §4.D's two subtree-choice rules.
func chooseSubtreeIndex(cfg Config, entries []Entry, mbr geometry.Region, childLevel int) int {
	if cfg.Variant == VariantRStar && childLevel == 0 {
		return findLeastOverlap(cfg, entries, mbr)
	}
	return findLeastEnlargement(entries, mbr)
}

// findLeastEnlargement returns the index of the entry whose MBR would
// enlarge least to accommodate mbr, tie-breaking on smaller resulting
// area.
func findLeastEnlargement(entries []Entry, mbr geometry.Region) int {
	best := 0
	bestEnlargement := entries[0].MBR.Enlargement(mbr)
	bestArea := entries[0].MBR.GetArea()

	for i := 1; i < len(entries); i++ {
		enlargement := entries[i].MBR.Enlargement(mbr)
		area := entries[i].MBR.GetArea()
		if enlargement < bestEnlargement || (enlargement == bestEnlargement && area < bestArea) {
			best = i
			bestEnlargement = enlargement
			bestArea = area
		}
	}
	return best
}

// findLeastOverlap implements R*'s subtree choice at the level above
// leaves: restrict to a near-minimum-overlap-factor-sized candidate
// set by enlargement, then pick the candidate minimizing the overlap
// its enlarged MBR would add against every sibling.
func findLeastOverlap(cfg Config, entries []Entry, mbr geometry.Region) int {
	n := len(entries)

	type scored struct {
		idx         int
		enlargement float64
		area        float64
	}
	candidates := make([]scored, n)
	for i, e := range entries {
		candidates[i] = scored{idx: i, enlargement: e.MBR.Enlargement(mbr), area: e.MBR.GetArea()}
	}

	// Sort ascending by enlargement, tie-break smaller area.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0; j-- {
			a, b := candidates[j-1], candidates[j]
			if a.enlargement < b.enlargement || (a.enlargement == b.enlargement && a.area <= b.area) {
				break
			}
			candidates[j-1], candidates[j] = candidates[j], candidates[j-1]
		}
	}

	limit := n
	if candidates[0].enlargement > 0 && n > cfg.NearMinimumOverlapFactor {
		limit = cfg.NearMinimumOverlapFactor
	}

	best := candidates[0].idx
	bestOverlap := overlapCost(entries, best, mbr)
	bestEnlargement := candidates[0].enlargement
	bestArea := candidates[0].area

	for k := 1; k < limit; k++ {
		idx := candidates[k].idx
		overlap := overlapCost(entries, idx, mbr)
		if overlap < bestOverlap ||
			(overlap == bestOverlap && candidates[k].enlargement < bestEnlargement) ||
			(overlap == bestOverlap && candidates[k].enlargement == bestEnlargement && candidates[k].area < bestArea) {
			best = idx
			bestOverlap = overlap
			bestEnlargement = candidates[k].enlargement
			bestArea = candidates[k].area
		}
	}
	return best
}

// overlapCost sums, over every sibling entry other than candidate,
// the increase in pairwise-overlap area that enlarging candidate's
// MBR by mbr would cause.
func overlapCost(entries []Entry, candidate int, mbr geometry.Region) float64 {
	original := entries[candidate].MBR
	enlarged := original
	enlarged.Combine(mbr)

	total := 0.0
	for i, e := range entries {
		if i == candidate {
			continue
		}
		before := geometry.GetIntersectingArea(original, e.MBR)
		after := geometry.GetIntersectingArea(enlarged, e.MBR)
		total += after - before
	}
	return total
}
