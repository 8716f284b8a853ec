package rtree

import "github.com/rtreedb/rtreedb/geometry"

// splitEntries partitions capacity+1 entries (the node's existing
// children plus the newly inserted one, placed in an oversized slot)
// into two groups per spec.md §4.D Split.
func splitEntries(cfg Config, entries []Entry, capacity int) (left, right []Entry) {
	if cfg.Variant == VariantRStar {
		return rStarSplit(cfg, entries, capacity)
	}
	return rTreeSplit(cfg, entries, capacity)
}

// pickSeedsLinear implements the Linear PickSeeds rule: per dimension,
// the entry with the greatest low and the one with the smallest high,
// normalized by that dimension's width; the pair with maximum
// separation across dimensions wins.
func pickSeedsLinear(entries []Entry) (int, int) {
	bestSeparation := negInf
	seed1, seed2 := 0, 1

	for d := 0; d < geometry.Dimensions; d++ {
		maxLowIdx, minHighIdx := 0, 0
		maxHigh, minLow := entries[0].MBR.High[d], entries[0].MBR.Low[d]

		for i := 1; i < len(entries); i++ {
			if entries[i].MBR.Low[d] > entries[maxLowIdx].MBR.Low[d] {
				maxLowIdx = i
			}
			if entries[i].MBR.High[d] < entries[minHighIdx].MBR.High[d] {
				minHighIdx = i
			}
			if entries[i].MBR.High[d] > maxHigh {
				maxHigh = entries[i].MBR.High[d]
			}
			if entries[i].MBR.Low[d] < minLow {
				minLow = entries[i].MBR.Low[d]
			}
		}

		width := maxHigh - minLow
		if width <= 0 {
			width = 1
		}
		separation := (entries[maxLowIdx].MBR.Low[d] - entries[minHighIdx].MBR.High[d]) / width
		if separation > bestSeparation {
			bestSeparation = separation
			seed1, seed2 = maxLowIdx, minHighIdx
		}
	}

	if seed1 == seed2 {
		seed2 = (seed2 + 1) % len(entries)
	}
	return seed1, seed2
}

// pickSeedsQuadratic implements the Quadratic PickSeeds rule: the
// unordered pair maximizing the "inefficiency" of grouping them
// together, area(i ∪ j) - area(i) - area(j).
func pickSeedsQuadratic(entries []Entry) (int, int) {
	bestInefficiency := negInf
	seed1, seed2 := 0, 1

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			combined := entries[i].MBR
			combined.Combine(entries[j].MBR)
			inefficiency := combined.GetArea() - entries[i].MBR.GetArea() - entries[j].MBR.GetArea()
			if inefficiency > bestInefficiency {
				bestInefficiency = inefficiency
				seed1, seed2 = i, j
			}
		}
	}
	return seed1, seed2
}

const negInf = -1e308

// rTreeSplit implements Guttman's linear and quadratic split: seed two
// groups, then repeatedly assign the remaining entries one at a time.
func rTreeSplit(cfg Config, entries []Entry, capacity int) (left, right []Entry) {
	var seed1, seed2 int
	if cfg.Variant == VariantQuadratic {
		seed1, seed2 = pickSeedsQuadratic(entries)
	} else {
		seed1, seed2 = pickSeedsLinear(entries)
	}

	leftMBR := entries[seed1].MBR
	rightMBR := entries[seed2].MBR
	left = append(left, entries[seed1].Clone())
	right = append(right, entries[seed2].Clone())

	remaining := make([]Entry, 0, len(entries)-2)
	for i, e := range entries {
		if i != seed1 && i != seed2 {
			remaining = append(remaining, e)
		}
	}

	minimumLoad := cfg.minimumLoad(capacity)

	for len(remaining) > 0 {
		// If assigning every remaining entry to one group is the only
		// way to reach minimum_load, do so and stop.
		if len(left)+len(remaining) == minimumLoad {
			leftMBR = appendAll(&left, leftMBR, remaining)
			remaining = nil
			break
		}
		if len(right)+len(remaining) == minimumLoad {
			rightMBR = appendAll(&right, rightMBR, remaining)
			remaining = nil
			break
		}

		idx := 0
		if cfg.Variant == VariantQuadratic {
			idx = pickNextQuadratic(remaining, leftMBR, rightMBR)
		}
		// Linear: always take the next entry in scan order without
		// comparing alternatives.

		e := remaining[idx]
		d1 := leftMBR.Enlargement(e.MBR)
		d2 := rightMBR.Enlargement(e.MBR)

		assignLeft := d1 < d2
		if d1 == d2 {
			leftArea, rightArea := leftMBR.GetArea(), rightMBR.GetArea()
			switch {
			case leftArea != rightArea:
				assignLeft = leftArea < rightArea
			case len(left) != len(right):
				assignLeft = len(left) < len(right)
			default:
				assignLeft = true
			}
		}

		if assignLeft {
			left = append(left, e.Clone())
			leftMBR.Combine(e.MBR)
		} else {
			right = append(right, e.Clone())
			rightMBR.Combine(e.MBR)
		}
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	return left, right
}

func appendAll(group *[]Entry, mbr geometry.Region, entries []Entry) geometry.Region {
	for _, e := range entries {
		*group = append(*group, e.Clone())
		mbr.Combine(e.MBR)
	}
	return mbr
}

// pickNextQuadratic scans every remaining entry and returns the index
// of the one maximizing |d1 - d2|, the full-scan step quadratic split
// performs on every iteration (unlike linear, which takes entries in
// order without comparison).
func pickNextQuadratic(remaining []Entry, leftMBR, rightMBR geometry.Region) int {
	best := 0
	bestDiff := -1.0
	for i, e := range remaining {
		d1 := leftMBR.Enlargement(e.MBR)
		d2 := rightMBR.Enlargement(e.MBR)
		diff := d1 - d2
		if diff < 0 {
			diff = -diff
		}
		if diff > bestDiff {
			bestDiff = diff
			best = i
		}
	}
	return best
}

// rStarSplit implements the margin-based R* split: ChooseSplitAxis
// picks the dimension and entry ordering minimizing the sum of
// candidate-distribution margins; ChooseSplitIndex then picks the
// split position along that axis minimizing overlap (tie-break: total
// area).
func rStarSplit(cfg Config, entries []Entry, capacity int) (left, right []Entry) {
	n := len(entries)
	nodeSPF := int(float64(n) * cfg.SplitDistributionFactor)
	if nodeSPF < 1 {
		nodeSPF = 1
	}
	distribution := n - 2*nodeSPF + 2
	if distribution < 1 {
		distribution = 1
	}

	bestMargin := 1e308
	var bestOrder []Entry

	tryOrdering := func(order []Entry) {
		total := 0.0
		for k := nodeSPF; k < nodeSPF+distribution; k++ {
			if k <= 0 || k >= n {
				continue
			}
			r1 := mbrOf(order[:k])
			r2 := mbrOf(order[k:])
			total += r1.GetMargin() + r2.GetMargin()
		}
		if total < bestMargin {
			bestMargin = total
			bestOrder = order
		}
	}

	for d := 0; d < geometry.Dimensions; d++ {
		byLow := sortedByLow(entries, d)
		byHigh := sortedByHigh(entries, d)
		tryOrdering(byLow)
		tryOrdering(byHigh)
	}

	bestOverlap := 1e308
	bestArea := 1e308
	bestK := nodeSPF

	for k := nodeSPF; k < nodeSPF+distribution; k++ {
		if k <= 0 || k >= n {
			continue
		}
		r1 := mbrOf(bestOrder[:k])
		r2 := mbrOf(bestOrder[k:])
		overlap := geometry.GetIntersectingArea(r1, r2)
		area := r1.GetArea() + r2.GetArea()
		if overlap < bestOverlap || (overlap == bestOverlap && area < bestArea) {
			bestOverlap = overlap
			bestArea = area
			bestK = k
		}
	}

	for _, e := range bestOrder[:bestK] {
		left = append(left, e.Clone())
	}
	for _, e := range bestOrder[bestK:] {
		right = append(right, e.Clone())
	}
	return left, right
}

func mbrOf(entries []Entry) geometry.Region {
	mbr := entries[0].MBR
	for _, e := range entries[1:] {
		mbr.Combine(e.MBR)
	}
	return mbr
}

func sortedByLow(entries []Entry, dim int) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].MBR.Low[dim] > out[j].MBR.Low[dim]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func sortedByHigh(entries []Entry, dim int) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].MBR.High[dim] > out[j].MBR.High[dim]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
