package pagetree

// Layout constants, in graph canvas units.
const (
	// LayoutCenterX is the x-coordinate of a branchless vertical stack.
	LayoutCenterX = 400.0

	// LayoutStartY is the y-coordinate of the first node.
	LayoutStartY = 80.0

	// VSpacing is the vertical distance between consecutive nodes.
	VSpacing = 120.0

	// BranchGap is the horizontal width reserved for a leaf branch.
	BranchGap = 250.0
)

// Point is a computed node position.
type Point struct {
	X float64
	Y float64
}

// ComputePositions computes a position for every node of the page tree.
//
// The function is pure: it reads the tree and returns a fresh slice
// aligned with the pre-order of [Flatten], so positions[i] belongs to
// Flatten(t).Specs[i].
//
// A page without branches is a vertical stack at a fixed center x. A node
// with branches splits the horizontal space beneath it: each branch is as
// wide as the sum of its own nested branch widths (a fixed gap for leaf
// branches), siblings are centered around the parent's x in declaration
// order, and the page's subsequent nodes resume below the deepest y any
// branch reached, so parallel branches never overlap their re-converged
// continuation.
func ComputePositions(t *Tree) []Point {
	bases, total := t.indexBases()
	pts := make([]Point, total)
	layoutTree(t, LayoutCenterX, LayoutStartY, bases, pts)
	return pts
}

// branchSpan returns the horizontal width a subtree claims.
func branchSpan(t *Tree) float64 {
	if len(t.Branches) == 0 {
		return BranchGap
	}
	span := 0.0
	for _, b := range t.Branches {
		span += branchSpan(b.Child)
	}
	return span
}

// layoutTree positions the tree's nodes around centerX starting at startY
// and returns the deepest y it placed a node at.
func layoutTree(t *Tree, centerX, startY float64, bases map[*Tree]int, pts []Point) float64 {
	base := bases[t]
	y := startY
	maxY := startY

	for i := range t.Specs {
		pts[base+i] = Point{X: centerX, Y: y}
		maxY = y

		branches := t.branchesOf(i)
		if len(branches) == 0 {
			y += VSpacing
			continue
		}

		total := 0.0
		for _, b := range branches {
			total += branchSpan(b.Child)
		}

		x := centerX - total/2
		deepest := y
		for _, b := range branches {
			w := branchSpan(b.Child)
			subMax := layoutTree(b.Child, x+w/2, y+VSpacing, bases, pts)
			if subMax > deepest {
				deepest = subMax
			}
			x += w
		}
		maxY = deepest
		y = deepest + VSpacing
	}

	return maxY
}
