package board

import (
	astar "github.com/beefsack/go-astar"
)

// tile adapts a board cell to astar.Pather. It is a comparable value so
// the search can key its node map on it.
type tile struct {
	b *Board
	p Point
}

var moves = []struct{ dx, dy int }{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1}, // Cardinal
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1}, // Diagonal
}

// PathNeighbors returns the open cells reachable in one move (implements astar.Pather).
// A diagonal move needs both orthogonal cells it passes between to be open.
func (t tile) PathNeighbors() []astar.Pather {
	var neighbors []astar.Pather

	for _, d := range moves {
		n := Point{X: t.p.X + d.dx, Y: t.p.Y + d.dy}
		if !t.b.Open(n) {
			continue
		}
		if d.dx != 0 && d.dy != 0 {
			if !t.b.Open(Point{X: t.p.X + d.dx, Y: t.p.Y}) || !t.b.Open(Point{X: t.p.X, Y: t.p.Y + d.dy}) {
				continue
			}
		}
		neighbors = append(neighbors, tile{b: t.b, p: n})
	}

	return neighbors
}

// PathNeighborCost is uniform: a diagonal step costs the same as a straight one.
func (t tile) PathNeighborCost(to astar.Pather) float64 {
	return 1
}

// PathEstimatedCost returns the Chebyshev distance to the target (implements astar.Pather).
func (t tile) PathEstimatedCost(to astar.Pather) float64 {
	o := to.(tile)
	dx := absInt(o.p.X - t.p.X)
	dy := absInt(o.p.Y - t.p.Y)
	return float64(max(dx, dy))
}

// Path returns the cells of a shortest route from one cell to another,
// both ends included. Found is false when either end is filled or no route
// exists.
func (b *Board) Path(from, to Point) (path []Point, found bool) {
	if !b.Open(from) || !b.Open(to) {
		return nil, false
	}
	if from == to {
		return []Point{from}, true
	}

	steps, _, found := astar.Path(tile{b: b, p: from}, tile{b: b, p: to})
	if !found {
		return nil, false
	}

	path = make([]Point, len(steps))
	for i, s := range steps {
		path[i] = s.(tile).p
	}
	// The search reports the route goal-first.
	if path[0] != from {
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
	}
	return path, true
}

// Route returns the current Start to Dest path.
func (b *Board) Route() ([]Point, bool) {
	return b.Path(b.Start, b.Dest)
}

// Connected reports whether Dest is reachable from Start.
func (b *Board) Connected() bool {
	_, found := b.Route()
	return found
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
