package board

import (
	"github.com/automoto/ld51/config"
)

// Point is a cell coordinate, origin top-left.
type Point = config.Point

// Cell is one square of the board. Walls and turrets both fill a cell;
// only turrets can be sold.
type Cell struct {
	Filled bool
	Turret bool
}

// Board is the grid enemies cross from Start to Dest.
type Board struct {
	Width  int
	Height int
	Start  Point
	Dest   Point
	Cells  []Cell
}

// New returns an empty board with the given geometry.
func New(c config.BoardConfig) *Board {
	return &Board{
		Width:  c.Width,
		Height: c.Height,
		Start:  c.Start,
		Dest:   c.Dest,
		Cells:  make([]Cell, c.Width*c.Height),
	}
}

// Index returns the cell index of p. Coordinates outside the board are
// clamped to the nearest edge.
func (b *Board) Index(p Point) int {
	x := clamp(p.X, 0, b.Width-1)
	y := clamp(p.Y, 0, b.Height-1)
	return x + y*b.Width
}

// IndexXY is Index for the byte coordinates carried by actions.
func (b *Board) IndexXY(x, y uint8) int {
	return b.Index(Point{X: int(x), Y: int(y)})
}

// Point returns the coordinate of cell idx.
func (b *Board) Point(idx int) Point {
	return Point{X: idx % b.Width, Y: idx / b.Width}
}

// InBounds reports whether p lies on the board.
func (b *Board) InBounds(p Point) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Open reports whether p is on the board and not filled.
func (b *Board) Open(p Point) bool {
	return b.InBounds(p) && !b.Cells[p.X+p.Y*b.Width].Filled
}

// CanPlace reports whether a turret may be built on cell idx: the cell is
// open, is not the start cell, and filling it keeps Dest reachable.
// The board is left unchanged.
func (b *Board) CanPlace(idx int) bool {
	if idx < 0 || idx >= len(b.Cells) {
		return false
	}
	if b.Cells[idx].Filled || idx == b.Index(b.Start) {
		return false
	}

	b.Cells[idx].Filled = true
	ok := b.Connected()
	b.Cells[idx].Filled = false
	return ok
}

// Occupy fills cell idx with a turret.
func (b *Board) Occupy(idx int) {
	b.Cells[idx] = Cell{Filled: true, Turret: true}
}

// Block fills cell idx with a wall.
func (b *Board) Block(idx int) {
	b.Cells[idx] = Cell{Filled: true}
}

// Vacate empties cell idx.
func (b *Board) Vacate(idx int) {
	b.Cells[idx] = Cell{}
}

// HasTurret reports whether cell idx holds a turret.
func (b *Board) HasTurret(idx int) bool {
	return idx >= 0 && idx < len(b.Cells) && b.Cells[idx].Turret
}

// Clone returns a deep copy of b.
func (b *Board) Clone() *Board {
	c := *b
	c.Cells = make([]Cell, len(b.Cells))
	copy(c.Cells, b.Cells)
	return &c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
