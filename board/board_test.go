package board

import (
	"io/fs"
	"os"
	"testing"

	"github.com/lafriks/go-tiled"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automoto/ld51/config"
)

func newDefault() *Board {
	return New(config.Board)
}

func TestIndexClamps(t *testing.T) {
	b := newDefault()

	assert.Equal(t, 5+5*24, b.Index(Point{X: 5, Y: 5}))
	assert.Equal(t, 0, b.Index(Point{X: -3, Y: -1}))
	assert.Equal(t, 23+23*24, b.Index(Point{X: 40, Y: 99}))
	assert.Equal(t, 23+2*24, b.IndexXY(255, 2))
	assert.Equal(t, Point{X: 5, Y: 5}, b.Point(5+5*24))
}

func TestRouteOnEmptyBoard(t *testing.T) {
	b := newDefault()

	path, found := b.Route()
	require.True(t, found)
	assert.Equal(t, b.Start, path[0])
	assert.Equal(t, b.Dest, path[len(path)-1])
	assert.Len(t, path, 23, "diagonal route from (0,0) to (22,22)")
}

func TestDiagonalNeedsBothSidesOpen(t *testing.T) {
	b := New(config.BoardConfig{Width: 2, Height: 2, Start: Point{}, Dest: Point{X: 1, Y: 1}})
	assert.True(t, b.Connected())

	b.Block(b.Index(Point{X: 1, Y: 0}))
	assert.True(t, b.Connected(), "still reachable through (0,1)")

	b.Block(b.Index(Point{X: 0, Y: 1}))
	assert.False(t, b.Connected(), "no squeezing between two walls")
}

func TestCanPlaceRejectsFilledAndStart(t *testing.T) {
	b := newDefault()
	idx := b.Index(Point{X: 5, Y: 5})

	assert.True(t, b.CanPlace(idx))
	b.Occupy(idx)
	assert.False(t, b.CanPlace(idx))
	assert.False(t, b.CanPlace(b.Index(b.Start)))
	assert.False(t, b.CanPlace(-1))
	assert.False(t, b.CanPlace(len(b.Cells)))
}

func TestCanPlaceKeepsLastGap(t *testing.T) {
	b := newDefault()
	// Wall across row 10 with a single gap at x=7.
	for x := 0; x < b.Width; x++ {
		if x == 7 {
			continue
		}
		b.Block(b.Index(Point{X: x, Y: 10}))
	}
	require.True(t, b.Connected())

	gap := b.Index(Point{X: 7, Y: 10})
	before := b.Clone()

	assert.False(t, b.CanPlace(gap))
	assert.Equal(t, before.Cells, b.Cells, "provisional fill is reverted")
	assert.True(t, b.CanPlace(b.Index(Point{X: 7, Y: 12})))
}

func TestCanPlaceRejectsDest(t *testing.T) {
	b := newDefault()
	assert.False(t, b.CanPlace(b.Index(b.Dest)))
}

func TestVacateAndHasTurret(t *testing.T) {
	b := newDefault()
	idx := b.Index(Point{X: 3, Y: 4})

	b.Occupy(idx)
	assert.True(t, b.HasTurret(idx))
	b.Vacate(idx)
	assert.False(t, b.HasTurret(idx))
	assert.False(t, b.Cells[idx].Filled)

	wall := b.Index(Point{X: 4, Y: 4})
	b.Block(wall)
	assert.False(t, b.HasTurret(wall))
}

func TestCloneIsDeep(t *testing.T) {
	b := newDefault()
	c := b.Clone()
	c.Occupy(c.Index(Point{X: 1, Y: 1}))
	assert.False(t, b.Cells[b.Index(Point{X: 1, Y: 1})].Filled)
}

func TestLoadLayout(t *testing.T) {
	b, err := LoadLayout(os.DirFS("testdata"), "corridor.tmx")
	require.NoError(t, err)

	assert.Equal(t, 6, b.Width)
	assert.Equal(t, 6, b.Height)
	assert.Equal(t, Point{X: 0, Y: 0}, b.Start)
	assert.Equal(t, Point{X: 5, Y: 5}, b.Dest)
	assert.True(t, b.Cells[b.Index(Point{X: 0, Y: 1})].Filled)
	assert.False(t, b.Cells[b.Index(Point{X: 0, Y: 1})].Turret)

	path, found := b.Route()
	require.True(t, found)
	assert.Contains(t, path, Point{X: 4, Y: 1})

	assert.False(t, b.CanPlace(b.Index(Point{X: 4, Y: 1})), "only gap in the first wall")
	assert.True(t, b.CanPlace(b.Index(Point{X: 5, Y: 0})))
}

func TestLoadLayoutRejectsClosedMap(t *testing.T) {
	_, err := LoadLayout(os.DirFS("testdata"), "walled.tmx")
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = LoadLayout(os.DirFS("testdata"), "missing.tmx")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadLayoutRejectsZeroTileSize(t *testing.T) {
	_, err := LoadLayout(os.DirFS("testdata"), "zero_tiles.tmx")
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestBlockTilesRejectsShortLayer(t *testing.T) {
	b := New(config.BoardConfig{Width: 3, Height: 3, Dest: Point{X: 2, Y: 2}})
	tiles := make([]*tiled.LayerTile, 4)

	var err error
	assert.NotPanics(t, func() { err = blockTiles(b, tiles) })
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestBlockTilesSkipsMissingTiles(t *testing.T) {
	b := New(config.BoardConfig{Width: 2, Height: 1, Dest: Point{X: 1, Y: 0}})
	tiles := []*tiled.LayerTile{nil, {Nil: true}}

	require.NoError(t, blockTiles(b, tiles))
	assert.False(t, b.Cells[0].Filled)
	assert.False(t, b.Cells[1].Filled)
}
