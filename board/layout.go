package board

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/lafriks/go-tiled"
)

// ErrInvalidLayout is returned for maps that cannot be used as a board.
var ErrInvalidLayout = errors.New("invalid board layout")

const (
	layerBlocked = "blocked"
	groupMarkers = "markers"
	markerStart  = "start"
	markerDest   = "dest"
)

// LoadLayout builds a board from a Tiled map. Every non-empty tile of the
// "blocked" layer becomes a wall; the "start" and "dest" objects of the
// "markers" group place the route ends. It takes an fs.FS so callers can
// pass embed.FS or os.DirFS.
func LoadLayout(fsys fs.FS, tmxPath string) (*Board, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("%w: load TMX %s: %w", ErrInvalidLayout, tmxPath, err)
	}
	if levelMap.Width <= 0 || levelMap.Height <= 0 || levelMap.Width > 256 || levelMap.Height > 256 {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrInvalidLayout, tmxPath, levelMap.Width, levelMap.Height)
	}
	if levelMap.TileWidth <= 0 || levelMap.TileHeight <= 0 {
		return nil, fmt.Errorf("%w: %s has %dx%d tiles", ErrInvalidLayout, tmxPath, levelMap.TileWidth, levelMap.TileHeight)
	}

	b := &Board{
		Width:  levelMap.Width,
		Height: levelMap.Height,
		Cells:  make([]Cell, levelMap.Width*levelMap.Height),
	}

	for _, layer := range levelMap.Layers {
		if layer.Name != layerBlocked {
			continue
		}
		if err := blockTiles(b, layer.Tiles); err != nil {
			return nil, fmt.Errorf("%s: %w", tmxPath, err)
		}
		break
	}

	var haveStart, haveDest bool
	for _, og := range levelMap.ObjectGroups {
		if og.Name != groupMarkers {
			continue
		}
		for _, o := range og.Objects {
			p := Point{
				X: int(o.X) / levelMap.TileWidth,
				Y: int(o.Y) / levelMap.TileHeight,
			}
			switch o.Name {
			case markerStart:
				b.Start, haveStart = p, true
			case markerDest:
				b.Dest, haveDest = p, true
			}
		}
	}

	if !haveStart || !haveDest {
		return nil, fmt.Errorf("%w: %s needs %q and %q markers", ErrInvalidLayout, tmxPath, markerStart, markerDest)
	}
	if !b.InBounds(b.Start) || !b.InBounds(b.Dest) {
		return nil, fmt.Errorf("%w: %s has a marker outside the map", ErrInvalidLayout, tmxPath)
	}
	if !b.Connected() {
		return nil, fmt.Errorf("%w: %s has no route from start to dest", ErrInvalidLayout, tmxPath)
	}

	return b, nil
}

// blockTiles walls off every cell whose tile is set. Infinite maps store
// their tiles in chunks and leave fewer tiles than cells.
func blockTiles(b *Board, tiles []*tiled.LayerTile) error {
	if len(tiles) < len(b.Cells) {
		return fmt.Errorf("%w: layer %q has %d tiles for %d cells", ErrInvalidLayout, layerBlocked, len(tiles), len(b.Cells))
	}
	for i := range b.Cells {
		if tiles[i] == nil || tiles[i].IsNil() {
			continue
		}
		b.Block(i)
	}
	return nil
}
