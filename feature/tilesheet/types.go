package tilesheet

import (
	"fmt"
	"strings"
)

// TilePos is a tile's coordinate in the sheet grid. Z is the layer index.
// At most one live tile occupies a given position at any time.
type TilePos struct {
	X int
	Y int
	Z int
}

func (p TilePos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Tile is one named icon with its allocated position. ID is the registry's
// persistent identifier, zero until the registry has committed the tile.
type Tile struct {
	Name string
	Pos  TilePos
	ID   int64
}

// illegalNameChars are rejected in tile names: underscores collide with the
// registry's name normalization, and brackets break its query syntax.
const illegalNameChars = "_[]"

// CheckName validates a tile name. A violation is a user-input error and is
// fatal to the whole run; names are never silently coerced.
func CheckName(name string) error {
	if i := strings.IndexAny(name, illegalNameChars); i >= 0 {
		return fmt.Errorf("tile name %q contains illegal character %q (add a rename entry to fix it)", name, name[i])
	}
	return nil
}
