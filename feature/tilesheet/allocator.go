package tilesheet

// DefaultLayerCapacity is the ring bound per layer: once a layer's spiral
// reaches this ring, new tiles go to the next layer.
const DefaultLayerCapacity = 64

// Allocator assigns every tile name a stable position in the sparse layered
// grid. The spiral cursor only ever advances, so given the same occupancy
// set, repeated runs hand out identical positions to new names regardless of
// how many times already-known names are looked up.
type Allocator struct {
	ring     int
	offset   int
	layer    int
	layerCap int
	occupied map[TilePos]struct{}
	lookup   map[string]TilePos
}

// NewAllocator creates an empty allocator. layerCap bounds the spiral ring
// per layer; values below 1 fall back to DefaultLayerCapacity.
func NewAllocator(layerCap int) *Allocator {
	if layerCap < 1 {
		layerCap = DefaultLayerCapacity
	}
	return &Allocator{
		layerCap: layerCap,
		occupied: make(map[TilePos]struct{}),
		lookup:   make(map[string]TilePos),
	}
}

// Claim seeds an assignment imported from the registry.
func (a *Allocator) Claim(name string, pos TilePos) {
	a.occupied[pos] = struct{}{}
	a.lookup[name] = pos
}

// Lookup returns the existing assignment for name, if any.
func (a *Allocator) Lookup(name string) (TilePos, bool) {
	pos, ok := a.lookup[name]
	return pos, ok
}

// Free releases a name's position so a later allocation may reuse it.
func (a *Allocator) Free(name string) {
	pos, ok := a.lookup[name]
	if !ok {
		return
	}
	delete(a.lookup, name)
	delete(a.occupied, pos)
}

// Allocate returns name's position, assigning the next free spiral slot when
// the name has none. An occupied candidate is the normal case driving the
// search forward, never an error.
func (a *Allocator) Allocate(name string) TilePos {
	if pos, ok := a.lookup[name]; ok {
		return pos
	}
	for {
		var cand TilePos
		if a.offset < a.ring {
			cand = TilePos{X: a.ring, Y: a.offset, Z: a.layer}
		} else {
			cand = TilePos{X: a.offset - a.ring, Y: a.ring, Z: a.layer}
		}
		if _, taken := a.occupied[cand]; !taken {
			a.occupied[cand] = struct{}{}
			a.lookup[name] = cand
			return cand
		}
		a.advance()
	}
}

// advance steps the spiral cursor: along the current ring, then outward, then
// onto the next layer once the ring bound is reached. Layers are unbounded.
func (a *Allocator) advance() {
	a.offset++
	if a.offset > 2*a.ring {
		a.offset = 0
		a.ring++
		if a.ring >= a.layerCap {
			a.ring = 0
			a.layer++
		}
	}
}
