package media

// ViewerState is the reconciled gallery of one viewer session: the initial
// snapshot plus every live event not already present, keyed by identifier.
// It is owned by a single session and is not safe for concurrent use.
type ViewerState struct {
	seen map[string]struct{}
	// oldest first, so that prepending a live tile is an append
	tiles   []Tile
	merged  uint64
	lastSeq uint64
}

func NewViewerState(snap Snapshot) *ViewerState {
	s := &ViewerState{
		seen:  make(map[string]struct{}, len(snap)),
		tiles: make([]Tile, 0, len(snap)),
	}
	for i := len(snap) - 1; i >= 0; i-- {
		rec := snap[i]
		if _, dup := s.seen[rec.Identifier]; dup {
			continue
		}
		s.seen[rec.Identifier] = struct{}{}
		s.tiles = append(s.tiles, rec.Tile())
	}

	return s
}

// Apply merges a live event. It reports false for a duplicate of an item
// already shown, which leaves the state untouched.
func (s *ViewerState) Apply(ev UploadEvent) (Tile, bool) {
	if ev.Seq > s.lastSeq {
		s.lastSeq = ev.Seq
	}
	if _, dup := s.seen[ev.Identifier]; dup {
		return Tile{}, false
	}

	t := ev.Tile()
	s.seen[ev.Identifier] = struct{}{}
	s.tiles = append(s.tiles, t)
	s.merged++

	return t, true
}

func (s *ViewerState) Contains(identifier string) bool {
	_, ok := s.seen[identifier]
	return ok
}

func (s *ViewerState) Len() int { return len(s.tiles) }

// Merged is the number of live events that added a tile.
func (s *ViewerState) Merged() uint64 { return s.merged }

// LastSeq is the highest bus sequence number observed, duplicates included.
func (s *ViewerState) LastSeq() uint64 { return s.lastSeq }

// Tiles returns the gallery newest first.
func (s *ViewerState) Tiles() []Tile {
	out := make([]Tile, len(s.tiles))
	for i, t := range s.tiles {
		out[len(s.tiles)-1-i] = t
	}
	return out
}
