package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(ids ...string) Snapshot {
	snap := make(Snapshot, 0, len(ids))
	for i, id := range ids {
		snap = append(snap, FileRecord{
			Identifier:      id,
			DisplayName:     id,
			Kind:            KindOf(id),
			CreatedAtMillis: int64(1000 - i),
		})
	}
	return snap
}

func identifiers(tiles []Tile) []string {
	out := make([]string, len(tiles))
	for i, t := range tiles {
		out[i] = t.Identifier
	}
	return out
}

func TestNewViewerState_KeepsSnapshotOrder(t *testing.T) {
	s := NewViewerState(snapshotOf("3-c.png", "2-b.png", "1-a.png"))

	require.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"3-c.png", "2-b.png", "1-a.png"}, identifiers(s.Tiles()))
	assert.True(t, s.Contains("2-b.png"))
	assert.False(t, s.Contains("4-d.png"))
}

func TestNewViewerState_Empty(t *testing.T) {
	s := NewViewerState(nil)

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Tiles())
}

func TestViewerState_Apply(t *testing.T) {
	t.Run("new identifier is prepended", func(t *testing.T) {
		s := NewViewerState(snapshotOf("2-b.png", "1-a.png"))

		tile, fresh := s.Apply(UploadEvent{Identifier: "3-c.mp4", DisplayName: "c.mp4", Kind: KindVideo, Seq: 7, ObservedAtMillis: 42})
		require.True(t, fresh)
		assert.Equal(t, "3-c.mp4", tile.Identifier)
		assert.True(t, tile.Live)
		assert.Equal(t, int64(42), tile.Millis)
		assert.Equal(t, []string{"3-c.mp4", "2-b.png", "1-a.png"}, identifiers(s.Tiles()))
		assert.Equal(t, uint64(1), s.Merged())
		assert.Equal(t, uint64(7), s.LastSeq())
	})

	t.Run("event for a snapshot item is discarded", func(t *testing.T) {
		s := NewViewerState(snapshotOf("2-b.png", "1-a.png"))

		_, fresh := s.Apply(UploadEvent{Identifier: "2-b.png", Seq: 3})
		assert.False(t, fresh)
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, uint64(0), s.Merged())
		assert.Equal(t, uint64(3), s.LastSeq())
	})

	t.Run("repeated event is discarded", func(t *testing.T) {
		s := NewViewerState(nil)

		_, fresh := s.Apply(UploadEvent{Identifier: "1-a.png", Seq: 1})
		require.True(t, fresh)
		_, fresh = s.Apply(UploadEvent{Identifier: "1-a.png", Seq: 1})
		assert.False(t, fresh)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("events stack newest first", func(t *testing.T) {
		s := NewViewerState(snapshotOf("1-a.png"))

		for i, id := range []string{"2-b.png", "3-c.png", "4-d.png"} {
			_, fresh := s.Apply(UploadEvent{Identifier: id, Seq: uint64(i + 1)})
			require.True(t, fresh)
		}
		assert.Equal(t, []string{"4-d.png", "3-c.png", "2-b.png", "1-a.png"}, identifiers(s.Tiles()))
	})
}

func TestNewUploadEvent(t *testing.T) {
	rec := FileRecord{Identifier: "17-My_Pic_.JPG", DisplayName: "My Pic!.JPG", SizeBytes: 10, CreatedAtMillis: 17}

	ev := NewUploadEvent(rec)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, rec.Identifier, ev.Identifier)
	assert.Equal(t, rec.DisplayName, ev.DisplayName)
	assert.Equal(t, KindImage, ev.Kind)
	assert.Zero(t, ev.Seq)
}

func TestErrors_Unwrap(t *testing.T) {
	var err error = &StorageError{Op: "put", Identifier: "x", Err: ErrAlreadyExists}
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Contains(t, err.Error(), `"x"`)

	err = &ValidationError{Field: "file", Err: ErrEmptyContent}
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, "invalid file: empty content", err.Error())

	err = &SessionError{Err: err}
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}
