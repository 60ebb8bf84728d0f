package media

import (
	"time"

	"github.com/google/uuid"
)

type (
	// FileRecord is one stored item. Identifier, content and CreatedAtMillis
	// never change once the record exists.
	FileRecord struct {
		Identifier  string
		DisplayName string
		Kind        Kind

		SizeBytes       int64
		CreatedAtMillis int64
	}

	// Snapshot is a newest-first listing of every stored record at one instant.
	Snapshot []FileRecord

	// Blob is the input of BlobStore.Put.
	Blob struct {
		Identifier  string
		DisplayName string
		Content     []byte
	}

	// Upload is a raw request handed to the ingestion service by the transport.
	Upload struct {
		RawName  string
		MimeHint string
		Content  []byte
	}

	// UploadEvent announces a durably stored file. ObservedAtMillis and Seq are
	// stamped by the bus at publish time.
	UploadEvent struct {
		ID          uuid.UUID
		Identifier  string
		DisplayName string
		Kind        Kind

		ObservedAtMillis int64
		Seq              uint64
	}

	// Tile is one item of a viewer's gallery.
	Tile struct {
		Identifier  string
		DisplayName string
		Kind        Kind
		Millis      int64
		Live        bool
	}
)

func NewUploadEvent(rec FileRecord) UploadEvent {
	return UploadEvent{
		ID:          uuid.New(),
		Identifier:  rec.Identifier,
		DisplayName: rec.DisplayName,
		Kind:        KindOf(rec.Identifier),
	}
}

func (r FileRecord) CreatedAt() time.Time { return time.UnixMilli(r.CreatedAtMillis) }

func (r FileRecord) Tile() Tile {
	return Tile{
		Identifier:  r.Identifier,
		DisplayName: r.DisplayName,
		Kind:        r.Kind,
		Millis:      r.CreatedAtMillis,
	}
}

func (e UploadEvent) Tile() Tile {
	return Tile{
		Identifier:  e.Identifier,
		DisplayName: e.DisplayName,
		Kind:        e.Kind,
		Millis:      e.ObservedAtMillis,
		Live:        true,
	}
}
