package media

import (
	"localdrop/internal/domain/media"
)

// URLFunc maps an identifier to the URL its bytes are served from.
type URLFunc func(identifier string) string

func ToResponseFile(rec media.FileRecord, urlFor URLFunc) File {
	return File{
		URL:   urlFor(rec.Identifier),
		Name:  rec.DisplayName,
		Type:  rec.Kind.WireType(),
		MTime: rec.CreatedAtMillis,
	}
}

func ToResponseFiles(snap media.Snapshot, urlFor URLFunc) Files {
	fs := make(Files, len(snap))
	for idx, r := range snap {
		fs[idx] = ToResponseFile(r, urlFor)
	}

	return fs
}

func ToResponseTiles(tiles []media.Tile, urlFor URLFunc) Files {
	fs := make(Files, len(tiles))
	for idx, t := range tiles {
		fs[idx] = File{
			URL:   urlFor(t.Identifier),
			Name:  t.DisplayName,
			Type:  t.Kind.WireType(),
			MTime: t.Millis,
		}
	}

	return fs
}

func ToNewFile(t media.Tile, urlFor URLFunc) NewFile {
	return NewFile{
		URL:  urlFor(t.Identifier),
		Name: t.DisplayName,
		Type: t.Kind.WireType(),
	}
}
