package media

import (
	"path"
	"strings"
)

// Kind is a best-effort classification derived from the identifier's
// extension only. A file with a misleading extension is misclassified
// silently; the content is never inspected.
type Kind int

const (
	KindOther Kind = iota
	KindImage
	KindVideo
)

var extKinds = map[string]Kind{
	".jpg": KindImage, ".jpeg": KindImage, ".png": KindImage, ".gif": KindImage,
	".webp": KindImage, ".heic": KindImage, ".heif": KindImage, ".avif": KindImage,
	".bmp": KindImage,
	".mp4": KindVideo, ".webm": KindVideo, ".mov": KindVideo, ".m4v": KindVideo,
}

func KindOf(identifier string) Kind {
	return extKinds[strings.ToLower(path.Ext(identifier))]
}

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "other"
	}
}

// WireType is the coarse MIME pattern the gallery uses to pick a renderer.
func (k Kind) WireType() string {
	switch k {
	case KindImage:
		return "image/*"
	case KindVideo:
		return "video/*"
	default:
		return "application/octet-stream"
	}
}
