package services

import (
	"mime"
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxBaseNameLen  = 100
	maxExtLen       = 10
	placeholderName = "file"
)

// preferredExt overrides mime.ExtensionsByType, which returns extensions
// in lexical order (".jfif" before ".jpg").
var preferredExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
	"image/heif":      ".heif",
	"image/avif":      ".avif",
	"image/bmp":       ".bmp",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
	"video/x-m4v":     ".m4v",
}

// Sanitizer turns client file names into storage identifiers of the form
// "<token>-<safe name>". Tokens are millisecond timestamps bumped to stay
// strictly increasing, so identical names never collide within a process.
type Sanitizer struct {
	last atomic.Int64
	now  func() time.Time
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{now: time.Now}
}

func (s *Sanitizer) Sanitize(raw string) string {
	return strconv.FormatInt(s.nextToken(), 10) + "-" + SafeName(raw)
}

// Observe makes later tokens greater than the token of an existing
// identifier. Identifiers without a numeric token are ignored.
func (s *Sanitizer) Observe(identifier string) {
	prefix, _, found := strings.Cut(identifier, "-")
	if !found {
		return
	}
	token, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || token <= 0 {
		return
	}
	for {
		last := s.last.Load()
		if token <= last || s.last.CompareAndSwap(last, token) {
			return
		}
	}
}

func (s *Sanitizer) nextToken() int64 {
	now := s.now().UnixMilli()
	for {
		last := s.last.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if s.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// SafeName reduces raw to its final path element folded to [A-Za-z0-9._-].
// Every rune outside [A-Za-z0-9.-] becomes '_'. The result is never empty.
func SafeName(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)
	if s == "." || s == ".." || s == "/" {
		return placeholderName
	}

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s = b.String()

	// a bare ".jpg" keeps its extension; only the base loses leading dots
	ext := path.Ext(s)
	if len(ext) > maxExtLen || ext == "." {
		ext = ""
	}
	base := strings.TrimLeft(strings.TrimSuffix(s, ext), ".")
	if len(base) > maxBaseNameLen {
		base = base[:maxBaseNameLen]
	}
	if strings.Trim(base, "_") == "" && ext == "" {
		base = placeholderName
	}
	if base == "" {
		base = placeholderName
	}

	return base + ext
}

// withHintedExt appends an extension derived from the client's MIME hint
// when name has none.
func withHintedExt(name, mimeHint string) string {
	if path.Ext(name) != "" || mimeHint == "" {
		return name
	}
	mediaType, _, err := mime.ParseMediaType(mimeHint)
	if err != nil {
		return name
	}
	if ext, ok := preferredExt[mediaType]; ok {
		return name + ext
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 && SafeName(exts[0][1:]) == exts[0][1:] {
		return name + exts[0]
	}
	return name
}

func isMn(r rune) bool { return unicode.Is(unicode.Mn, r) }
