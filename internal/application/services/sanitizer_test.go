package services

import (
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var safeIdentifier = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func TestSafeName_Table(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"photo.jpg", "photo.jpg"},
		{"My Pic!.JPG", "My_Pic_.JPG"},
		{"", "file"},
		{"   ", "file"},
		{"../../etc/passwd", "passwd"},
		{`..\..\windows\system.ini`, "system.ini"},
		{"..", "file"},
		{"café.png", "cafe.png"},
		{"Ångström résumé.pdf", "Angstrom_resume.pdf"},
		{"a\x00b\x1fc.txt", "a_b_c.txt"},
		{"!!!", "file"},
		{".hidden", "file.hidden"},
		{".jpg", "file.jpg"},
		{".hidden.tar.gz", "hidden.tar.gz"},
		{"...", "file"},
		{"日本.mov", "__.mov"},
		{"clip.mp4.", "clip.mp4."},
	}

	for _, tt := range cases {
		t.Run(tt.raw, func(t *testing.T) {
			got := SafeName(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, safeIdentifier, got)
		})
	}
}

func TestSafeName_TruncatesBaseKeepsExtension(t *testing.T) {
	got := SafeName(strings.Repeat("a", 300) + ".webm")
	assert.Equal(t, strings.Repeat("a", maxBaseNameLen)+".webm", got)
}

func TestSanitizer_OnlySafeAlphabetAndNonEmpty(t *testing.T) {
	s := NewSanitizer()
	for _, raw := range []string{"", "../../etc/passwd", "\x00\x01\x02", "a/b/c", "ü", "/", "C:\\x\\y.png"} {
		got := s.Sanitize(raw)
		require.NotEmpty(t, got)
		assert.Regexp(t, safeIdentifier, got, "raw=%q", raw)
	}
}

func TestSanitizer_TokenStrictlyIncreases(t *testing.T) {
	frozen := time.UnixMilli(5_000)
	s := &Sanitizer{now: func() time.Time { return frozen }}

	assert.Equal(t, "5000-a.jpg", s.Sanitize("a.jpg"))
	assert.Equal(t, "5001-a.jpg", s.Sanitize("a.jpg"))

	// clock going backwards does not reuse tokens
	frozen = time.UnixMilli(1_000)
	assert.Equal(t, "5002-a.jpg", s.Sanitize("a.jpg"))
}

func TestSanitizer_ObserveSkipsPastExistingTokens(t *testing.T) {
	s := &Sanitizer{now: func() time.Time { return time.UnixMilli(1_000) }}

	s.Observe("9000-a.jpg")
	s.Observe("4000-b.jpg")
	s.Observe("file-without-token")
	s.Observe("-1-x")
	s.Observe("noseparator")

	assert.Equal(t, "9001-a.jpg", s.Sanitize("a.jpg"))
}

func TestSanitizer_IdenticalNamesNeverCollide(t *testing.T) {
	s := NewSanitizer()

	const n = 500
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.Sanitize("IMG_0001.HEIC")
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

func TestWithHintedExt(t *testing.T) {
	cases := []struct {
		name, hint, want string
	}{
		{"1-photo", "image/jpeg", "1-photo.jpg"},
		{"1-clip", "video/quicktime", "1-clip.mov"},
		{"1-clip", "video/mp4; codecs=avc1", "1-clip.mp4"},
		{"1-photo.png", "image/jpeg", "1-photo.png"},
		{"1-blob", "", "1-blob"},
		{"1-blob", "not a mime type;;", "1-blob"},
		{"1-blob", "application/x-unknown-thing", "1-blob"},
	}
	for _, tt := range cases {
		t.Run(tt.name+"_"+tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.want, withHintedExt(tt.name, tt.hint))
		})
	}
}
