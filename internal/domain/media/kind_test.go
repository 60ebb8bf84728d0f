package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_Table(t *testing.T) {
	cases := []struct {
		identifier string
		want       Kind
		wireType   string
	}{
		{"1700000000000-My_Pic_.JPG", KindImage, "image/*"},
		{"1-a.jpeg", KindImage, "image/*"},
		{"1-a.webp", KindImage, "image/*"},
		{"1-a.heic", KindImage, "image/*"},
		{"1-clip.mp4", KindVideo, "video/*"},
		{"1-clip.MOV", KindVideo, "video/*"},
		{"1-notes.txt", KindOther, "application/octet-stream"},
		{"1-noext", KindOther, "application/octet-stream"},
		{"1-archive.jpg.zip", KindOther, "application/octet-stream"},
	}

	for _, tt := range cases {
		t.Run(tt.identifier, func(t *testing.T) {
			got := KindOf(tt.identifier)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wireType, got.WireType())
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "image", KindImage.String())
	assert.Equal(t, "video", KindVideo.String())
	assert.Equal(t, "other", KindOther.String())
}
