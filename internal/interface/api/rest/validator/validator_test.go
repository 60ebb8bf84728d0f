package validator

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUploadHeader(t *testing.T) {
	cases := []struct {
		name string
		fh   *multipart.FileHeader
		max  int64
		want error
	}{
		{"missing", nil, 10, ErrFileRequired},
		{"empty", &multipart.FileHeader{Size: 0}, 10, ErrFileEmpty},
		{"too large", &multipart.FileHeader{Size: 11}, 10, ErrFileTooLarge},
		{"at limit", &multipart.FileHeader{Size: 10}, 10, nil},
		{"no limit", &multipart.FileHeader{Size: 1 << 40}, 0, nil},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateUploadHeader(tt.fh, tt.max), tt.want)
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("1700000000000-My_Pic_.JPG"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier(".meta"))
	assert.False(t, IsIdentifier("a/b"))
	assert.False(t, IsIdentifier(`a\b`))
}
