package media_file

import "time"

type (
	MediaFile struct {
		Identifier  string
		DisplayName string
		SizeBytes   int64
		CreatedAt   time.Time
	}
	MediaFiles []*MediaFile
)
