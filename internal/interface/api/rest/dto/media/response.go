package media

type (
	// File is a gallery item as listed by /api/files and the snapshot event.
	File struct {
		URL   string `json:"url"`
		Name  string `json:"name"`
		Type  string `json:"type"`
		MTime int64  `json:"mtime"`
	}
	Files []File

	// NewFile is the live push shape. It carries no mtime: receivers stamp
	// their own receipt time.
	NewFile struct {
		URL  string `json:"url"`
		Name string `json:"name"`
		Type string `json:"type"`
	}

	ResponseData struct {
		Files Files `json:"files"`
	}
	UploadResponse struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
		File    File   `json:"file"`
	}
	IPResponse struct {
		IP        string `json:"ip"`
		UploadURL string `json:"upload_url"`
	}
	Resync struct {
		Reason string `json:"reason"`
	}
	Ping struct {
		TS int64 `json:"ts"`
	}
)
