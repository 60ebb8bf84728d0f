package media_file

const (
	SelectMediaFiles = `
		SELECT identifier, display_name, size_bytes, created_at
		FROM media_files
		ORDER BY created_at DESC, identifier DESC
	`
	InsertMediaFile = `
		INSERT INTO media_files (identifier, display_name, size_bytes)
		VALUES ($1, $2, $3)
		RETURNING identifier, display_name, size_bytes, created_at
	`
)
