package ports

type URLResolver interface {
	FileURL(identifier string) string
	UploadPageURL() string
	LocalIP() string
}
