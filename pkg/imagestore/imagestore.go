package imagestore

// UploadResult is what the image host hands back for a stored image.
type UploadResult struct {
	URL      string
	PublicID string
}

// Uploader is the opaque contract over the third-party image host: store a
// buffer, get back a serving URL and a host-side id; destroy by that id.
type Uploader interface {
	Upload(data []byte, folder, filename string) (*UploadResult, error)
	Destroy(publicID string) error
}
