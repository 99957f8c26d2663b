// path: storage/storage.go
package storage

// ImageStore persists report images and returns addressable URLs.
// The pipeline never updates an image in place; Delete exists only for
// cleaning up after a failed report write.
type ImageStore interface {
	// Put stores JPEG bytes for a report under the given kind
	// ("original", "segmented", "detection") and returns the public URL.
	Put(reportID, kind string, data []byte) (string, error)

	// Delete removes a previously stored image by its URL. Best effort.
	Delete(url string) error

	// LocalPath maps a /storage/... URL path to a filesystem path when the
	// backend is disk-backed; ok is false otherwise.
	LocalPath(urlPath string) (string, bool)

	// Kind names the backend for health reporting.
	Kind() string
}
