package storage

// ObjectStore retains original document bytes. Keys are opaque handles chosen
// by the caller (user/project/document scoped paths). The pipeline only needs
// put/get/delete; the backing engine (disk, MinIO, S3) is swappable.
type ObjectStore interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
}
