package blobs

import "context"

// ArtifactReader fetches a single content-addressed object — a compiled
// artifact, or one of the auxiliary blobs it references — into a local
// file.
type ArtifactReader interface {
	// If no such object exists, Download should return an error for which errors.Is(err, os.ErrNotExist) is true.
	// Download must verify the fetched bytes hash to info.Hash before destPath is made visible,
	// returning an error for which errors.Is(err, ErrHashMismatch) is true otherwise.
	Download(ctx context.Context, info ArtifactInfo, destPath string) error
}

// ArtifactStore is an ArtifactReader that can also publish objects, used by
// the side of the pipeline that produces compiled artifacts rather than
// just consuming them.
type ArtifactStore interface {
	ArtifactReader
	// Upload uploads the file at sourcePath to the store, using the given hash as the object key.
	// If an object with the same hash already exists, Upload should do nothing and return no error.
	// Upload must verify sourcePath actually hashes to info.Hash before publishing it under that key,
	// returning an error for which errors.Is(err, ErrHashMismatch) is true otherwise.
	Upload(ctx context.Context, sourcePath string, info ArtifactInfo) error
}

// ArtifactInfo identifies one stored object by content hash.
type ArtifactInfo struct {
	Hash string
}
