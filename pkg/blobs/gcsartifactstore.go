package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"k8s.io/klog/v2"
)

// GCSArtifactStore stores compiled artifacts (and the auxiliary blobs they
// reference) as content-addressed objects in a single GCS bucket, keyed by
// hash: ArtifactInfo.Hash is both the object name and the value every
// Upload/Download verifies the transferred bytes against, since an object
// under the wrong key is indistinguishable from a corrupted one to a
// caller that only has the hash to go on.
type GCSArtifactStore struct {
	Bucket string
}

var _ ArtifactStore = (*GCSArtifactStore)(nil)

// Upload hashes sourcePath before ever contacting GCS: since the bucket is
// content-addressed, uploading under a hash the local file doesn't
// actually have would silently poison every future Download for that key.
func (j *GCSArtifactStore) Upload(ctx context.Context, sourcePath string, info ArtifactInfo) error {
	log := klog.FromContext(ctx)

	computed, err := hashFile(sourcePath)
	if err != nil {
		return err
	}
	if err := verifyHash(computed, info.Hash); err != nil {
		return fmt.Errorf("refusing to upload %q: %w", sourcePath, err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	objectKey := info.Hash
	gcsURL := "gs://" + j.Bucket + "/" + objectKey

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating GCS storage client: %w", err)
	}
	defer client.Close()

	obj := client.Bucket(j.Bucket).Object(objectKey)
	objAttrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			objAttrs = nil
			log.Info("artifact object not found in GCS", "url", gcsURL)
			// Fallthrough to upload object
		} else {
			return fmt.Errorf("getting object attributes for %q: %w", gcsURL, err)
		}
	}
	if objAttrs != nil {
		log.Info("artifact object already exists in GCS", "url", gcsURL)
		return nil
	}

	log.Info("uploading artifact to GCS", "source", sourcePath, "destination", gcsURL, "hash", info.Hash)

	startedAt := time.Now()
	w := obj.NewWriter(ctx)
	n, err := io.Copy(w, src)
	if err != nil {
		return fmt.Errorf("uploading to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing GCS writer: %w", err)
	}

	log.Info("uploaded artifact to GCS", "url", gcsURL, "bytes", n, "duration", time.Since(startedAt))

	return nil
}

// Download fetches the object keyed by info.Hash and verifies the bytes it
// received actually hash to info.Hash before the file is made visible at
// destinationPath — a mismatch means GCS served something other than the
// artifact this caller asked for, which the opaque-blob-name teacher this
// store descends from had no way to notice.
func (j *GCSArtifactStore) Download(ctx context.Context, info ArtifactInfo, destinationPath string) error {
	log := klog.FromContext(ctx)

	objectKey := info.Hash
	gcsURL := "gs://" + j.Bucket + "/" + objectKey

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating GCS storage client: %w", err)
	}
	defer client.Close()

	log.Info("downloading artifact from GCS", "source", gcsURL, "destination", destinationPath)

	startedAt := time.Now()
	r, err := client.Bucket(j.Bucket).Object(objectKey).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("artifact %q not found in GCS: %w", gcsURL, os.ErrNotExist)
		}
		return fmt.Errorf("opening object from GCS %q: %w", gcsURL, err)
	}
	defer r.Close()

	n, err := writeVerifiedFile(ctx, r, destinationPath, info.Hash)
	if err != nil {
		return fmt.Errorf("downloading from GCS: %w", err)
	}

	log.Info("downloaded artifact from GCS", "source", gcsURL, "destination", destinationPath, "bytes", n, "duration", time.Since(startedAt))

	return nil
}

// writeVerifiedFile copies src to a temp file alongside destinationPath,
// hashing it in the same pass, and only renames it into place once the
// computed digest matches wantHash — a corrupt or mismatched download
// never becomes visible at destinationPath.
func writeVerifiedFile(ctx context.Context, src io.Reader, destinationPath, wantHash string) (int64, error) {
	log := klog.FromContext(ctx)

	dir := filepath.Dir(destinationPath)
	tempFile, err := os.CreateTemp(dir, "artifact-download")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	shouldDeleteTempFile := true
	defer func() {
		if shouldDeleteTempFile {
			if err := os.Remove(tempFile.Name()); err != nil {
				log.Error(err, "removing temp file", "path", tempFile.Name)
			}
		}
	}()

	shouldCloseTempFile := true
	defer func() {
		if shouldCloseTempFile {
			if err := tempFile.Close(); err != nil {
				log.Error(err, "closing temp file", "path", tempFile.Name)
			}
		}
	}()

	hashed := newHashingReader(src)
	n, err := io.Copy(tempFile, hashed)
	if err != nil {
		return n, fmt.Errorf("downloading from upstream source: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return n, fmt.Errorf("closing temp file: %w", err)
	}
	shouldCloseTempFile = false

	if err := verifyHash(hashed.sum(), wantHash); err != nil {
		return n, err
	}

	if err := os.Rename(tempFile.Name(), destinationPath); err != nil {
		return n, fmt.Errorf("renaming temp file: %w", err)
	}
	shouldDeleteTempFile = false

	return n, nil
}
