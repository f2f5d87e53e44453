package blobs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"k8s.io/klog/v2"
)

// ArtifactServer fetches compiled artifacts over plain HTTP from a
// blobserver that serves content-addressed objects at
// <ArtifactServerURL>/<hash>.
type ArtifactServer struct {
	// ArtifactServerURL is the base URL to the blobserver, typically http://blobserver
	ArtifactServerURL *url.URL
}

var _ ArtifactReader = &ArtifactServer{}

// Download fetches info.Hash from the blobserver and verifies the response
// body hashes to info.Hash before the file lands at destPath, the same
// content-addressed guarantee GCSArtifactStore.Download makes — a
// blobserver fronting a mirror or CDN could otherwise serve stale or
// substituted bytes under the right-looking URL.
func (l *ArtifactServer) Download(ctx context.Context, info ArtifactInfo, destPath string) error {
	log := klog.FromContext(ctx)

	reqURL := l.ArtifactServerURL.JoinPath(info.Hash)

	log.Info("downloading artifact from url", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	startedAt := time.Now()

	httpClient := &http.Client{}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		if resp.StatusCode == 404 {
			return fmt.Errorf("artifact not found: %w", os.ErrNotExist)
		}
		return fmt.Errorf("unexpected status downloading from upstream source: %v", resp.Status)
	}

	n, err := writeVerifiedFile(ctx, resp.Body, destPath, info.Hash)
	if err != nil {
		return fmt.Errorf("downloading from %q: %w", reqURL, err)
	}

	log.Info("downloaded artifact", "url", reqURL.String(), "bytes", n, "duration", time.Since(startedAt))

	return nil
}
