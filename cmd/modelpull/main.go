// Command modelpull prefetches one or more compiled artifacts (or any
// auxiliary objects they reference, addressed the same way) into a local
// cache directory concurrently, using golang.org/x/sync/errgroup, following
// cmd/model-store's env-var-plus-flag artifact-store configuration idiom.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/staticrt/runtime/pkg/blobs"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	klog.InitFlags(nil)

	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "~/.cache/rtserver/artifacts"
	}
	cacheBucket := os.Getenv("CACHE_BUCKET")
	var concurrency int
	flag.StringVar(&cacheDir, "cache-dir", cacheDir, "local cache directory to fetch into")
	flag.StringVar(&cacheBucket, "cache-bucket", cacheBucket, "GCS bucket URL (gs://<bucketName>) to fetch from")
	flag.IntVar(&concurrency, "concurrency", 4, "maximum concurrent downloads")
	flag.Parse()

	hashes := flag.Args()
	if len(hashes) == 0 {
		return fmt.Errorf("must specify at least one artifact hash to fetch")
	}
	if cacheBucket == "" {
		return fmt.Errorf("must specify -cache-bucket or CACHE_BUCKET")
	}
	if !strings.HasPrefix(cacheBucket, "gs://") {
		return fmt.Errorf("-cache-bucket must be a GCS bucket URL (gs://<bucketName>)")
	}

	log := klog.FromContext(ctx)

	if strings.HasPrefix(cacheDir, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		cacheDir = filepath.Join(homeDir, strings.TrimPrefix(cacheDir, "~/"))
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache directory %q: %w", cacheDir, err)
	}

	artifactStore := &blobs.GCSArtifactStore{Bucket: strings.TrimPrefix(cacheBucket, "gs://")}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, hash := range hashes {
		hash := hash
		g.Go(func() error {
			destPath := filepath.Join(cacheDir, hash)
			if _, err := os.Stat(destPath); err == nil {
				log.Info("already cached", "hash", hash)
				return nil
			}
			if err := artifactStore.Download(gctx, blobs.ArtifactInfo{Hash: hash}, destPath); err != nil {
				return fmt.Errorf("fetching artifact %q: %w", hash, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("prefetched artifacts", "count", len(hashes), "cacheDir", cacheDir)
	return nil
}
