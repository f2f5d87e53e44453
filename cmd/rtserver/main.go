// Command rtserver loads a compiled artifact and serves its Runtime over
// gRPC, following the teacher's cmd/tensorserver bootstrap idiom
// (klog.InitFlags, flag.Parse, net.Listen, grpc.NewServer) generalized from
// a single fixed CalcServer to pkg/rpc's fuller RuntimeServer surface, and
// cmd/model-store's env-var-plus-flag configuration for where the artifact
// comes from.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/staticrt/runtime/pkg/blobs"
	"github.com/staticrt/runtime/pkg/kernels"
	"github.com/staticrt/runtime/pkg/module"
	"github.com/staticrt/runtime/pkg/registry"
	"github.com/staticrt/runtime/pkg/rpc"
	"github.com/staticrt/runtime/pkg/runtime"
	"google.golang.org/grpc"
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

	listen := ":9876"
	artifactPath := os.Getenv("ARTIFACT_PATH")
	artifactHash := os.Getenv("ARTIFACT_HASH")
	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "~/.cache/rtserver/artifacts"
	}
	blobserverURL := os.Getenv("BLOBSERVER_URL")
	flag.StringVar(&listen, "listen", listen, "listen address")
	flag.StringVar(&artifactPath, "artifact", artifactPath, "path to a local compiled artifact file")
	flag.StringVar(&artifactHash, "artifact-hash", artifactHash, "hash of a compiled artifact to fetch from the blobserver")
	flag.StringVar(&cacheDir, "cache-dir", cacheDir, "local cache directory for fetched artifacts")
	flag.StringVar(&blobserverURL, "blobserver-url", blobserverURL, "base URL of the blobserver (e.g. http://blobserver)")
	flag.Parse()

	log := klog.FromContext(ctx)

	artifactPath, err := resolveArtifactPath(ctx, artifactPath, artifactHash, cacheDir, blobserverURL)
	if err != nil {
		return fmt.Errorf("resolving compiled artifact: %w", err)
	}

	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return fmt.Errorf("reading artifact %q: %w", artifactPath, err)
	}

	reg := registry.New()
	kernels.Install(reg)

	m, err := module.LoadArtifact(data, reg)
	if err != nil {
		return fmt.Errorf("loading artifact %q: %w", artifactPath, err)
	}

	rt, err := runtime.New(m, reg)
	if err != nil {
		return fmt.Errorf("constructing runtime: %w", err)
	}

	lis, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listening on %q: %w", listen, err)
	}

	grpcServer := grpc.NewServer()
	rpc.RegisterRuntimeServer(grpcServer, rpc.NewServer(rt))

	log.Info("starting rtserver", "listen", listen, "artifact", artifactPath)
	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("serving GRPC: %w", err)
	}
	return nil
}

// resolveArtifactPath returns a local file path for the compiled artifact:
// artifactPath directly if set, otherwise fetches artifactHash into
// cacheDir from the blobserver at blobserverURL using pkg/blobs'
// ArtifactServer, the same way cmd/model-store resolves a cached artifact.
func resolveArtifactPath(ctx context.Context, artifactPath, artifactHash, cacheDir, blobserverURL string) (string, error) {
	if artifactPath != "" {
		return artifactPath, nil
	}
	if artifactHash == "" {
		return "", fmt.Errorf("must specify -artifact or -artifact-hash")
	}
	if blobserverURL == "" {
		return "", fmt.Errorf("must specify -blobserver-url when fetching by -artifact-hash")
	}

	if strings.HasPrefix(cacheDir, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		cacheDir = filepath.Join(homeDir, strings.TrimPrefix(cacheDir, "~/"))
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("creating cache directory %q: %w", cacheDir, err)
	}

	localPath := filepath.Join(cacheDir, artifactHash)
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	base, err := url.Parse(blobserverURL)
	if err != nil {
		return "", fmt.Errorf("parsing -blobserver-url %q: %w", blobserverURL, err)
	}
	reader := &blobs.ArtifactServer{ArtifactServerURL: base}
	if err := reader.Download(ctx, blobs.ArtifactInfo{Hash: artifactHash}, localPath); err != nil {
		return "", fmt.Errorf("downloading artifact %q: %w", artifactHash, err)
	}
	return localPath, nil
}
