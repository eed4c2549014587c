package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"voxelstore.dev/internal/persistence/r2s3"
)

// mirrorRuntime wraps the optional snapshot mirror so call sites don't
// care whether one is configured.
type mirrorRuntime struct {
	enabled bool
	mirror  *r2s3.Mirror
}

func buildMirrorRuntime(dataDir string, logger *log.Logger) (*mirrorRuntime, error) {
	if !envBool("VS_MIRROR", false) {
		return &mirrorRuntime{}, nil
	}

	cfg := r2s3.Config{
		Endpoint:        strings.TrimSpace(os.Getenv("VS_MIRROR_ENDPOINT")),
		Bucket:          strings.TrimSpace(os.Getenv("VS_MIRROR_BUCKET")),
		Region:          strings.TrimSpace(os.Getenv("VS_MIRROR_REGION")),
		AccessKeyID:     strings.TrimSpace(os.Getenv("VS_MIRROR_ACCESS_KEY_ID")),
		SecretAccessKey: strings.TrimSpace(os.Getenv("VS_MIRROR_SECRET_ACCESS_KEY")),
	}
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("VS_MIRROR=true but VS_MIRROR_ENDPOINT/VS_MIRROR_BUCKET/VS_MIRROR_ACCESS_KEY_ID/VS_MIRROR_SECRET_ACCESS_KEY are not fully set")
	}

	client, err := r2s3.New(cfg)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSpace(os.Getenv("VS_MIRROR_PREFIX"))
	workers := envInt("VS_MIRROR_WORKERS", 2)
	mirror := r2s3.NewMirror(client, dataDir, prefix, workers, 64, 25*time.Millisecond, logger)

	return &mirrorRuntime{enabled: true, mirror: mirror}, nil
}

func (r *mirrorRuntime) Enqueue(localPath string) {
	if r == nil || !r.enabled {
		return
	}
	r.mirror.Enqueue(localPath)
}

func (r *mirrorRuntime) Close() {
	if r == nil || r.mirror == nil {
		return
	}
	r.mirror.Close()
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
