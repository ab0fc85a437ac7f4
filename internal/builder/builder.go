// Package builder is the boundary to the container build engine.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/containerd/log"
)

// Request describes one build.
type Request struct {
	ContextDir string
	File       string
	Platforms  []string
	Tags       []string
	Args       map[string]string
	Push       bool

	// CacheFrom is read as a local layer cache when it exists.
	CacheFrom string

	// CacheTo receives the layer cache written by this build.
	CacheTo string
}

// Engine runs a build. On success CacheTo is populated.
type Engine interface {
	Build(ctx context.Context, req Request) error
}

// Buildx drives `docker buildx build`.
type Buildx struct {
	// Binary is the docker CLI to invoke. Default: "docker".
	Binary string

	Stdout io.Writer
	Stderr io.Writer
}

// Build runs buildx and reports a non-zero exit as an error.
func (b *Buildx) Build(ctx context.Context, req Request) error {
	bin := b.Binary
	if bin == "" {
		bin = "docker"
	}
	args := Args(req, hasCache(req.CacheFrom))

	log.G(ctx).WithFields(log.Fields{
		"binary": bin,
		"args":   strings.Join(args, " "),
	}).Debug("running build")

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s buildx build: %w", bin, err)
	}
	return nil
}

// Args returns the buildx argument list for req. The cache source is only
// passed when useCacheFrom is set, since buildx cannot import a missing or
// empty local cache directory.
func Args(req Request, useCacheFrom bool) []string {
	args := []string{"buildx", "build"}
	if req.File != "" {
		args = append(args, "--file", req.File)
	}
	if len(req.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(req.Platforms, ","))
	}
	for _, tag := range req.Tags {
		args = append(args, "--tag", tag)
	}

	keys := make([]string, 0, len(req.Args))
	for k := range req.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--build-arg", k+"="+req.Args[k])
	}

	if req.CacheFrom != "" && useCacheFrom {
		args = append(args, "--cache-from", "type=local,src="+req.CacheFrom)
	}
	if req.CacheTo != "" {
		args = append(args, "--cache-to", "type=local,dest="+req.CacheTo+",mode=max")
	}
	if req.Push {
		args = append(args, "--push")
	}

	contextDir := req.ContextDir
	if contextDir == "" {
		contextDir = "."
	}
	return append(args, contextDir)
}

// hasCache reports whether path is a directory with something in it. A cold
// cache directory exists but is empty.
func hasCache(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}
