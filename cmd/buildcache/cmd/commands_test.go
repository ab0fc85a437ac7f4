package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the root command with args and resets shared flag state.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() {
		keyOutputFile = ""
		keyWriteManifest = false
		configPath = "buildcache.yaml"
		manifestPath = "buildcache.manifest.yaml"
		noInherit = false
		quiet = false
	})
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"Dockerfile":      "FROM scratch\n",
		"buildcache.yaml": "version: 1\nfiles: [Dockerfile]\ncache:\n  store: .store\n",
		"src/app.txt":     "hello",
	}
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestKeyCommandWritesOutputs(t *testing.T) {
	dir := writeProject(t)
	out := filepath.Join(dir, "github_output")
	manifest := filepath.Join(dir, "manifest.yaml")

	err := execute(t, "key",
		"--config", filepath.Join(dir, "buildcache.yaml"),
		"--manifest", manifest,
		"--no-inherit",
		"--quiet",
		"--output-file", out,
		"--write-manifest",
	)
	if err != nil {
		t.Fatalf("key: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "key=buildx-") || lines[1] != "prefix=buildx-" {
		t.Errorf("unexpected outputs: %q", data)
	}
	if _, err := os.Stat(manifest); err != nil {
		t.Errorf("manifest not written: %v", err)
	}

	if err := execute(t, "diff",
		"--config", filepath.Join(dir, "buildcache.yaml"),
		"--manifest", manifest,
		"--no-inherit",
		"--quiet",
	); err != nil {
		t.Errorf("diff: %v", err)
	}
}

func TestKeyCommandIgnoresManifestAndStore(t *testing.T) {
	dir := writeProject(t)
	outDir := t.TempDir()
	keyFor := func(out string) string {
		t.Helper()
		err := execute(t, "key",
			"--config", filepath.Join(dir, "buildcache.yaml"),
			"--manifest", filepath.Join(dir, "buildcache.manifest.yaml"),
			"--no-inherit",
			"--quiet",
			"--output-file", out,
			"--write-manifest",
		)
		if err != nil {
			t.Fatalf("key: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		return strings.SplitN(string(data), "\n", 2)[0]
	}

	first := keyFor(filepath.Join(outDir, "first"))
	if err := os.MkdirAll(filepath.Join(dir, ".store", "entries"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".store", "entries", "x.blob"), []byte("blob"), 0644); err != nil {
		t.Fatal(err)
	}
	second := keyFor(filepath.Join(outDir, "second"))
	if first != second {
		t.Errorf("key moved after writing the manifest and store: %s vs %s", first, second)
	}
}

func TestReplaceCommand(t *testing.T) {
	base := t.TempDir()
	current := filepath.Join(base, "cache")
	fresh := filepath.Join(base, "cache-new")
	for _, d := range []string{current, fresh} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(current, "old"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(fresh, "new"), []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "replace", current, fresh, "--quiet"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := os.Stat(filepath.Join(current, "new")); err != nil {
		t.Errorf("fresh content not in place: %v", err)
	}
	if _, err := os.Stat(filepath.Join(current, "old")); !os.IsNotExist(err) {
		t.Error("stale content survived")
	}
}

func TestReplaceCommandOverlap(t *testing.T) {
	base := t.TempDir()
	if err := execute(t, "replace", base, filepath.Join(base, "inner"), "--quiet"); err == nil {
		t.Fatal("expected overlap error")
	}
}

func TestReplaceCommandArgs(t *testing.T) {
	if err := execute(t, "replace", "only-one"); err == nil {
		t.Fatal("expected argument error")
	}
}
