package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeNilInputs(t *testing.T) {
	c := &Config{Version: 1}
	if got, _ := Merge(nil, c); got != c {
		t.Error("Merge(nil, c) should return c")
	}
	if got, _ := Merge(c, nil); got != c {
		t.Error("Merge(c, nil) should return c")
	}
}

func TestMergeScalarsOverlayWins(t *testing.T) {
	base := &Config{
		Version:   1,
		Context:   "base-ctx",
		KeyPrefix: "base-",
		Workers:   2,
		Cache:     Cache{Dir: "/base", MaxSize: "1GB"},
		Build:     Build{File: "Dockerfile"},
	}
	overlay := &Config{
		KeyPrefix: "proj-",
		Cache:     Cache{Dir: "/proj"},
	}

	got, err := Merge(base, overlay)
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		Version:   1,
		Context:   "base-ctx",
		KeyPrefix: "proj-",
		Workers:   2,
		Cache:     Cache{Dir: "/proj", MaxSize: "1GB"},
		Build:     Build{File: "Dockerfile"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeListsDeduplicated(t *testing.T) {
	base := &Config{
		Files:   []string{"Dockerfile", "go.sum"},
		Exclude: []string{"*.log"},
		Build:   Build{Platforms: []string{"linux/amd64"}},
	}
	overlay := &Config{
		Files:   []string{"go.sum", "package-lock.json"},
		Exclude: []string{"*.log", "tmp"},
		Build:   Build{Platforms: []string{"linux/arm64"}, Tags: []string{"x:1"}},
	}

	got, err := Merge(base, overlay)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Dockerfile", "go.sum", "package-lock.json"}, got.Files); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"*.log", "tmp"}, got.Exclude); diff != "" {
		t.Errorf("exclude (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"linux/amd64", "linux/arm64"}, got.Build.Platforms); diff != "" {
		t.Errorf("platforms (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x:1"}, got.Build.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
}

func TestMergeArgs(t *testing.T) {
	base := &Config{Build: Build{Args: map[string]string{"A": "1", "B": "2"}}}
	overlay := &Config{Build: Build{Args: map[string]string{"B": "3", "C": "4"}}}

	got, err := Merge(base, overlay)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"A": "1", "B": "3", "C": "4"}
	if diff := cmp.Diff(want, got.Build.Args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
	if base.Build.Args["B"] != "2" {
		t.Error("base args were mutated")
	}
}

func TestMergePush(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name    string
		base    *bool
		overlay *bool
		want    bool
	}{
		{"unset everywhere", nil, nil, false},
		{"inherited from base", &yes, nil, true},
		{"enabled by overlay", &no, &yes, true},
		{"disabled by overlay", &yes, &no, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(&Config{Build: Build{Push: tt.base}}, &Config{Build: Build{Push: tt.overlay}})
			if err != nil {
				t.Fatal(err)
			}
			if got.Build.PushEnabled() != tt.want {
				t.Errorf("PushEnabled() = %v, want %v", got.Build.PushEnabled(), tt.want)
			}
		})
	}
}

func TestMergeVersionMismatch(t *testing.T) {
	_, err := Merge(&Config{Version: 1}, &Config{Version: 2})
	if err == nil || !strings.Contains(err.Error(), "version mismatch") {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestMergeVersionInherited(t *testing.T) {
	got, err := Merge(&Config{Version: 1}, &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}
}

func TestMergeAll(t *testing.T) {
	if _, err := MergeAll(nil); err == nil {
		t.Error("expected error for no configs")
	}

	got, err := MergeAll([]*Config{
		{Version: 1, KeyPrefix: "sys-"},
		{KeyPrefix: "user-", Workers: 8},
		{KeyPrefix: "proj-"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.KeyPrefix != "proj-" || got.Workers != 8 || got.Version != 1 {
		t.Errorf("unexpected merge result: %+v", got)
	}
}
