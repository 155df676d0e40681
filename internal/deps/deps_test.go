package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"nostrcast/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: ""},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for unset command: %#v", results[2])
	}
}

func TestRequirementsCoverConfiguredTools(t *testing.T) {
	cfg := config.Default()
	reqs := Requirements(&cfg)
	if len(reqs) != 5 {
		t.Fatalf("expected 5 requirements, got %d", len(reqs))
	}
	names := map[string]bool{}
	for _, req := range reqs {
		if req.Command == "" {
			t.Fatalf("requirement %s has no command", req.Name)
		}
		names[req.Name] = true
	}
	for _, name := range []string{"yt-dlp", "gallery-dl", "ffmpeg", "ffprobe", "nak"} {
		if !names[name] {
			t.Fatalf("missing requirement %s in %v", name, reqs)
		}
	}
}

func TestVersion(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "DEPS_HELPER_STDOUT=2025.08.27\nextra line")
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	if got := Version(context.Background(), "yt-dlp"); got != "2025.08.27" {
		t.Fatalf("expected first line of version output, got %q", got)
	}
	if got := Version(context.Background(), ""); got != "" {
		t.Fatalf("expected empty version for empty binary, got %q", got)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprint(os.Stdout, os.Getenv("DEPS_HELPER_STDOUT"))
	os.Exit(0)
}
